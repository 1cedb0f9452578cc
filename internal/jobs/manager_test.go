package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/deborgen/deborgen/internal/database"
	"github.com/deborgen/deborgen/internal/labels"
)

func newTestManager(t *testing.T, leaseDuration time.Duration) *Manager {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.InitDB(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	t.Cleanup(func() {
		if err := database.CloseDB(db); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return NewManager(db, leaseDuration)
}

func mustCreateJob(t *testing.T, m *Manager, command string) *Job {
	t.Helper()
	job, err := m.CreateJob(context.Background(), CreateJobRequest{
		Command:        command,
		TimeoutSeconds: 3600,
		MaxAttempts:    1,
	})
	if err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	return job
}

func TestCreateJob(t *testing.T) {
	m := newTestManager(t, 0)
	ctx := context.Background()

	job := mustCreateJob(t, m, "echo hello")

	if job.ID != "job_1" {
		t.Fatalf("expected id job_1, got %q", job.ID)
	}
	if job.Status != StatusQueued {
		t.Fatalf("expected status queued, got %q", job.Status)
	}
	if job.StartedAt != nil || job.FinishedAt != nil || job.AssignedNodeID != nil {
		t.Fatalf("new job has assignment fields set: %+v", job)
	}
	if job.Attempts != 0 {
		t.Fatalf("expected 0 attempts, got %d", job.Attempts)
	}
	if job.ArtifactURLs == nil || len(job.ArtifactURLs) != 0 {
		t.Fatalf("expected empty artifact_urls slice, got %v", job.ArtifactURLs)
	}

	got, err := m.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("failed to get job: %v", err)
	}
	if got.Command != "echo hello" {
		t.Fatalf("unexpected command: %q", got.Command)
	}
}

func TestCreateJobRejectsNonPositiveBounds(t *testing.T) {
	m := newTestManager(t, 0)
	ctx := context.Background()

	cases := []struct {
		name string
		req  CreateJobRequest
	}{
		{"zero timeout", CreateJobRequest{Command: "echo", TimeoutSeconds: 0, MaxAttempts: 1}},
		{"negative timeout", CreateJobRequest{Command: "echo", TimeoutSeconds: -5, MaxAttempts: 1}},
		{"zero max attempts", CreateJobRequest{Command: "echo", TimeoutSeconds: 60, MaxAttempts: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.CreateJob(ctx, tc.req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestGetJobNotFound(t *testing.T) {
	m := newTestManager(t, 0)
	ctx := context.Background()

	for _, id := range []string{"job_99", "job_abc", "nonsense", "job_"} {
		if _, err := m.GetJob(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("GetJob(%q): expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestClaimNextEmptyQueue(t *testing.T) {
	m := newTestManager(t, 0)

	assignment, err := m.ClaimNext(context.Background(), "node-a")
	if err != nil {
		t.Fatalf("claim on empty queue failed: %v", err)
	}
	if assignment != nil {
		t.Fatalf("expected nil assignment on empty queue, got %+v", assignment)
	}
}

func TestClaimNextOrderAndState(t *testing.T) {
	m := newTestManager(t, 0)
	ctx := context.Background()

	first := mustCreateJob(t, m, "echo first")
	second := mustCreateJob(t, m, "echo second")

	assignment, err := m.ClaimNext(ctx, "node-a")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if assignment == nil {
		t.Fatal("expected an assignment")
	}
	if assignment.Job.ID != first.ID {
		t.Fatalf("expected oldest job %s first, got %s", first.ID, assignment.Job.ID)
	}
	if assignment.LeaseToken == "" {
		t.Fatal("expected a non-empty lease token")
	}
	if assignment.Job.Status != StatusRunning {
		t.Fatalf("expected running, got %q", assignment.Job.Status)
	}
	if assignment.Job.AssignedNodeID == nil || *assignment.Job.AssignedNodeID != "node-a" {
		t.Fatalf("unexpected assigned node: %v", assignment.Job.AssignedNodeID)
	}
	if assignment.Job.StartedAt == nil {
		t.Fatal("expected started_at to be set")
	}
	if assignment.Job.Attempts != 1 {
		t.Fatalf("expected attempts=1 after claim, got %d", assignment.Job.Attempts)
	}

	next, err := m.ClaimNext(ctx, "node-b")
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}
	if next == nil || next.Job.ID != second.ID {
		t.Fatalf("expected second claim to return %s, got %+v", second.ID, next)
	}
	if next.LeaseToken == assignment.LeaseToken {
		t.Fatal("lease tokens must be unique per claim")
	}
}

func TestConcurrentClaimsAreExclusive(t *testing.T) {
	m := newTestManager(t, 0)
	ctx := context.Background()

	const jobCount = 5
	const claimerCount = 20
	for i := 0; i < jobCount; i++ {
		mustCreateJob(t, m, "echo race")
	}

	var wg sync.WaitGroup
	results := make(chan *Assignment, claimerCount)
	for i := 0; i < claimerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assignment, err := m.ClaimNext(ctx, "node-racer")
			if err != nil {
				t.Errorf("claim failed: %v", err)
				return
			}
			results <- assignment
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	claimed := 0
	for assignment := range results {
		if assignment == nil {
			continue
		}
		claimed++
		if seen[assignment.Job.ID] {
			t.Fatalf("job %s was claimed twice", assignment.Job.ID)
		}
		seen[assignment.Job.ID] = true
	}
	if claimed != jobCount {
		t.Fatalf("expected %d successful claims, got %d", jobCount, claimed)
	}
}

func TestFinishSuccess(t *testing.T) {
	m := newTestManager(t, 0)
	ctx := context.Background()

	mustCreateJob(t, m, "echo done")
	assignment, err := m.ClaimNext(ctx, "node-a")
	if err != nil || assignment == nil {
		t.Fatalf("claim failed: %v", err)
	}

	job, err := m.Finish(ctx, assignment.Job.ID, FinishRequest{
		NodeID:     "node-a",
		LeaseToken: assignment.LeaseToken,
		ExitCode:   0,
	})
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if job.Status != StatusSucceeded {
		t.Fatalf("expected succeeded, got %q", job.Status)
	}
	if job.ExitCode == nil || *job.ExitCode != 0 {
		t.Fatalf("unexpected exit code: %v", job.ExitCode)
	}
	if job.FinishedAt == nil {
		t.Fatal("expected finished_at to be set")
	}
}

func TestFinishFailureWithReason(t *testing.T) {
	m := newTestManager(t, 0)
	ctx := context.Background()

	mustCreateJob(t, m, "false")
	assignment, err := m.ClaimNext(ctx, "node-a")
	if err != nil || assignment == nil {
		t.Fatalf("claim failed: %v", err)
	}

	reason := "command not found: nosuchbinary"
	job, err := m.Finish(ctx, assignment.Job.ID, FinishRequest{
		NodeID:        "node-a",
		LeaseToken:    assignment.LeaseToken,
		ExitCode:      127,
		FailureReason: &reason,
	})
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if job.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", job.Status)
	}
	if job.ExitCode == nil || *job.ExitCode != 127 {
		t.Fatalf("unexpected exit code: %v", job.ExitCode)
	}
	if job.FailureReason == nil || *job.FailureReason != reason {
		t.Fatalf("unexpected failure reason: %v", job.FailureReason)
	}
}

func TestFinishConflicts(t *testing.T) {
	m := newTestManager(t, 0)
	ctx := context.Background()

	queued := mustCreateJob(t, m, "echo queued")
	mustCreateJob(t, m, "echo running")

	// Finishing a queued job is a state conflict, not a lease problem.
	_, err := m.Finish(ctx, queued.ID, FinishRequest{NodeID: "node-a", LeaseToken: "tok", ExitCode: 0})
	assertConflict(t, err, "job is not running")

	assignment, err := m.ClaimNext(ctx, "node-a")
	if err != nil || assignment == nil {
		t.Fatalf("claim failed: %v", err)
	}

	_, err = m.Finish(ctx, assignment.Job.ID, FinishRequest{NodeID: "node-b", LeaseToken: assignment.LeaseToken, ExitCode: 0})
	assertConflict(t, err, "job is owned by a different worker")

	_, err = m.Finish(ctx, assignment.Job.ID, FinishRequest{NodeID: "node-a", LeaseToken: "wrong-token", ExitCode: 0})
	assertConflict(t, err, "job is owned by a different worker")

	// A correct finish, then a second attempt: the job is terminal now.
	if _, err := m.Finish(ctx, assignment.Job.ID, FinishRequest{NodeID: "node-a", LeaseToken: assignment.LeaseToken, ExitCode: 0}); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	_, err = m.Finish(ctx, assignment.Job.ID, FinishRequest{NodeID: "node-a", LeaseToken: assignment.LeaseToken, ExitCode: 0})
	assertConflict(t, err, "job is not running")
}

func TestExpiredLeaseRejected(t *testing.T) {
	// A negative lease duration makes every lease expired at mint time.
	m := newTestManager(t, -time.Second)
	ctx := context.Background()

	mustCreateJob(t, m, "echo slow")
	assignment, err := m.ClaimNext(ctx, "node-a")
	if err != nil || assignment == nil {
		t.Fatalf("claim failed: %v", err)
	}

	_, err = m.Finish(ctx, assignment.Job.ID, FinishRequest{NodeID: "node-a", LeaseToken: assignment.LeaseToken, ExitCode: 0})
	assertConflict(t, err, "lease has expired")

	err = m.AppendLogs(ctx, assignment.Job.ID, "node-a", assignment.LeaseToken, "late output\n")
	assertConflict(t, err, "lease has expired")
}

func assertConflict(t *testing.T, err error, detail string) {
	t.Helper()
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError %q, got %v", detail, err)
	}
	if conflict.Detail != detail {
		t.Fatalf("expected conflict detail %q, got %q", detail, conflict.Detail)
	}
}

func TestAppendAndReadLogs(t *testing.T) {
	m := newTestManager(t, 0)
	ctx := context.Background()

	mustCreateJob(t, m, "echo chunks")
	assignment, err := m.ClaimNext(ctx, "node-a")
	if err != nil || assignment == nil {
		t.Fatalf("claim failed: %v", err)
	}
	jobID := assignment.Job.ID

	for _, chunk := range []string{"line one\n", "line two\n", "line three\n"} {
		if err := m.AppendLogs(ctx, jobID, "node-a", assignment.LeaseToken, chunk); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	text, err := m.ReadLogs(ctx, jobID)
	if err != nil {
		t.Fatalf("read logs failed: %v", err)
	}
	want := "line one\nline two\nline three\n"
	if text != want {
		t.Fatalf("unexpected log text: %q", text)
	}

	// Reads require no lease and survive job completion.
	if _, err := m.Finish(ctx, jobID, FinishRequest{NodeID: "node-a", LeaseToken: assignment.LeaseToken, ExitCode: 0}); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	text, err = m.ReadLogs(ctx, jobID)
	if err != nil {
		t.Fatalf("read logs after finish failed: %v", err)
	}
	if text != want {
		t.Fatalf("log text changed after finish: %q", text)
	}
}

func TestAppendLogsRequiresLease(t *testing.T) {
	m := newTestManager(t, 0)
	ctx := context.Background()

	queued := mustCreateJob(t, m, "echo locked")
	err := m.AppendLogs(ctx, queued.ID, "node-a", "tok", "nope\n")
	assertConflict(t, err, "job is not running")

	assignment, err := m.ClaimNext(ctx, "node-a")
	if err != nil || assignment == nil {
		t.Fatalf("claim failed: %v", err)
	}
	err = m.AppendLogs(ctx, assignment.Job.ID, "node-b", assignment.LeaseToken, "nope\n")
	assertConflict(t, err, "job is owned by a different worker")
}

func TestReadLogsEmptyAndMissing(t *testing.T) {
	m := newTestManager(t, 0)
	ctx := context.Background()

	job := mustCreateJob(t, m, "echo silent")
	text, err := m.ReadLogs(ctx, job.ID)
	if err != nil {
		t.Fatalf("read logs failed: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty logs, got %q", text)
	}

	if _, err := m.ReadLogs(ctx, "job_999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHeartbeat(t *testing.T) {
	m := newTestManager(t, 0)
	ctx := context.Background()

	name := "workstation"
	node, err := m.Heartbeat(ctx, "node-a", &name, labels.Labels{"gpu": "rtx3060", "cpu_cores": int64(12)})
	if err != nil {
		t.Fatalf("first heartbeat failed: %v", err)
	}
	if node.NodeID != "node-a" {
		t.Fatalf("unexpected node id: %q", node.NodeID)
	}
	if node.Name == nil || *node.Name != "workstation" {
		t.Fatalf("unexpected name: %v", node.Name)
	}
	if node.Labels["gpu"] != "rtx3060" {
		t.Fatalf("unexpected labels: %v", node.Labels)
	}
	if cores, ok := node.Labels["cpu_cores"].(int64); !ok || cores != 12 {
		t.Fatalf("integer label did not round-trip: %v (%T)", node.Labels["cpu_cores"], node.Labels["cpu_cores"])
	}

	firstSeen := node.LastSeenAt
	time.Sleep(10 * time.Millisecond)

	// A bare heartbeat preserves the stored name and labels.
	node, err = m.Heartbeat(ctx, "node-a", nil, nil)
	if err != nil {
		t.Fatalf("second heartbeat failed: %v", err)
	}
	if node.Name == nil || *node.Name != "workstation" {
		t.Fatalf("nil name should preserve stored name, got %v", node.Name)
	}
	if node.Labels["gpu"] != "rtx3060" {
		t.Fatalf("empty labels should preserve stored labels, got %v", node.Labels)
	}
	if !node.LastSeenAt.After(firstSeen) {
		t.Fatalf("last_seen_at did not advance: %v -> %v", firstSeen, node.LastSeenAt)
	}

	// New values replace stored ones.
	newName := "renamed"
	node, err = m.Heartbeat(ctx, "node-a", &newName, labels.Labels{"zone": "garage"})
	if err != nil {
		t.Fatalf("third heartbeat failed: %v", err)
	}
	if node.Name == nil || *node.Name != "renamed" {
		t.Fatalf("unexpected name after rename: %v", node.Name)
	}
	if node.Labels["zone"] != "garage" || node.Labels["gpu"] != nil {
		t.Fatalf("labels were not replaced: %v", node.Labels)
	}
}

func TestListJobs(t *testing.T) {
	m := newTestManager(t, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		mustCreateJob(t, m, "echo batch")
	}
	assignment, err := m.ClaimNext(ctx, "node-a")
	if err != nil || assignment == nil {
		t.Fatalf("claim failed: %v", err)
	}

	all, err := m.ListJobs(ctx, "", 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(all))
	}
	// Newest first.
	if all[0].ID != "job_3" || all[2].ID != "job_1" {
		t.Fatalf("unexpected order: %s .. %s", all[0].ID, all[2].ID)
	}

	queued, err := m.ListJobs(ctx, StatusQueued, 0)
	if err != nil {
		t.Fatalf("list queued failed: %v", err)
	}
	if len(queued) != 2 {
		t.Fatalf("expected 2 queued jobs, got %d", len(queued))
	}

	limited, err := m.ListJobs(ctx, "", 1)
	if err != nil {
		t.Fatalf("list limited failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "job_3" {
		t.Fatalf("unexpected limited result: %+v", limited)
	}
}
