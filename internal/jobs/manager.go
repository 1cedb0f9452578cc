// Package jobs implements the coordinator's job dispatch core: the lifecycle
// state machine, the atomic claim, and the lease protocol that authorises
// exactly one worker to finish or append logs to a running job.
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/deborgen/deborgen/internal/database"
	"github.com/deborgen/deborgen/internal/labels"
)

// DefaultLeaseDuration is used when the coordinator does not configure one.
const DefaultLeaseDuration = 5 * time.Minute

// Manager is the lifecycle service over the persistent store. Every state
// transition runs inside a single transaction under the writer mutex, so the
// whole service behaves as one linearisable state machine. Reads go straight
// to the store.
type Manager struct {
	db            *sql.DB
	queries       *database.Queries
	leaseDuration time.Duration

	// mu serialises write transactions end to end. The SQLite pool is
	// already a single connection; the mutex keeps the select-then-update
	// inside claim atomic with respect to other writers regardless of the
	// engine backing the store.
	mu sync.Mutex
}

// NewManager constructs a Manager. A zero leaseDuration selects
// DefaultLeaseDuration; negative durations are kept as-is, which makes every
// lease expire immediately (useful for exercising expiry handling).
func NewManager(db *sql.DB, leaseDuration time.Duration) *Manager {
	if leaseDuration == 0 {
		leaseDuration = DefaultLeaseDuration
	}
	return &Manager{
		db:            db,
		queries:       database.New(db),
		leaseDuration: leaseDuration,
	}
}

// withTx runs fn inside one write transaction under the writer mutex.
func (m *Manager) withTx(ctx context.Context, fn func(q *database.Queries) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(m.queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CreateJobRequest carries the caller-supplied fields for a new job.
type CreateJobRequest struct {
	Command        string
	TimeoutSeconds int64
	MaxAttempts    int64
}

// CreateJob inserts a new queued job. Non-positive timeout or attempt bounds
// are rejected rather than clamped.
func (m *Manager) CreateJob(ctx context.Context, req CreateJobRequest) (*Job, error) {
	if req.TimeoutSeconds <= 0 {
		return nil, &ValidationError{Detail: "timeout_seconds must be positive"}
	}
	if req.MaxAttempts <= 0 {
		return nil, &ValidationError{Detail: "max_attempts must be positive"}
	}

	var created *Job
	err := m.withTx(ctx, func(q *database.Queries) error {
		row, err := q.CreateJob(ctx, database.CreateJobParams{
			Command:        req.Command,
			CreatedAt:      time.Now().UTC(),
			TimeoutSeconds: req.TimeoutSeconds,
			MaxAttempts:    req.MaxAttempts,
		})
		if err != nil {
			return fmt.Errorf("create job: %w", err)
		}
		created, err = jobFromRow(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListJobs returns jobs newest first, optionally filtered by status. A
// non-positive limit means no limit.
func (m *Manager) ListJobs(ctx context.Context, status string, limit int64) ([]*Job, error) {
	if limit <= 0 {
		limit = -1 // SQLite: LIMIT -1 disables the limit
	}
	rows, err := m.queries.ListJobs(ctx, database.ListJobsParams{
		Status: status,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	out := make([]*Job, 0, len(rows))
	for _, row := range rows {
		j, err := jobFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

// GetJob looks up one job by its external id.
func (m *Manager) GetJob(ctx context.Context, id string) (*Job, error) {
	pk, err := ParseJobID(id)
	if err != nil {
		return nil, err
	}
	row, err := m.queries.GetJob(ctx, pk)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return jobFromRow(row)
}

// ClaimNext transitions the smallest-id eligible queued job to running on
// behalf of nodeID and mints a fresh lease. Returns (nil, nil) when the
// queue is empty. The select, the conditional update, and the lease insert
// share one transaction, so no two claims can return the same job.
func (m *Manager) ClaimNext(ctx context.Context, nodeID string) (*Assignment, error) {
	var assignment *Assignment
	err := m.withTx(ctx, func(q *database.Queries) error {
		candidate, err := q.FindNextQueuedJob(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("find queued job: %w", err)
		}

		now := time.Now().UTC()
		affected, err := q.ClaimJob(ctx, database.ClaimJobParams{
			AssignedNodeID: sql.NullString{String: nodeID, Valid: true},
			StartedAt:      sql.NullTime{Time: now, Valid: true},
			ID:             candidate.ID,
		})
		if err != nil {
			return fmt.Errorf("claim job: %w", err)
		}
		if affected != 1 {
			// The WHERE clause repeats the claim preconditions; under the
			// writer mutex this cannot happen unless the row vanished.
			return fmt.Errorf("claim job %d: expected 1 row, updated %d", candidate.ID, affected)
		}

		token, err := newLeaseToken()
		if err != nil {
			return fmt.Errorf("mint lease token: %w", err)
		}
		if err := q.UpsertLease(ctx, database.UpsertLeaseParams{
			JobID:          candidate.ID,
			NodeID:         nodeID,
			LeaseToken:     token,
			LeaseExpiresAt: now.Add(m.leaseDuration),
		}); err != nil {
			return fmt.Errorf("insert lease: %w", err)
		}

		row, err := q.GetJob(ctx, candidate.ID)
		if err != nil {
			return fmt.Errorf("reload claimed job: %w", err)
		}
		job, err := jobFromRow(row)
		if err != nil {
			return err
		}
		assignment = &Assignment{Job: job, LeaseToken: token}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// validateLease checks the lease preconditions shared by Finish and
// AppendLogs: the job must be running with a live lease held by the caller.
func validateLease(ctx context.Context, q *database.Queries, job database.Job, nodeID, leaseToken string) error {
	if job.Status != StatusRunning {
		return errNotRunning
	}

	lease, err := q.GetLease(ctx, job.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errNoLease
		}
		return fmt.Errorf("get lease: %w", err)
	}
	if !lease.LeaseExpiresAt.After(time.Now().UTC()) {
		return errLeaseExpired
	}
	if lease.NodeID != nodeID || lease.LeaseToken != leaseToken {
		return errWrongOwner
	}
	return nil
}

// FinishRequest carries a worker's completion report for one job.
type FinishRequest struct {
	NodeID        string
	LeaseToken    string
	ExitCode      int64
	FailureReason *string
}

// Finish moves a running job to its terminal state and drops the lease. Exit
// code zero means succeeded; anything else means failed.
func (m *Manager) Finish(ctx context.Context, id string, req FinishRequest) (*Job, error) {
	pk, err := ParseJobID(id)
	if err != nil {
		return nil, err
	}

	var finished *Job
	err = m.withTx(ctx, func(q *database.Queries) error {
		job, err := q.GetJob(ctx, pk)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("get job: %w", err)
		}
		if err := validateLease(ctx, q, job, req.NodeID, req.LeaseToken); err != nil {
			return err
		}

		status := StatusFailed
		if req.ExitCode == 0 {
			status = StatusSucceeded
		}
		reason := sql.NullString{}
		if req.FailureReason != nil {
			reason = sql.NullString{String: *req.FailureReason, Valid: true}
		}
		if err := q.FinishJob(ctx, database.FinishJobParams{
			Status:        status,
			ExitCode:      sql.NullInt64{Int64: req.ExitCode, Valid: true},
			FailureReason: reason,
			FinishedAt:    sql.NullTime{Time: time.Now().UTC(), Valid: true},
			ID:            pk,
		}); err != nil {
			return fmt.Errorf("finish job: %w", err)
		}
		if err := q.DeleteLease(ctx, pk); err != nil {
			return fmt.Errorf("delete lease: %w", err)
		}

		row, err := q.GetJob(ctx, pk)
		if err != nil {
			return fmt.Errorf("reload finished job: %w", err)
		}
		finished, err = jobFromRow(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return finished, nil
}

// AppendLogs appends one log chunk under the same lease checks as Finish.
func (m *Manager) AppendLogs(ctx context.Context, id, nodeID, leaseToken, text string) error {
	pk, err := ParseJobID(id)
	if err != nil {
		return err
	}

	return m.withTx(ctx, func(q *database.Queries) error {
		job, err := q.GetJob(ctx, pk)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("get job: %w", err)
		}
		if err := validateLease(ctx, q, job, nodeID, leaseToken); err != nil {
			return err
		}
		if err := q.AppendLog(ctx, database.AppendLogParams{
			JobID:     pk,
			Text:      text,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("append log: %w", err)
		}
		return nil
	})
}

// ReadLogs concatenates a job's log chunks in insertion order. No lease is
// required to read.
func (m *Manager) ReadLogs(ctx context.Context, id string) (string, error) {
	pk, err := ParseJobID(id)
	if err != nil {
		return "", err
	}
	if _, err := m.queries.GetJob(ctx, pk); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get job: %w", err)
	}

	chunks, err := m.queries.ListLogTexts(ctx, pk)
	if err != nil {
		return "", fmt.Errorf("list logs: %w", err)
	}
	var b []byte
	for _, chunk := range chunks {
		b = append(b, chunk...)
	}
	return string(b), nil
}

// Heartbeat upserts a node registry entry. A nil name preserves the stored
// name and an empty label set preserves the stored labels; last_seen_at
// always advances.
func (m *Manager) Heartbeat(ctx context.Context, nodeID string, name *string, nodeLabels labels.Labels) (*Node, error) {
	var node *Node
	err := m.withTx(ctx, func(q *database.Queries) error {
		storedName := sql.NullString{}
		if name != nil {
			storedName = sql.NullString{String: *name, Valid: true}
		}
		storedLabels := nodeLabels

		existing, err := q.GetNode(ctx, nodeID)
		switch {
		case err == nil:
			if name == nil {
				storedName = existing.Name
			}
			if len(nodeLabels) == 0 {
				parsed, err := labels.Parse(existing.LabelsJson)
				if err != nil {
					return fmt.Errorf("decode stored labels: %w", err)
				}
				storedLabels = parsed
			}
		case errors.Is(err, sql.ErrNoRows):
			// first heartbeat for this node
		default:
			return fmt.Errorf("get node: %w", err)
		}

		encoded, err := storedLabels.Encode()
		if err != nil {
			return err
		}
		row, err := q.UpsertNode(ctx, database.UpsertNodeParams{
			NodeID:     nodeID,
			Name:       storedName,
			LabelsJson: encoded,
			LastSeenAt: time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("upsert node: %w", err)
		}
		node, err = nodeFromRow(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}
