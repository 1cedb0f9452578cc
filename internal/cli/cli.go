// Package cli holds the pieces shared by the client command-line tools:
// example job definitions, job watching, and output formatting.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/deborgen/deborgen/internal/client"
)

// ExampleCommands maps example names to the commands the coordinator hands
// to workers. The workloads live under examples/ in this repository.
var ExampleCommands = map[string]string{
	"hello":  "go run ./examples/hello",
	"primes": "go run ./examples/count-primes",
	"pi":     "go run ./examples/monte-carlo-pi",
}

// ExampleNames returns the known example names in sorted order.
func ExampleNames() []string {
	names := make([]string, 0, len(ExampleCommands))
	for name := range ExampleCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SubmitExample submits one named example job and returns its id.
func SubmitExample(ctx context.Context, c *client.Client, example string, timeoutSeconds, maxAttempts int64) (string, error) {
	command, ok := ExampleCommands[example]
	if !ok {
		return "", fmt.Errorf("unknown example %q (choose from %s)", example, strings.Join(ExampleNames(), ", "))
	}
	job, err := c.CreateJob(ctx, client.CreateJobRequest{
		Command:        command,
		TimeoutSeconds: timeoutSeconds,
		MaxAttempts:    maxAttempts,
	})
	if err != nil {
		return "", fmt.Errorf("submit example %q: %w", example, err)
	}
	return job.ID, nil
}

// FormatJobSummary renders the one-line job summary shared by list-jobs,
// get-job, and watch-job.
func FormatJobSummary(job *client.Job) string {
	node := "unassigned"
	if job.AssignedNodeID != nil {
		node = *job.AssignedNodeID
	}
	exitCode := "<nil>"
	if job.ExitCode != nil {
		exitCode = fmt.Sprintf("%d", *job.ExitCode)
	}
	return fmt.Sprintf("job=%s status=%s node=%s exit_code=%s", job.ID, job.Status, node, exitCode)
}

// ErrWatchTimeout is returned when a watched job does not reach a terminal
// state before the deadline.
var ErrWatchTimeout = errors.New("timed out waiting for job")

// WatchJob polls a job until it reaches a terminal state or timeout elapses,
// printing a summary line per poll. When includeLogs is set, the job's logs
// are printed after completion.
func WatchJob(ctx context.Context, c *client.Client, out io.Writer, jobID string, pollInterval, timeout time.Duration, includeLogs bool) error {
	deadline := time.Now().Add(timeout)
	for {
		job, err := c.GetJob(ctx, jobID)
		if err != nil {
			return fmt.Errorf("watch %s: %w", jobID, err)
		}
		fmt.Fprintln(out, FormatJobSummary(job))

		if job.Status == "succeeded" || job.Status == "failed" {
			if !includeLogs {
				return nil
			}
			logs, err := c.ReadLogs(ctx, jobID)
			if err != nil {
				return fmt.Errorf("fetch logs for %s: %w", jobID, err)
			}
			if logs != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "logs:")
				fmt.Fprint(out, logs)
				if !strings.HasSuffix(logs, "\n") {
					fmt.Fprintln(out)
				}
			}
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", ErrWatchTimeout, jobID)
		}

		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
