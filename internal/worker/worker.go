// Package worker implements the worker agent: a blocking loop that
// heartbeats on a wall-clock cadence, polls the coordinator for work,
// executes one command at a time, and reports results under the job's
// lease.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/deborgen/deborgen/internal/client"
)

// Agent is one worker process's agent loop. It keeps at most one job in
// flight; while a job executes, the loop neither heartbeats nor polls.
type Agent struct {
	cfg    *Config
	client *client.Client
}

// New constructs an Agent from a validated Config.
func New(cfg *Config) *Agent {
	return &Agent{
		cfg:    cfg,
		client: client.New(cfg.Coordinator, cfg.Token),
	}
}

// Run starts the main loop. It returns when ctx is cancelled or the
// coordinator rejects the agent's credentials.
func (a *Agent) Run(ctx context.Context) error {
	log.Printf("worker: starting node_id=%s coordinator=%s", a.cfg.NodeID, a.cfg.Coordinator)
	backoff := NewBackoff(a.cfg.RetryMinDelay, a.cfg.RetryMaxDelay)

	var nextHeartbeat time.Time // zero value: first heartbeat is immediately due
	for {
		select {
		case <-ctx.Done():
			log.Println("worker: context cancelled, shutting down")
			return fmt.Errorf("worker: %w", ctx.Err())
		default:
		}

		// Heartbeat if due. Failures are logged and the deadline advances
		// regardless, so a flaky coordinator cannot starve polling.
		if now := time.Now(); !now.Before(nextHeartbeat) {
			a.heartbeat(ctx)
			nextHeartbeat = now.Add(a.cfg.HeartbeatInterval)
		}

		assignment, err := a.client.NextJob(ctx, a.cfg.NodeID)
		if err != nil {
			if errors.Is(err, client.ErrUnauthorized) {
				return fmt.Errorf("worker: poll failed: %w", err)
			}
			delay := backoff.Next()
			log.Printf("worker: poll failed: %v; waiting %v", err, delay)
			if !sleep(ctx, delay) {
				return fmt.Errorf("worker: %w", ctx.Err())
			}
			continue
		}
		backoff.Reset()

		if assignment == nil {
			if !sleep(ctx, a.cfg.PollInterval) {
				return fmt.Errorf("worker: %w", ctx.Err())
			}
			continue
		}

		a.process(ctx, assignment)
	}
}

// process executes one assignment and reports the outcome. Log upload is
// best-effort; a failed finish is logged and abandoned, leaving the
// coordinator to observe the lease expiry instead.
func (a *Agent) process(ctx context.Context, assignment *client.Assignment) {
	job := assignment.Job
	log.Printf("worker: running %s: %s", job.ID, job.Command)

	timeout := time.Duration(job.TimeoutSeconds) * time.Second
	result := RunJob(ctx, job.Command, timeout, a.cfg.WorkDir)

	if result.Output != "" {
		if err := a.client.AppendLogs(ctx, job.ID, a.cfg.NodeID, assignment.LeaseToken, result.Output); err != nil {
			log.Printf("worker: log upload failed for %s: %v", job.ID, err)
		}
	}

	var reason *string
	if result.FailureReason != "" {
		reason = &result.FailureReason
	}
	_, err := a.client.FinishJob(ctx, job.ID, client.FinishJobRequest{
		NodeID:        a.cfg.NodeID,
		LeaseToken:    assignment.LeaseToken,
		ExitCode:      result.ExitCode,
		FailureReason: reason,
	})
	if err != nil {
		log.Printf("worker: finish failed for %s: %v", job.ID, err)
		return
	}
	log.Printf("worker: finished %s exit_code=%d", job.ID, result.ExitCode)
}

func (a *Agent) heartbeat(ctx context.Context) {
	var name *string
	if a.cfg.Name != "" {
		name = &a.cfg.Name
	}
	if _, err := a.client.Heartbeat(ctx, a.cfg.NodeID, name, a.cfg.Labels); err != nil {
		log.Printf("worker: heartbeat failed: %v", err)
	}
}

// sleep waits for d or until ctx is cancelled, reporting whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
