package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/deborgen/deborgen/internal/database"
	"github.com/deborgen/deborgen/internal/labels"
)

// Job statuses. A job is created queued, moves to running on a successful
// claim, and ends in exactly one of the two terminal states.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// IsValidStatus reports whether s names a job status.
func IsValidStatus(s string) bool {
	switch s {
	case StatusQueued, StatusRunning, StatusSucceeded, StatusFailed:
		return true
	}
	return false
}

// IsTerminalStatus reports whether s is a terminal status.
func IsTerminalStatus(s string) bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Job is the external view of one job record. Nullable fields marshal as
// JSON null when absent.
type Job struct {
	ID             string     `json:"id"`
	Status         string     `json:"status"`
	Command        string     `json:"command"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at"`
	AssignedNodeID *string    `json:"assigned_node_id"`
	TimeoutSeconds int64      `json:"timeout_seconds"`
	Attempts       int64      `json:"attempts"`
	MaxAttempts    int64      `json:"max_attempts"`
	ExitCode       *int64     `json:"exit_code"`
	FailureReason  *string    `json:"failure_reason"`
	ArtifactURLs   []string   `json:"artifact_urls"`
}

// Assignment pairs a freshly claimed job with its lease token.
type Assignment struct {
	Job        *Job   `json:"job"`
	LeaseToken string `json:"lease_token"`
}

// Node is the external view of one heartbeat registry entry.
type Node struct {
	NodeID     string        `json:"node_id"`
	Name       *string       `json:"name"`
	Labels     labels.Labels `json:"labels"`
	LastSeenAt time.Time     `json:"last_seen_at"`
}

func jobFromRow(row database.Job) (*Job, error) {
	var urls []string
	if err := json.Unmarshal([]byte(row.ArtifactUrls), &urls); err != nil {
		return nil, fmt.Errorf("decode artifact_urls for job %d: %w", row.ID, err)
	}
	if urls == nil {
		urls = []string{}
	}

	j := &Job{
		ID:             FormatJobID(row.ID),
		Status:         row.Status,
		Command:        row.Command,
		CreatedAt:      row.CreatedAt.UTC(),
		TimeoutSeconds: row.TimeoutSeconds,
		Attempts:       row.Attempts,
		MaxAttempts:    row.MaxAttempts,
		ArtifactURLs:   urls,
	}
	if row.StartedAt.Valid {
		t := row.StartedAt.Time.UTC()
		j.StartedAt = &t
	}
	if row.FinishedAt.Valid {
		t := row.FinishedAt.Time.UTC()
		j.FinishedAt = &t
	}
	if row.AssignedNodeID.Valid {
		s := row.AssignedNodeID.String
		j.AssignedNodeID = &s
	}
	if row.ExitCode.Valid {
		c := row.ExitCode.Int64
		j.ExitCode = &c
	}
	if row.FailureReason.Valid {
		r := row.FailureReason.String
		j.FailureReason = &r
	}
	return j, nil
}

func nodeFromRow(row database.Node) (*Node, error) {
	parsed, err := labels.Parse(row.LabelsJson)
	if err != nil {
		return nil, fmt.Errorf("decode labels for node %s: %w", row.NodeID, err)
	}

	n := &Node{
		NodeID:     row.NodeID,
		Labels:     parsed,
		LastSeenAt: row.LastSeenAt.UTC(),
	}
	if row.Name.Valid {
		s := row.Name.String
		n.Name = &s
	}
	return n, nil
}
