// Package client is the HTTP client for the coordinator API, shared by the
// worker agent and the command-line tools.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/deborgen/deborgen/internal/labels"
)

// APIError represents a non-2xx response from the coordinator.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Detail)
}

// ErrUnauthorized is returned when the coordinator responds 401. Callers
// should stop rather than retry: the token is missing or wrong.
var ErrUnauthorized = errors.New("unauthorized: bearer token required or invalid")

// Client is an HTTP client for the coordinator API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// New constructs a Client for the given coordinator base URL. An empty token
// sends unauthenticated requests.
func New(baseURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

// Job mirrors the coordinator's job resource.
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

// Assignment is the claim response: the job plus its lease token.
type Assignment struct {
	Job        Job    `json:"job"`
	LeaseToken string `json:"lease_token"`
}

// Node mirrors the coordinator's node registry entry.
type Node struct {
	NodeID     string        `json:"node_id"`
	Name       *string       `json:"name"`
	Labels     labels.Labels `json:"labels"`
	LastSeenAt time.Time     `json:"last_seen_at"`
}

// do performs one request, marshaling reqBody (if not nil) and unmarshaling
// the response into respBody (if not nil). Non-2xx responses map to
// ErrUnauthorized or *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, reqBody, respBody any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(respBytes)}
	}

	if respBody != nil && len(respBytes) > 0 {
		if err := json.Unmarshal(respBytes, respBody); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// errorDetail extracts the detail string from an error envelope, falling
// back to the raw body.
func errorDetail(body []byte) string {
	var envelope struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Detail != "" {
		return envelope.Detail
	}
	return strings.TrimSpace(string(body))
}

// CreateJobRequest carries the fields for job submission.
type CreateJobRequest struct {
	Command        string `json:"command"`
	TimeoutSeconds int64  `json:"timeout_seconds"`
	MaxAttempts    int64  `json:"max_attempts"`
}

// CreateJob submits a new job.
func (c *Client) CreateJob(ctx context.Context, req CreateJobRequest) (*Job, error) {
	var job Job
	if err := c.do(ctx, http.MethodPost, "/jobs", nil, req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs lists jobs newest first. Empty status means no filter; limit <= 0
// omits the limit parameter.
func (c *Client) ListJobs(ctx context.Context, status string, limit int64) ([]Job, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	if limit > 0 {
		query.Set("limit", strconv.FormatInt(limit, 10))
	}
	var out struct {
		Jobs []Job `json:"jobs"`
	}
	if err := c.do(ctx, http.MethodGet, "/jobs", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// GetJob fetches one job by external id.
func (c *Client) GetJob(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := c.do(ctx, http.MethodGet, "/jobs/"+jobID, nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// NextJob asks the coordinator to claim the next queued job for nodeID.
// Returns (nil, nil) when the queue is empty.
func (c *Client) NextJob(ctx context.Context, nodeID string) (*Assignment, error) {
	query := url.Values{}
	query.Set("node_id", nodeID)

	u := c.baseURL + "/jobs/next?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(respBytes)}
	}

	var assignment Assignment
	if err := json.Unmarshal(respBytes, &assignment); err != nil {
		return nil, fmt.Errorf("unmarshal assignment: %w", err)
	}
	return &assignment, nil
}

// FinishJobRequest is a worker's completion report.
type FinishJobRequest struct {
	NodeID        string  `json:"node_id"`
	LeaseToken    string  `json:"lease_token"`
	ExitCode      int64   `json:"exit_code"`
	FailureReason *string `json:"failure_reason"`
}

// FinishJob reports a job's terminal result under its lease.
func (c *Client) FinishJob(ctx context.Context, jobID string, req FinishJobRequest) (*Job, error) {
	var job Job
	if err := c.do(ctx, http.MethodPost, "/jobs/"+jobID+"/finish", nil, req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// AppendLogs uploads one chunk of captured output under the job's lease.
func (c *Client) AppendLogs(ctx context.Context, jobID, nodeID, leaseToken, text string) error {
	body := map[string]string{
		"node_id":     nodeID,
		"lease_token": leaseToken,
		"text":        text,
	}
	return c.do(ctx, http.MethodPost, "/jobs/"+jobID+"/logs", nil, body, nil)
}

// ReadLogs fetches the concatenated log text for a job.
func (c *Client) ReadLogs(ctx context.Context, jobID string) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	if err := c.do(ctx, http.MethodGet, "/jobs/"+jobID+"/logs", nil, nil, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// Heartbeat upserts the node registry entry for nodeID.
func (c *Client) Heartbeat(ctx context.Context, nodeID string, name *string, nodeLabels labels.Labels) (*Node, error) {
	body := struct {
		Name   *string       `json:"name"`
		Labels labels.Labels `json:"labels"`
	}{Name: name, Labels: nodeLabels}

	var node Node
	if err := c.do(ctx, http.MethodPost, "/nodes/"+nodeID+"/heartbeat", nil, body, &node); err != nil {
		return nil, err
	}
	return &node, nil
}
