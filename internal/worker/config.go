package worker

import (
	"fmt"
	"net/url"
	"time"

	"github.com/deborgen/deborgen/internal/labels"
)

// Config holds worker agent configuration.
type Config struct {
	// Coordinator is the coordinator base URL.
	Coordinator string

	// NodeID identifies this worker to the coordinator. Claims, leases, and
	// heartbeats all carry it.
	NodeID string

	// Name is an optional human-readable node name sent on heartbeats.
	Name string

	// Labels are advertised on every heartbeat.
	Labels labels.Labels

	// Token is the bearer token; empty disables authentication.
	Token string

	// PollInterval is how long to sleep when the queue is empty.
	PollInterval time.Duration

	// HeartbeatInterval is the heartbeat cadence, measured on the monotonic
	// clock. During job execution the loop is blocked, so this should stay
	// below typical job timeouts.
	HeartbeatInterval time.Duration

	// WorkDir, if set, is the working directory for executed commands.
	WorkDir string

	// RetryMinDelay and RetryMaxDelay bound the backoff applied after
	// transport errors.
	RetryMinDelay time.Duration
	RetryMaxDelay time.Duration
}

// Validate checks required fields and applies defaults.
func (c *Config) Validate() error {
	if c.Coordinator == "" {
		return fmt.Errorf("coordinator URL is required")
	}
	u, err := url.Parse(c.Coordinator)
	if err != nil {
		return fmt.Errorf("invalid coordinator URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("coordinator URL must be http or https")
	}
	if c.NodeID == "" {
		return fmt.Errorf("node id is required")
	}

	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 15 * time.Second
	}
	if c.RetryMinDelay <= 0 {
		c.RetryMinDelay = 1 * time.Second
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 30 * time.Second
	}
	return nil
}
