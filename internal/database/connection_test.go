package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := InitDB(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("failed to init database: %v", err)
	}
	t.Cleanup(func() {
		if err := CloseDB(db); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return db
}

func TestInitDBCreatesSchema(t *testing.T) {
	db := newTestDB(t)

	for _, table := range []string{"jobs", "leases", "logs", "nodes"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %q to exist: %v", table, err)
		}
	}
}

func TestInitDBIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	db, err := InitDB(ctx, dbPath)
	if err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := CloseDB(db); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// Reopening an existing database must not re-run applied migrations.
	db, err = InitDB(ctx, dbPath)
	if err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	if err := CloseDB(db); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestQueriesJobRoundTrip(t *testing.T) {
	db := newTestDB(t)
	q := NewQueries(db)
	ctx := context.Background()

	created, err := q.CreateJob(ctx, CreateJobParams{
		Command:        "echo hi",
		CreatedAt:      time.Now().UTC(),
		TimeoutSeconds: 60,
		MaxAttempts:    1,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Status != "queued" {
		t.Fatalf("expected queued, got %q", created.Status)
	}
	if created.ArtifactUrls != "[]" {
		t.Fatalf("expected empty artifact list, got %q", created.ArtifactUrls)
	}

	got, err := q.GetJob(ctx, created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Command != "echo hi" {
		t.Fatalf("unexpected command: %q", got.Command)
	}
}

func TestLeaseCascadesWithJob(t *testing.T) {
	db := newTestDB(t)
	q := NewQueries(db)
	ctx := context.Background()

	job, err := q.CreateJob(ctx, CreateJobParams{
		Command:        "echo hi",
		CreatedAt:      time.Now().UTC(),
		TimeoutSeconds: 60,
		MaxAttempts:    1,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := q.UpsertLease(ctx, UpsertLeaseParams{
		JobID:          job.ID,
		NodeID:         "node-a",
		LeaseToken:     "tok",
		LeaseExpiresAt: time.Now().UTC().Add(time.Minute),
	}); err != nil {
		t.Fatalf("upsert lease failed: %v", err)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", job.ID); err != nil {
		t.Fatalf("delete job failed: %v", err)
	}
	if _, err := q.GetLease(ctx, job.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected lease to cascade with its job, got %v", err)
	}
}
