package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/verto/internal/models"
)

// JobStore is the persistent queue of translation work. Every mutating
// operation is atomic with respect to concurrent callers: two
// simultaneous Claim calls never return the same job.
type JobStore interface {
	// Enqueue inserts jobs that are not already present and returns the
	// number actually added. Idempotent: existing IDs are skipped.
	Enqueue(ctx context.Context, jobs []*models.Job) (int, error)

	// Claim atomically selects the oldest pending job (created_at, then
	// lexicographic ID), marks it in progress for workerID, advances its
	// attempt counter and returns a copy. Returns (nil, nil) when no
	// pending job exists.
	Claim(ctx context.Context, workerID string) (*models.Job, error)

	// Complete transitions a job to completed. A duplicate call for an
	// already-completed job is a no-op, so late writes from reclaimed
	// workers are harmless.
	Complete(ctx context.Context, jobID string) error

	// Fail ends the current attempt with an error. Only the claim's
	// current owner may fail a job; a stale worker's late Fail is
	// rejected. The job returns to pending until attempts reaches the
	// store's max retries, then becomes failed.
	Fail(ctx context.Context, jobID, workerID, errMsg string) error

	// ResetStuck reverts in-progress jobs whose owning worker has not
	// heartbeated within timeout back to pending, and returns how many
	// were reverted. Jobs with a fresh heartbeat are left untouched.
	ResetStuck(ctx context.Context, timeout time.Duration) (int, error)

	// Heartbeat upserts the liveness record for a worker.
	Heartbeat(ctx context.Context, workerID string, jobsCompleted int) error

	Get(ctx context.Context, jobID string) (*models.Job, error)
	ListByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error)
	Stats(ctx context.Context) (*models.QueueStats, error)
}

// ArtifactStore persists translated artifacts and their QA results.
type ArtifactStore interface {
	// SaveArtifact upserts an artifact keyed by job ID (idempotent
	// overwrite; the last successful completion wins).
	SaveArtifact(ctx context.Context, artifact *models.Artifact) error

	GetArtifact(ctx context.Context, jobID string) (*models.Artifact, error)
	ListArtifacts(ctx context.Context) ([]*models.Artifact, error)

	// PassedArtifacts returns only artifacts whose QA status is pass;
	// this is the publication boundary consumed by the renderer.
	PassedArtifacts(ctx context.Context) ([]*models.Artifact, error)
}

// RecordStore persists harvested records accepted by the harvest gate.
type RecordStore interface {
	SaveRecords(ctx context.Context, records []*models.Record) (int, error)
	GetRecord(ctx context.Context, id string) (*models.Record, error)
	ListRecords(ctx context.Context) ([]*models.Record, error)
}

// StorageManager bundles the stores backed by one database handle.
type StorageManager interface {
	Jobs() JobStore
	Artifacts() ArtifactStore
	Records() RecordStore
	Close() error
}
