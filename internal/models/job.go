package models

import (
	"time"
)

// JobStatus represents the lifecycle state of a translation job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job is one unit of translation work, keyed by the source document
// identifier. Jobs are only ever mutated through the job store's
// claim/complete/fail operations and are never deleted, preserving an
// audit trail of the whole batch.
//
// Legal transitions:
//
//	pending -> in_progress -> completed
//	pending -> in_progress -> pending (retry)
//	pending -> in_progress -> failed (attempts exhausted)
type Job struct {
	ID          string     `badgerhold:"key" json:"id"`
	Status      JobStatus  `badgerholdIndex:"Status" json:"status"`
	WorkerID    string     `json:"worker_id,omitempty"`
	Attempts    int        `json:"attempts"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewJob creates a pending job for the given source document ID.
// Job IDs are deterministic (derived from the record), not random, so
// enqueueing the same record twice yields the same job row.
func NewJob(id string) *Job {
	return &Job{
		ID:        id,
		Status:    JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// QueueStats summarizes job counts per status.
type QueueStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// WorkerHeartbeat is the liveness record a worker writes on a fixed
// interval, independent of job progress. Stuck-job detection compares
// LastSeen against the configured timeout.
type WorkerHeartbeat struct {
	WorkerID      string    `badgerhold:"key" json:"worker_id"`
	LastSeen      time.Time `json:"last_seen"`
	JobsCompleted int       `json:"jobs_completed"`
}
