package badger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/interfaces"
	"github.com/ternarybob/verto/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// JobStorage implements the JobStore interface on badgerhold.
//
// There is exactly one logical store instance per database, so a
// store-scoped mutex around each state transition is sufficient to make
// claim/complete/fail atomic with respect to each other; no
// distributed coordination is needed. Two concurrent Claim calls can
// therefore never observe the same pending job.
type JobStorage struct {
	db         *BadgerDB
	logger     arbor.ILogger
	maxRetries int

	mu sync.Mutex
}

// NewJobStorage creates a new JobStorage instance
func NewJobStorage(db *BadgerDB, maxRetries int, logger arbor.ILogger) interfaces.JobStore {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &JobStorage{
		db:         db,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// Enqueue inserts jobs that are not already present. Insert fails with
// ErrKeyExists for duplicates, which keeps the operation idempotent:
// re-enqueueing a batch never creates a second row or resets state.
func (s *JobStorage) Enqueue(ctx context.Context, jobs []*models.Job) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, job := range jobs {
		if job.ID == "" {
			return added, fmt.Errorf("job ID is required")
		}
		err := s.db.Store().Insert(job.ID, job)
		if err == badgerhold.ErrKeyExists {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("failed to enqueue job %s: %w", job.ID, err)
		}
		added++
	}

	s.logger.Debug().
		Int("requested", len(jobs)).
		Int("added", added).
		Msg("Jobs enqueued")

	return added, nil
}

// Claim atomically selects the oldest pending job (FIFO by CreatedAt,
// tie-break lexicographic ID), transitions it to in progress and
// returns a copy. Returns (nil, nil) when the queue has no pending job.
func (s *JobStorage) Claim(ctx context.Context, workerID string) (*models.Job, error) {
	if workerID == "" {
		return nil, fmt.Errorf("worker ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []models.Job
	query := badgerhold.Where("Status").Eq(models.JobStatusPending).
		SortBy("CreatedAt", "ID").
		Limit(1)
	if err := s.db.Store().Find(&pending, query); err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	// An attempt is one claim that runs to completion or failure. The
	// counter advances here; a claim revoked by ResetStuck gives it back.
	job := pending[0]
	now := time.Now().UTC()
	job.Status = models.JobStatusInProgress
	job.WorkerID = workerID
	job.StartedAt = &now
	job.Attempts++

	if err := s.db.Store().Update(job.ID, &job); err != nil {
		return nil, fmt.Errorf("failed to claim job %s: %w", job.ID, err)
	}

	claimed := job
	return &claimed, nil
}

// Complete transitions a job to completed and stamps CompletedAt.
// Completed is terminal: a duplicate call is a no-op, so a reclaimed
// worker finishing late cannot corrupt the newer attempt's result.
func (s *JobStorage) Complete(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var job models.Job
	if err := s.db.Store().Get(jobID, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("job not found: %s", jobID)
		}
		return fmt.Errorf("failed to get job %s: %w", jobID, err)
	}

	if job.Status == models.JobStatusCompleted {
		return nil
	}

	now := time.Now().UTC()
	job.Status = models.JobStatusCompleted
	job.CompletedAt = &now
	job.LastError = ""

	if err := s.db.Store().Update(job.ID, &job); err != nil {
		return fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}
	return nil
}

// Fail ends the current attempt. Below the retry budget the job
// returns to pending, eligible for re-claim by any worker; at the
// budget it becomes failed, keeping the last error for the audit trail.
// Only the claim's current owner may fail it: a late Fail from a
// worker whose claim was revoked, or whose job was since reclaimed, is
// rejected rather than knocking the live claim back to pending.
func (s *JobStorage) Fail(ctx context.Context, jobID, workerID, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var job models.Job
	if err := s.db.Store().Get(jobID, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("job not found: %s", jobID)
		}
		return fmt.Errorf("failed to get job %s: %w", jobID, err)
	}

	if job.Status == models.JobStatusCompleted {
		return fmt.Errorf("job already completed: %s", jobID)
	}
	if job.Status != models.JobStatusInProgress {
		return fmt.Errorf("job %s is not in progress (status %s)", jobID, job.Status)
	}
	if job.WorkerID != workerID {
		return fmt.Errorf("job %s is owned by worker %s, not %s", jobID, job.WorkerID, workerID)
	}

	job.LastError = errMsg
	job.WorkerID = ""
	job.StartedAt = nil

	if job.Attempts >= s.maxRetries {
		now := time.Now().UTC()
		job.Status = models.JobStatusFailed
		job.CompletedAt = &now
	} else {
		job.Status = models.JobStatusPending
	}

	if err := s.db.Store().Update(job.ID, &job); err != nil {
		return fmt.Errorf("failed to record job failure %s: %w", jobID, err)
	}

	s.logger.Debug().
		Str("job_id", jobID).
		Int("attempts", job.Attempts).
		Str("status", string(job.Status)).
		Msg("Job failure recorded")

	return nil
}

// ResetStuck reverts in-progress jobs whose owning worker has stopped
// heartbeating. A job owned by an actively heartbeating worker is never
// touched, however long it has been running: heartbeats are the sole
// liveness signal, independent of job progress.
func (s *JobStorage) ResetStuck(ctx context.Context, timeout time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var running []models.Job
	if err := s.db.Store().Find(&running, badgerhold.Where("Status").Eq(models.JobStatusInProgress)); err != nil {
		return 0, fmt.Errorf("failed to query in-progress jobs: %w", err)
	}

	cutoff := time.Now().UTC().Add(-timeout)
	reverted := 0
	for _, job := range running {
		var hb models.WorkerHeartbeat
		err := s.db.Store().Get(job.WorkerID, &hb)
		if err == nil && hb.LastSeen.After(cutoff) {
			continue // Owner is alive
		}
		if err != nil && err != badgerhold.ErrNotFound {
			return reverted, fmt.Errorf("failed to read heartbeat for %s: %w", job.WorkerID, err)
		}

		s.logger.Warn().
			Str("job_id", job.ID).
			Str("worker_id", job.WorkerID).
			Msg("Reclaiming job from stale worker")

		// The revoked claim did not run to a recorded failure, so the
		// attempt it consumed is returned.
		job.Status = models.JobStatusPending
		job.WorkerID = ""
		job.StartedAt = nil
		if job.Attempts > 0 {
			job.Attempts--
		}
		if err := s.db.Store().Update(job.ID, &job); err != nil {
			return reverted, fmt.Errorf("failed to revert job %s: %w", job.ID, err)
		}
		reverted++
	}

	return reverted, nil
}

// Heartbeat upserts the liveness record for a worker.
func (s *JobStorage) Heartbeat(ctx context.Context, workerID string, jobsCompleted int) error {
	if workerID == "" {
		return fmt.Errorf("worker ID is required")
	}
	hb := models.WorkerHeartbeat{
		WorkerID:      workerID,
		LastSeen:      time.Now().UTC(),
		JobsCompleted: jobsCompleted,
	}
	if err := s.db.Store().Upsert(workerID, &hb); err != nil {
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}
	return nil
}

// Get returns a copy of the job with the given ID.
func (s *JobStorage) Get(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := s.db.Store().Get(jobID, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("job not found: %s", jobID)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ListByStatus returns all jobs with the given status.
func (s *JobStorage) ListByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	var jobs []models.Job
	if err := s.db.Store().Find(&jobs, badgerhold.Where("Status").Eq(status).SortBy("CreatedAt", "ID")); err != nil {
		return nil, fmt.Errorf("failed to list jobs by status: %w", err)
	}
	result := make([]*models.Job, len(jobs))
	for i := range jobs {
		result[i] = &jobs[i]
	}
	return result, nil
}

// Stats returns job counts per status.
func (s *JobStorage) Stats(ctx context.Context) (*models.QueueStats, error) {
	stats := &models.QueueStats{}
	for status, target := range map[models.JobStatus]*int{
		models.JobStatusPending:    &stats.Pending,
		models.JobStatusInProgress: &stats.InProgress,
		models.JobStatusCompleted:  &stats.Completed,
		models.JobStatusFailed:     &stats.Failed,
	} {
		count, err := s.db.Store().Count(&models.Job{}, badgerhold.Where("Status").Eq(status))
		if err != nil {
			return nil, fmt.Errorf("failed to count %s jobs: %w", status, err)
		}
		*target = int(count)
	}
	stats.Total = stats.Pending + stats.InProgress + stats.Completed + stats.Failed
	return stats, nil
}
