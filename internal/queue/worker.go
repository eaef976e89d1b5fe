package queue

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/common"
	"github.com/ternarybob/verto/internal/interfaces"
	"github.com/ternarybob/verto/internal/models"
	"github.com/ternarybob/verto/internal/qa"
	"github.com/ternarybob/verto/internal/services/translator"
)

// Worker is one member of the fleet: claim a job, translate it, run
// the quality filter, persist the artifact and complete or fail the
// job. Workers coordinate only through the shared job store; there is
// no worker-to-worker messaging.
type Worker struct {
	id         string
	jobs       interfaces.JobStore
	artifacts  interfaces.ArtifactStore
	records    interfaces.RecordStore
	translator interfaces.Translator
	filter     *qa.Filter
	policy     *translator.RetryPolicy
	audit      *translator.AuditLogger
	logger     arbor.ILogger

	glossary       map[string]string
	targetLanguage string

	heartbeatInterval time.Duration
	idleBackoff       time.Duration
	idleExitThreshold int

	jobsCompleted atomic.Int64
}

// WorkerDeps bundles the shared collaborators a worker needs.
type WorkerDeps struct {
	Storage    interfaces.StorageManager
	Translator interfaces.Translator
	Filter     *qa.Filter
	Policy     *translator.RetryPolicy
	Audit      *translator.AuditLogger
	Logger     arbor.ILogger
	Glossary   map[string]string
}

// NewWorker creates a worker with a fresh ID.
func NewWorker(cfg *common.Config, deps *WorkerDeps) (*Worker, error) {
	return &Worker{
		id:                common.NewWorkerID(),
		jobs:              deps.Storage.Jobs(),
		artifacts:         deps.Storage.Artifacts(),
		records:           deps.Storage.Records(),
		translator:        deps.Translator,
		filter:            deps.Filter,
		policy:            deps.Policy,
		audit:             deps.Audit,
		logger:            deps.Logger,
		glossary:          deps.Glossary,
		targetLanguage:    cfg.Pipeline.TargetLanguage,
		heartbeatInterval: cfg.Worker.HeartbeatIntervalDuration(),
		idleBackoff:       cfg.Worker.IdleBackoffDuration(),
		idleExitThreshold: cfg.Worker.IdleExitThreshold,
	}, nil
}

// ID returns the worker's identity as recorded on claimed jobs.
func (w *Worker) ID() string {
	return w.id
}

// JobsCompleted returns the number of jobs this worker has completed.
func (w *Worker) JobsCompleted() int {
	return int(w.jobsCompleted.Load())
}

// Run executes the claim loop until the context is cancelled or the
// queue stays empty past the idle-exit threshold. Heartbeats run on
// their own ticker so a slow translation never reads as a crash.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Str("worker_id", w.id).Msg("Worker starting")

	hbCtx, stopHeartbeat := context.WithCancel(context.WithoutCancel(ctx))
	defer stopHeartbeat()
	go w.heartbeatLoop(hbCtx)

	// First heartbeat before claiming, so a job claimed immediately
	// after startup is never considered orphaned.
	if err := w.jobs.Heartbeat(ctx, w.id, 0); err != nil {
		return fmt.Errorf("initial heartbeat failed: %w", err)
	}

	idle := 0
	for {
		if ctx.Err() != nil {
			w.logger.Info().Str("worker_id", w.id).Msg("Worker stopping on cancellation")
			return nil
		}

		job, err := w.jobs.Claim(ctx, w.id)
		if err != nil {
			w.logger.Warn().Err(err).Str("worker_id", w.id).Msg("Claim failed")
			if !sleepCtx(ctx, w.idleBackoff) {
				return nil
			}
			continue
		}

		if job == nil {
			idle++
			if idle >= w.idleExitThreshold {
				w.logger.Info().
					Str("worker_id", w.id).
					Int("jobs_completed", w.JobsCompleted()).
					Msg("Queue drained, worker exiting")
				return nil
			}
			if !sleepCtx(ctx, w.idleBackoff) {
				return nil
			}
			continue
		}

		idle = 0
		w.process(ctx, job)
	}
}

// process runs one claimed job end to end on a context detached from
// the shutdown signal. A claimed job is finished, never abandoned: on
// cancellation the claim loop stops, but the in-flight translation and
// its persists run to completion or a recorded failure. Without the
// detach, a shutdown mid-call would surface as a cancelled call,
// record a Fail, and burn an attempt the worker never really made.
func (w *Worker) process(ctx context.Context, job *models.Job) {
	w.logger.Info().
		Str("worker_id", w.id).
		Str("job_id", job.ID).
		Int("attempts", job.Attempts).
		Msg("Processing job")

	jobCtx := context.WithoutCancel(ctx)

	artifact, err := w.translateJob(jobCtx, job)
	if err != nil {
		w.logger.Warn().
			Err(err).
			Str("worker_id", w.id).
			Str("job_id", job.ID).
			Str("error_kind", string(translator.Classify(err))).
			Msg("Job failed")
		if failErr := w.jobs.Fail(jobCtx, job.ID, w.id, err.Error()); failErr != nil {
			w.logger.Error().Err(failErr).Str("job_id", job.ID).Msg("Failed to record job failure")
		}
		return
	}

	if err := w.artifacts.SaveArtifact(jobCtx, artifact); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist artifact")
		if failErr := w.jobs.Fail(jobCtx, job.ID, w.id, "persist failed: "+err.Error()); failErr != nil {
			w.logger.Error().Err(failErr).Str("job_id", job.ID).Msg("Failed to record job failure")
		}
		return
	}

	if err := w.jobs.Complete(jobCtx, job.ID); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to complete job")
		return
	}

	w.jobsCompleted.Add(1)
	w.logger.Info().
		Str("worker_id", w.id).
		Str("job_id", job.ID).
		Str("qa_status", string(artifact.QAStatus)).
		Float64("cost_usd", artifact.Cost).
		Msg("Job completed")
}

// translateJob produces the artifact for a job: translate both fields,
// quality-check, and if the filter asks for it, one targeted
// re-translation keeping whichever result scores better.
func (w *Worker) translateJob(ctx context.Context, job *models.Job) (*models.Artifact, error) {
	recordID := common.RecordIDForJob(job.ID)
	record, err := w.records.GetRecord(ctx, recordID)
	if err != nil {
		return nil, translator.NewCallError(translator.ErrorKindInvalidInput,
			fmt.Errorf("record %s not found for job: %w", recordID, err))
	}

	artifact, result, err := w.translateOnce(ctx, job, record, "")
	if err != nil {
		return nil, err
	}

	if result.RetryEligible {
		w.logger.Info().
			Str("job_id", job.ID).
			Int("residue_count", result.ResidueCount).
			Msg("Light purity flag, attempting one targeted retry")

		retryArtifact, retryResult, retryErr := w.translateOnce(ctx, job, record, translator.RetryInstruction)
		if retryErr != nil {
			w.logger.Warn().Err(retryErr).Str("job_id", job.ID).Msg("Targeted retry failed, keeping first result")
		} else if retryResult.Better(result) {
			artifact, result = retryArtifact, retryResult
		}
	}

	result.RetryEligible = false // decision is spent either way
	result.CheckedAt = time.Now()
	artifact.QA = result
	artifact.QAStatus = result.Status
	return artifact, nil
}

// translateOnce performs one full translation pass over the record's
// fields and runs the quality filter on the output.
func (w *Worker) translateOnce(ctx context.Context, job *models.Job, record *models.Record, instruction string) (*models.Artifact, *models.QAResult, error) {
	title, err := w.callTranslator(ctx, job.ID, record.Title, instruction)
	if err != nil {
		return nil, nil, err
	}

	abstract, err := w.callTranslator(ctx, job.ID, record.Abstract, instruction)
	if err != nil {
		return nil, nil, err
	}

	artifact := &models.Artifact{
		JobID:              job.ID,
		RecordID:           record.ID,
		Title:              record.Title,
		Abstract:           record.Abstract,
		TitleTranslated:    title.Text,
		AbstractTranslated: abstract.Text,
		Provider:           title.Provider,
		Model:              title.Model,
		InputTokens:        title.InputTokens + abstract.InputTokens,
		OutputTokens:       title.OutputTokens + abstract.OutputTokens,
		Cost:               title.Cost + abstract.Cost,
		WorkerID:           w.id,
		UpdatedAt:          time.Now(),
	}

	result := w.filter.Check(&qa.Input{
		JobID:              job.ID,
		SourceTitle:        record.Title,
		SourceAbstract:     record.Abstract,
		TranslatedTitle:    artifact.TitleTranslated,
		TranslatedAbstract: artifact.AbstractTranslated,
	})

	return artifact, result, nil
}

// callTranslator invokes the external translator with the retry policy
// applied to transient failures only. Auth and input errors surface
// immediately; retries stay within this claim and never consume a
// job-level attempt.
func (w *Worker) callTranslator(ctx context.Context, jobID, text, instruction string) (*interfaces.TranslationResult, error) {
	req := &interfaces.TranslationRequest{
		Text:           text,
		TargetLanguage: w.targetLanguage,
		Glossary:       w.glossary,
		Instruction:    instruction,
	}

	var lastErr error
	for attempt := 0; attempt <= w.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := w.policy.NextDelay(attempt - 1)
			w.logger.Debug().
				Str("job_id", jobID).
				Int("attempt", attempt).
				Str("delay", delay.String()).
				Msg("Retrying translator call")
			if !sleepCtx(ctx, delay) {
				return nil, ctx.Err()
			}
		}

		start := time.Now()
		result, err := w.translator.Translate(ctx, req)
		w.audit.LogCall(jobID, w.id, result, time.Since(start), err)

		if err == nil {
			return result, nil
		}

		lastErr = err
		if !w.policy.IsTransient(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("transient retries exhausted: %w", lastErr)
}

// heartbeatLoop emits liveness on a fixed interval regardless of job
// progress. It runs on its own context so the final heartbeat still
// lands while a persist is finishing during shutdown.
func (w *Worker) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.jobs.Heartbeat(ctx, w.id, w.JobsCompleted()); err != nil {
				w.logger.Warn().Err(err).Str("worker_id", w.id).Msg("Heartbeat failed")
			}
		}
	}
}

// sleepCtx sleeps for d or until ctx is cancelled, reporting whether
// the full sleep elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
