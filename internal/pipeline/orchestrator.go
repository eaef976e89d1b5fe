package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/common"
	"github.com/ternarybob/verto/internal/gates"
	"github.com/ternarybob/verto/internal/interfaces"
	"github.com/ternarybob/verto/internal/models"
	"github.com/ternarybob/verto/internal/queue"
)

// GateFailureError reports which stage blocked the pipeline and where
// its report was written.
type GateFailureError struct {
	Stage      string
	ReportPath string
	PassRate   float64
	Threshold  float64
	Fatal      bool
}

func (e *GateFailureError) Error() string {
	if e.Fatal {
		return fmt.Sprintf("%s gate failed with a fatal issue (report: %s)", e.Stage, e.ReportPath)
	}
	return fmt.Sprintf("%s gate failed: pass rate %.3f below threshold %.3f (report: %s)",
		e.Stage, e.PassRate, e.Threshold, e.ReportPath)
}

// Orchestrator sequences the pipeline: preflight, harvest validation,
// job enqueue, the worker batch, then the translation gate. Stages are
// strictly ordered; a stage never starts until the previous gate has
// passed, and any gate failure halts the run with the failing report
// surfaced.
type Orchestrator struct {
	config  *common.Config
	storage interfaces.StorageManager
	deps    *queue.WorkerDeps
	logger  arbor.ILogger
}

// NewOrchestrator creates the orchestrator.
func NewOrchestrator(cfg *common.Config, deps *queue.WorkerDeps) *Orchestrator {
	return &Orchestrator{
		config:  cfg,
		storage: deps.Storage,
		deps:    deps,
		logger:  deps.Logger,
	}
}

// Run executes the full pipeline. The returned error is a
// GateFailureError when a gate blocked the run, which callers map to
// the process exit code.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.runGate(ctx, gates.NewPreflightGate(o.config, o.logger), 1.0); err != nil {
		return err
	}

	accepted, err := o.runHarvest(ctx)
	if err != nil {
		return err
	}

	if o.config.Pipeline.OCRInputPath != "" {
		if err := o.runOCR(ctx); err != nil {
			return err
		}
	}

	if err := o.enqueue(ctx, accepted); err != nil {
		return err
	}

	o.logger.Info().Int("workers", o.config.Worker.Count).Msg("Starting translation batch")
	pool := queue.NewPool(o.config, o.deps)
	if _, err := pool.Run(ctx); err != nil {
		return fmt.Errorf("worker batch failed: %w", err)
	}

	if err := o.runGate(ctx, gates.NewTranslationGate(o.storage.Artifacts(), o.logger), o.config.Gates.TranslationThreshold); err != nil {
		return err
	}

	passed, err := o.storage.Artifacts().PassedArtifacts(ctx)
	if err != nil {
		return fmt.Errorf("failed to query passed artifacts: %w", err)
	}
	o.logger.Info().
		Int("publishable", len(passed)).
		Msg("Pipeline complete, passed artifacts ready for rendering")

	return nil
}

// runHarvest loads the harvester output, runs the harvest gate and
// returns the accepted records.
func (o *Orchestrator) runHarvest(ctx context.Context) ([]*models.Record, error) {
	records, err := gates.LoadRecords(o.config.Pipeline.RecordsPath)
	if err != nil {
		return nil, err
	}

	gate := gates.NewHarvestGate(records, o.logger)
	if err := o.runGate(ctx, gate, o.config.Gates.HarvestThreshold); err != nil {
		return nil, err
	}
	return gate.Accepted(), nil
}

// runOCR scores extraction samples when a sample file is configured.
func (o *Orchestrator) runOCR(ctx context.Context) error {
	samples, err := gates.LoadExtractionSamples(o.config.Pipeline.OCRInputPath)
	if err != nil {
		return err
	}
	gate := gates.NewOCRGate(samples, o.config.Gates.OCRThreshold, o.logger)
	return o.runGate(ctx, gate, o.config.Gates.OCRThreshold)
}

// enqueue persists accepted records and creates their jobs. Both
// writes are idempotent, so re-running a batch never duplicates work
// or resets completed jobs.
func (o *Orchestrator) enqueue(ctx context.Context, records []*models.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("no records accepted by harvest gate")
	}

	if _, err := o.storage.Records().SaveRecords(ctx, records); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}

	jobs := make([]*models.Job, 0, len(records))
	for _, record := range records {
		jobs = append(jobs, models.NewJob(common.JobIDForRecord(record.ID)))
	}

	added, err := o.storage.Jobs().Enqueue(ctx, jobs)
	if err != nil {
		return fmt.Errorf("failed to enqueue jobs: %w", err)
	}

	o.logger.Info().
		Int("records", len(records)).
		Int("jobs_added", added).
		Int("jobs_existing", len(records)-added).
		Msg("Jobs enqueued")

	return nil
}

// runGate executes one gate, writes its report and enforces the
// threshold.
func (o *Orchestrator) runGate(ctx context.Context, gate gates.Gate, threshold float64) error {
	o.logger.Info().Str("stage", gate.Name()).Msg("Running gate")

	report, err := gate.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s gate error: %w", gate.Name(), err)
	}

	path, err := gates.WriteReport(o.config.Gates.ReportsDir, report)
	if err != nil {
		return err
	}

	o.logger.Info().
		Str("stage", gate.Name()).
		Int("checked", report.ItemsChecked).
		Int("passed", report.ItemsPassed).
		Float64("pass_rate", report.PassRate).
		Str("report", path).
		Msg("Gate finished")

	if !report.Passed(threshold) {
		return &GateFailureError{
			Stage:      gate.Name(),
			ReportPath: path,
			PassRate:   report.PassRate,
			Threshold:  threshold,
			Fatal:      report.HasFatal(),
		}
	}
	return nil
}
