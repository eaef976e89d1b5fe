package gates

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/interfaces"
	"github.com/ternarybob/verto/internal/models"
)

// TranslationGate aggregates QA outcomes across all produced artifacts
// into the pipeline's publication decision. Downstream rendering only
// ever consumes artifacts whose QA status is pass; this gate decides
// whether enough of the batch made it through to publish at all.
type TranslationGate struct {
	artifacts interfaces.ArtifactStore
	logger    arbor.ILogger
}

// NewTranslationGate creates the translation gate over the artifact
// store.
func NewTranslationGate(artifacts interfaces.ArtifactStore, logger arbor.ILogger) *TranslationGate {
	return &TranslationGate{artifacts: artifacts, logger: logger}
}

// Name returns the stage name.
func (g *TranslationGate) Name() string { return "translation" }

// Run tallies QA statuses and the top offending issue kinds.
func (g *TranslationGate) Run(ctx context.Context) (*models.ValidationReport, error) {
	report := models.NewValidationReport(g.Name())
	report.TopIssues = make(map[string]int)

	artifacts, err := g.artifacts.ListArtifacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	for _, artifact := range artifacts {
		if artifact.QAStatus == models.QAStatusPass {
			report.AddPass()
			continue
		}

		report.TopIssues[string(artifact.QAStatus)]++
		report.AddFailure(artifact.JobID, flagReason(artifact))
	}

	report.Finalize()

	g.logger.Info().
		Int("checked", report.ItemsChecked).
		Int("passed", report.ItemsPassed).
		Float64("pass_rate", report.PassRate).
		Msg("Translation gate scored")

	return report, nil
}

// flagReason summarizes why an artifact was flagged.
func flagReason(artifact *models.Artifact) string {
	if artifact.QA == nil || len(artifact.QA.Issues) == 0 {
		return string(artifact.QAStatus)
	}
	issue := artifact.QA.Issues[0]
	for _, candidate := range artifact.QA.Issues {
		if candidate.Status == artifact.QAStatus {
			issue = candidate
			break
		}
	}
	return fmt.Sprintf("%s (%s: %s)", artifact.QAStatus, issue.Field, issue.Detail)
}
