package gates

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/common"
	"github.com/ternarybob/verto/internal/models"
)

// PreflightGate verifies credentials and writable paths before any
// work starts. Every failure here is fatal: a pipeline that cannot
// reach its translator or write its own reports must not start
// consuming the queue.
type PreflightGate struct {
	config *common.Config
	logger arbor.ILogger
}

// NewPreflightGate creates the preflight gate.
func NewPreflightGate(cfg *common.Config, logger arbor.ILogger) *PreflightGate {
	return &PreflightGate{config: cfg, logger: logger}
}

// Name returns the stage name.
func (g *PreflightGate) Name() string { return "preflight" }

// Run executes every preflight check and records each as one item.
func (g *PreflightGate) Run(ctx context.Context) (*models.ValidationReport, error) {
	report := models.NewValidationReport(g.Name())

	g.checkCredentials(report)
	g.checkWritable(report, "storage_path", g.config.Storage.Badger.Path)
	g.checkWritable(report, "reports_dir", g.config.Gates.ReportsDir)
	g.checkGlossary(report)

	report.Finalize()
	return report, nil
}

// checkCredentials verifies the API key for the configured provider.
func (g *PreflightGate) checkCredentials(report *models.ValidationReport) {
	provider := g.config.Translator.DefaultProvider
	if provider == "" {
		provider = common.TranslatorProviderGemini
	}

	var key string
	switch provider {
	case common.TranslatorProviderGemini:
		key = g.config.Gemini.APIKey
	case common.TranslatorProviderClaude:
		key = g.config.Claude.APIKey
	default:
		report.AddFatal("translator_credentials", fmt.Sprintf("unknown translator provider: %s", provider))
		return
	}

	if key == "" {
		report.AddFatal("translator_credentials", fmt.Sprintf("no API key configured for provider %s", provider))
		return
	}
	report.AddPass()
}

// checkWritable verifies a directory exists (creating it if needed)
// and accepts writes.
func (g *PreflightGate) checkWritable(report *models.ValidationReport, item, dir string) {
	if dir == "" {
		report.AddFatal(item, "path not configured")
		return
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		report.AddFatal(item, fmt.Sprintf("cannot create directory %s: %v", dir, err))
		return
	}

	probe := filepath.Join(dir, ".verto_write_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		report.AddFatal(item, fmt.Sprintf("directory %s is not writable: %v", dir, err))
		return
	}
	os.Remove(probe)
	report.AddPass()
}

// checkGlossary verifies the glossary parses when one is configured.
func (g *PreflightGate) checkGlossary(report *models.ValidationReport) {
	if g.config.Pipeline.GlossaryPath == "" {
		return // optional input, nothing to check
	}
	if _, err := common.LoadGlossary(g.config.Pipeline.GlossaryPath); err != nil {
		report.AddFatal("glossary", err.Error())
		return
	}
	report.AddPass()
}
