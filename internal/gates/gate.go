package gates

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/verto/internal/models"
)

// Gate is one validation stage of the pipeline. A gate never mutates
// upstream data in place: it annotates, reports and excludes items
// from the next stage's input.
type Gate interface {
	Name() string
	Run(ctx context.Context) (*models.ValidationReport, error)
}

// WriteReport persists a report as JSON in dir and returns the file
// path. The write goes to a temp file first and is renamed into place,
// so a half-written report is never observed.
func WriteReport(dir string, report *models.ValidationReport) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", report.StageName, report.GeneratedAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	tmp, err := os.CreateTemp(dir, name+".tmp*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp report: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to finalize report: %w", err)
	}

	return path, nil
}
