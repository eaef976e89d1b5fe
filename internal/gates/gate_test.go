package gates

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/ternarybob/verto/internal/models"
)

func TestWriteReportRoundTrip(t *testing.T) {
	dir := t.TempDir()

	report := models.NewValidationReport("harvest")
	report.AddPass()
	report.AddFailure("item-1", "missing abstract")
	report.Finalize()

	path, err := WriteReport(dir, report)
	if err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report file: %v", err)
	}

	var loaded models.ValidationReport
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Report is not valid JSON: %v", err)
	}
	if loaded.StageName != "harvest" || loaded.ItemsChecked != 2 || loaded.PassRate != 0.5 {
		t.Errorf("unexpected report content: %+v", loaded)
	}

	// No temp file left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one file in reports dir, found %d", len(entries))
	}
}

func TestReportPassedThreshold(t *testing.T) {
	tests := []struct {
		name      string
		passed    int
		failed    int
		fatal     bool
		threshold float64
		want      bool
	}{
		{"above threshold", 9, 1, false, 0.9, true},
		{"exactly at threshold", 9, 1, false, 0.9, true},
		{"below threshold", 8, 2, false, 0.9, false},
		{"fatal overrides pass rate", 10, 0, true, 0.5, false},
		{"zero threshold still blocks fatal", 0, 1, true, 0.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := models.NewValidationReport("test")
			for i := 0; i < tt.passed; i++ {
				report.AddPass()
			}
			for i := 0; i < tt.failed; i++ {
				report.AddFailure("item", "reason")
			}
			if tt.fatal {
				report.AddFatal("item", "fatal reason")
			}
			report.Finalize()

			if got := report.Passed(tt.threshold); got != tt.want {
				t.Errorf("Passed(%v) = %v, want %v (rate %.3f, fatal %v)",
					tt.threshold, got, tt.want, report.PassRate, report.HasFatal())
			}
		})
	}
}
