package translator

import (
	"os"
	"path/filepath"
	"time"

	plog "github.com/phuslu/log"
	"github.com/ternarybob/verto/internal/interfaces"
)

// AuditLogger records every translator call as a JSON line, separate
// from the application log so spend and failure analysis can be run
// over the audit file alone.
type AuditLogger struct {
	log plog.Logger
}

// NewAuditLogger creates a JSON-lines audit logger writing to path.
// Pass an empty path to disable auditing (a no-op logger is returned).
func NewAuditLogger(path string) (*AuditLogger, error) {
	if path == "" {
		return &AuditLogger{log: plog.Logger{Writer: &plog.IOWriter{Writer: noopWriter{}}}}, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	return &AuditLogger{
		log: plog.Logger{
			Level:      plog.InfoLevel,
			TimeField:  "timestamp",
			TimeFormat: time.RFC3339,
			Writer: &plog.FileWriter{
				Filename:   path,
				MaxSize:    50 * 1024 * 1024,
				MaxBackups: 3,
				LocalTime:  true,
			},
		},
	}, nil
}

// LogCall records one translator call, successful or not.
func (a *AuditLogger) LogCall(jobID, workerID string, result *interfaces.TranslationResult, duration time.Duration, callErr error) {
	e := a.log.Info().
		Str("job_id", jobID).
		Str("worker_id", workerID).
		Dur("duration", duration)

	if result != nil {
		e = e.Str("provider", result.Provider).
			Str("model", result.Model).
			Int("input_tokens", result.InputTokens).
			Int("output_tokens", result.OutputTokens).
			Float64("cost_usd", result.Cost)
	}

	if callErr != nil {
		e.Str("error_kind", string(Classify(callErr))).
			Str("error", callErr.Error()).
			Bool("success", false).
			Msg("translate")
		return
	}

	e.Bool("success", true).Msg("translate")
}

// Close flushes the underlying file writer.
func (a *AuditLogger) Close() error {
	if fw, ok := a.log.Writer.(*plog.FileWriter); ok {
		return fw.Close()
	}
	return nil
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
