package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewWorkerID generates a unique worker ID with the "worker_" prefix.
// Workers are identified per process run; job IDs, by contrast, are
// deterministic and derived from the source record.
func NewWorkerID() string {
	return "worker_" + uuid.New().String()
}

// JobIDForRecord derives the stable job ID for a harvested record.
// Enqueueing the same record twice therefore hits the same job row.
func JobIDForRecord(recordID string) string {
	return "job_" + strings.TrimSpace(recordID)
}

// RecordIDForJob inverts JobIDForRecord.
func RecordIDForJob(jobID string) string {
	return strings.TrimPrefix(jobID, "job_")
}
