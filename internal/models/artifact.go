package models

import "time"

// Artifact is the translated output for one job, persisted alongside
// its QA result. Artifacts are written with an idempotent upsert keyed
// by job ID: a late write from a reclaimed worker overwrites cleanly
// and never corrupts a newer attempt (last successful completion wins).
type Artifact struct {
	JobID    string `badgerhold:"key" json:"job_id"`
	RecordID string `json:"record_id"`

	Title    string `json:"title"`
	Abstract string `json:"abstract"`

	TitleTranslated    string `json:"title_translated"`
	AbstractTranslated string `json:"abstract_translated"`

	// QAStatus is denormalized from QA for indexed publication queries.
	QAStatus QAStatus  `badgerholdIndex:"QAStatus" json:"qa_status"`
	QA       *QAResult `json:"qa,omitempty"`

	Provider     string  `json:"provider,omitempty"`
	Model        string  `json:"model,omitempty"`
	InputTokens  int     `json:"input_tokens,omitempty"`
	OutputTokens int     `json:"output_tokens,omitempty"`
	Cost         float64 `json:"cost,omitempty"`

	WorkerID  string    `json:"worker_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
