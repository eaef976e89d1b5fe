package models

import "time"

// Record is one harvested document as supplied by the upstream
// harvester. The harvest gate enforces the required-field schema via
// the validate tags before a record may become a job.
type Record struct {
	ID         string   `badgerhold:"key" json:"id" validate:"required"`
	Title      string   `json:"title" validate:"required"`
	Abstract   string   `json:"abstract" validate:"required"`
	Creators   []string `json:"creators" validate:"required,min=1,dive,required"`
	Subjects   []string `json:"subjects" validate:"required,min=1,dive,required"`
	Date       string   `json:"date" validate:"required"`
	SourceURL  string   `json:"source_url" validate:"required,url"`
	ContentURL string   `json:"content_url" validate:"required,url"`

	HarvestedAt time.Time `json:"harvested_at,omitempty"`
}
