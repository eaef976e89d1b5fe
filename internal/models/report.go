package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportIssue records one failed or recovered item within a gate run.
type ReportIssue struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
	Fatal  bool   `json:"fatal,omitempty"`
}

// ValidationReport is the immutable outcome of one gate run. A re-run
// produces a new report; existing reports are never mutated.
type ValidationReport struct {
	ID           string        `json:"id"`
	StageName    string        `json:"stage_name"`
	GeneratedAt  time.Time     `json:"generated_at"`
	ItemsChecked int           `json:"items_checked"`
	ItemsPassed  int           `json:"items_passed"`
	ItemsFailed  int           `json:"items_failed"`
	PassRate     float64       `json:"pass_rate"`
	Issues       []ReportIssue `json:"issues,omitempty"`

	// TopIssues maps a reason to its occurrence count, populated by
	// aggregate gates (translation QA) for reporting.
	TopIssues map[string]int `json:"top_issues,omitempty"`
}

// NewValidationReport creates an empty report for a stage.
func NewValidationReport(stageName string) *ValidationReport {
	return &ValidationReport{
		ID:          uuid.New().String(),
		StageName:   stageName,
		GeneratedAt: time.Now().UTC(),
	}
}

// AddPass records a passing item.
func (r *ValidationReport) AddPass() {
	r.ItemsChecked++
	r.ItemsPassed++
}

// AddFailure records a failing item with a reason.
func (r *ValidationReport) AddFailure(itemID, reason string) {
	r.ItemsChecked++
	r.ItemsFailed++
	r.Issues = append(r.Issues, ReportIssue{ItemID: itemID, Reason: reason})
}

// AddFatal records a failure that must halt the whole pipeline,
// regardless of the aggregate pass rate.
func (r *ValidationReport) AddFatal(itemID, reason string) {
	r.ItemsChecked++
	r.ItemsFailed++
	r.Issues = append(r.Issues, ReportIssue{ItemID: itemID, Reason: reason, Fatal: true})
}

// Finalize computes the pass rate. Call once, after all items are
// recorded.
func (r *ValidationReport) Finalize() {
	if r.ItemsChecked > 0 {
		r.PassRate = float64(r.ItemsPassed) / float64(r.ItemsChecked)
	}
}

// HasFatal reports whether any fatal-class issue was recorded.
func (r *ValidationReport) HasFatal() bool {
	for _, issue := range r.Issues {
		if issue.Fatal {
			return true
		}
	}
	return false
}

// Passed reports whether the gate passed at the given threshold: the
// pass rate meets the threshold and no fatal issue occurred.
func (r *ValidationReport) Passed(threshold float64) bool {
	return r.PassRate >= threshold && !r.HasFatal()
}
