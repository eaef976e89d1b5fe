package models

import "time"

// QAStatus classifies the acceptability of a produced artifact.
type QAStatus string

const (
	QAStatusPass               QAStatus = "pass"
	QAStatusFlagLanguagePurity QAStatus = "flag_language_purity"
	QAStatusFlagMath           QAStatus = "flag_math"
	QAStatusFlagStructure      QAStatus = "flag_structure"
	QAStatusFlagLength         QAStatus = "flag_length"
)

// qaSeverity orders statuses from most to least severe. When several
// checks flag the same artifact, the result carries the most severe
// status and the full issue list as evidence.
var qaSeverity = map[QAStatus]int{
	QAStatusFlagLanguagePurity: 4,
	QAStatusFlagMath:           3,
	QAStatusFlagStructure:      2,
	QAStatusFlagLength:         1,
	QAStatusPass:               0,
}

// Severity returns the precedence rank of a QA status.
func (s QAStatus) Severity() int {
	return qaSeverity[s]
}

// MoreSevere reports whether s outranks other.
func (s QAStatus) MoreSevere(other QAStatus) bool {
	return s.Severity() > other.Severity()
}

// Span marks an offending character range within a translated field.
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// QAIssue is one piece of evidence supporting a QA classification.
type QAIssue struct {
	Field  string   `json:"field"`
	Status QAStatus `json:"status"`
	Count  int      `json:"count,omitempty"`
	Detail string   `json:"detail"`
	Spans  []Span   `json:"spans,omitempty"`
}

// QAResult is the deterministic classification of one produced
// artifact. Identical input text always yields an identical result.
type QAResult struct {
	JobID  string   `json:"job_id"`
	Status QAStatus `json:"status"`

	// RetryEligible is set when the only problem is a small residue of
	// source-script characters, below the soft purity threshold. The
	// worker performs exactly one targeted re-translation for these.
	RetryEligible bool `json:"retry_eligible"`

	// ResidueCount is the total count of source-script characters found
	// across all translated fields.
	ResidueCount int `json:"residue_count"`

	Issues    []QAIssue `json:"issues,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// IssueCount returns the number of recorded issues.
func (r *QAResult) IssueCount() int {
	return len(r.Issues)
}

// Better reports whether r is an improvement over other, used to pick
// the winner between an original translation and its targeted retry.
// Fewer-severity first, then fewer residue characters, then fewer
// issues.
func (r *QAResult) Better(other *QAResult) bool {
	if other == nil {
		return true
	}
	if r.Status.Severity() != other.Status.Severity() {
		return r.Status.Severity() < other.Status.Severity()
	}
	if r.ResidueCount != other.ResidueCount {
		return r.ResidueCount < other.ResidueCount
	}
	return len(r.Issues) < len(other.Issues)
}
