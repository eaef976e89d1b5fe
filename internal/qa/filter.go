package qa

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/ternarybob/verto/internal/common"
	"github.com/ternarybob/verto/internal/models"
)

// Protected tokens are substituted into the source text upstream and
// must survive translation byte for byte. A count mismatch means the
// model dropped or duplicated notation.
var (
	mathPlaceholderRe = regexp.MustCompile(`\[\[MATH_\d+\]\]`)
	citationMarkerRe  = regexp.MustCompile(`\[CIT_\d+\]`)
)

// Filter classifies translated artifacts. It is a pure function of
// its input text and thresholds: no clock, no store, no network, so
// identical input always yields an identical result.
type Filter struct {
	softPurityCount int
	hardPurityRatio float64
	lengthRatioMin  float64
	lengthRatioMax  float64
}

// Input carries the source and translated fields of one artifact.
type Input struct {
	JobID              string
	SourceTitle        string
	SourceAbstract     string
	TranslatedTitle    string
	TranslatedAbstract string
}

// NewFilter creates a filter with the configured thresholds.
func NewFilter(cfg *common.QAConfig) *Filter {
	return &Filter{
		softPurityCount: cfg.SoftPurityCount,
		hardPurityRatio: cfg.HardPurityRatio,
		lengthRatioMin:  cfg.LengthRatioMin,
		lengthRatioMax:  cfg.LengthRatioMax,
	}
}

// Check classifies one artifact. The returned result's status is the
// single most severe issue found across both fields; all supporting
// issues are kept for reporting. CheckedAt is left zero; the caller
// stamps it when persisting.
func (f *Filter) Check(in *Input) *models.QAResult {
	result := &models.QAResult{
		JobID:  in.JobID,
		Status: models.QAStatusPass,
	}

	hard := false
	hard = f.checkField(result, "title", in.SourceTitle, in.TranslatedTitle) || hard
	hard = f.checkField(result, "abstract", in.SourceAbstract, in.TranslatedAbstract) || hard

	// Retry is worthwhile only for a light purity flag: a handful of
	// residual characters with every field's ratio still below the
	// hard cutoff. Everything heavier is excluded without a second call.
	if result.Status == models.QAStatusFlagLanguagePurity &&
		!hard &&
		result.ResidueCount > 0 &&
		result.ResidueCount <= f.softPurityCount {
		result.RetryEligible = true
	}

	return result
}

func (f *Filter) checkField(result *models.QAResult, field, source, translated string) bool {
	if source == "" && translated == "" {
		return false
	}

	hard := f.checkLanguagePurity(result, field, translated)
	f.checkTokenParity(result, field, source, translated)
	f.checkLengthRatio(result, field, source, translated)
	return hard
}

// checkLanguagePurity counts source-script characters left in the
// translated text. A ratio at or above the hard threshold always
// flags; any nonzero count flags too, but a small count stays within
// the retry-eligible band decided in Check.
func (f *Filter) checkLanguagePurity(result *models.QAResult, field, translated string) bool {
	spans := sourceScriptSpans(translated)
	if len(spans) == 0 {
		return false
	}

	count := 0
	for _, s := range spans {
		count += utf8.RuneCountInString(s.Text)
	}
	total := utf8.RuneCountInString(translated)

	ratio := 0.0
	if total > 0 {
		ratio = float64(count) / float64(total)
	}

	result.ResidueCount += count
	hard := ratio >= f.hardPurityRatio || count > f.softPurityCount

	detail := "residual source-script characters"
	if hard {
		detail = "source-script fraction above hard threshold"
	}

	f.record(result, models.QAIssue{
		Field:  field,
		Status: models.QAStatusFlagLanguagePurity,
		Count:  count,
		Detail: detail,
		Spans:  spans,
	})
	return hard
}

// checkTokenParity verifies that math placeholders and citation
// markers appear the same number of times in source and translation.
func (f *Filter) checkTokenParity(result *models.QAResult, field, source, translated string) {
	if src, dst := len(mathPlaceholderRe.FindAllString(source, -1)), len(mathPlaceholderRe.FindAllString(translated, -1)); src != dst {
		f.record(result, models.QAIssue{
			Field:  field,
			Status: models.QAStatusFlagMath,
			Count:  abs(src - dst),
			Detail: "math placeholder count mismatch between source and translation",
		})
	}

	if src, dst := len(citationMarkerRe.FindAllString(source, -1)), len(citationMarkerRe.FindAllString(translated, -1)); src != dst {
		f.record(result, models.QAIssue{
			Field:  field,
			Status: models.QAStatusFlagStructure,
			Count:  abs(src - dst),
			Detail: "citation marker count mismatch between source and translation",
		})
	}
}

// checkLengthRatio flags translations whose length is implausible
// relative to the source. Chinese runs denser than English, so the
// accepted band is wide and asymmetric.
func (f *Filter) checkLengthRatio(result *models.QAResult, field, source, translated string) {
	srcLen := utf8.RuneCountInString(source)
	if srcLen == 0 {
		return
	}

	ratio := float64(utf8.RuneCountInString(translated)) / float64(srcLen)
	if ratio >= f.lengthRatioMin && ratio <= f.lengthRatioMax {
		return
	}

	f.record(result, models.QAIssue{
		Field:  field,
		Status: models.QAStatusFlagLength,
		Count:  utf8.RuneCountInString(translated),
		Detail: "translated/source length ratio outside expected band",
	})
}

// record appends an issue and promotes the overall status if the new
// issue is more severe.
func (f *Filter) record(result *models.QAResult, issue models.QAIssue) {
	result.Issues = append(result.Issues, issue)
	if issue.Status.Severity() > result.Status.Severity() {
		result.Status = issue.Status
	}
}

// sourceScriptSpans returns the contiguous runs of source-script
// characters in text, with byte offsets for reporting.
func sourceScriptSpans(text string) []models.Span {
	var spans []models.Span
	start := -1

	for i, r := range text {
		if isSourceScript(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			spans = append(spans, models.Span{Start: start, End: i, Text: text[start:i]})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, models.Span{Start: start, End: len(text), Text: text[start:]})
	}

	return spans
}

// isSourceScript reports whether r belongs to the source script.
// Han covers the CJK unified ideograph blocks; Bopomofo catches the
// occasional phonetic annotation. CJK punctuation is deliberately not
// counted since it survives legitimate quoting.
func isSourceScript(r rune) bool {
	return unicode.Is(unicode.Han, r) || unicode.Is(unicode.Bopomofo, r)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
