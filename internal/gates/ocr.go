package gates

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/models"
)

// OCRGate scores text extraction quality against held-out reference
// transcriptions. The check is statistical, not per-item: a single
// poorly scanned document does not fail the gate as long as the mean
// similarity across the sample set meets the threshold. The report's
// pass rate therefore carries the mean similarity, while individual
// low-scoring samples are listed as issues for triage.
type OCRGate struct {
	samples   []*models.ExtractionSample
	threshold float64
	logger    arbor.ILogger
}

// NewOCRGate creates the OCR gate over a set of extraction samples.
func NewOCRGate(samples []*models.ExtractionSample, threshold float64, logger arbor.ILogger) *OCRGate {
	return &OCRGate{samples: samples, threshold: threshold, logger: logger}
}

// Name returns the stage name.
func (g *OCRGate) Name() string { return "ocr" }

// Run scores every sample and aggregates the mean similarity.
func (g *OCRGate) Run(ctx context.Context) (*models.ValidationReport, error) {
	report := models.NewValidationReport(g.Name())

	if len(g.samples) == 0 {
		report.AddFatal("samples", "no extraction samples provided")
		report.Finalize()
		return report, nil
	}

	sum := 0.0
	for _, sample := range g.samples {
		score := bigramSimilarity(sample.Extracted, sample.Reference)
		sum += score

		if score >= g.threshold {
			report.AddPass()
		} else {
			report.AddFailure(sample.ID, fmt.Sprintf("extraction similarity %.3f below threshold %.3f", score, g.threshold))
		}
	}

	// The gate decision rides on the mean, so that is what PassRate
	// carries; Finalize is deliberately not called here.
	report.PassRate = sum / float64(len(g.samples))

	g.logger.Info().
		Int("samples", len(g.samples)).
		Float64("mean_similarity", report.PassRate).
		Msg("OCR gate scored")

	return report, nil
}

// bigramSimilarity computes the Dice coefficient over character
// bigrams. It is insensitive to word order and light formatting
// differences, which matches how OCR output drifts from a reference.
func bigramSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	aBigrams := bigrams(a)
	bBigrams := bigrams(b)
	if len(aBigrams) == 0 || len(bBigrams) == 0 {
		return 0.0
	}

	overlap := 0
	for bg, count := range aBigrams {
		if other, ok := bBigrams[bg]; ok {
			if other < count {
				count = other
			}
			overlap += count
		}
	}

	totalA, totalB := 0, 0
	for _, c := range aBigrams {
		totalA += c
	}
	for _, c := range bBigrams {
		totalB += c
	}

	return 2.0 * float64(overlap) / float64(totalA+totalB)
}

func bigrams(s string) map[string]int {
	runes := []rune(s)
	grams := make(map[string]int)
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}

// LoadExtractionSamples reads an extraction-sample file (JSON array).
func LoadExtractionSamples(path string) ([]*models.ExtractionSample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction samples %s: %w", path, err)
	}
	var samples []*models.ExtractionSample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse extraction samples %s: %w", path, err)
	}
	return samples, nil
}
