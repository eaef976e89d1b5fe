package gates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/httpclient"
	"github.com/ternarybob/verto/internal/models"
)

// HarvestGate validates harvested records against the required-field
// schema. A record with a broken content URL gets one recovery
// attempt, re-resolving the URL from the source landing page, before
// it is counted as failed. Accepted records are exposed for the next
// stage; the input set is never mutated into the store here.
type HarvestGate struct {
	records  []*models.Record
	validate *validator.Validate
	client   *http.Client
	logger   arbor.ILogger

	accepted []*models.Record
}

// NewHarvestGate creates the harvest gate over a batch of records.
func NewHarvestGate(records []*models.Record, logger arbor.ILogger) *HarvestGate {
	return &HarvestGate{
		records:  records,
		validate: validator.New(),
		client:   httpclient.NewDefaultHTTPClient(30 * time.Second),
		logger:   logger,
	}
}

// Name returns the stage name.
func (g *HarvestGate) Name() string { return "harvest" }

// Accepted returns the records that passed validation, available after
// Run.
func (g *HarvestGate) Accepted() []*models.Record {
	return g.accepted
}

// Run validates every record, attempting URL recovery once per record
// before recording a failure.
func (g *HarvestGate) Run(ctx context.Context) (*models.ValidationReport, error) {
	report := models.NewValidationReport(g.Name())
	g.accepted = g.accepted[:0]

	for _, record := range g.records {
		err := g.validate.Struct(record)
		if err == nil {
			g.accepted = append(g.accepted, record)
			report.AddPass()
			continue
		}

		if g.recoverContentURL(ctx, record, err) {
			if retryErr := g.validate.Struct(record); retryErr == nil {
				g.logger.Info().
					Str("record_id", record.ID).
					Str("content_url", record.ContentURL).
					Msg("Recovered content URL from source page")
				g.accepted = append(g.accepted, record)
				report.AddPass()
				continue
			}
		}

		report.AddFailure(record.ID, validationReason(err))
	}

	report.Finalize()
	return report, nil
}

// recoverContentURL tries to re-resolve a missing or malformed content
// URL from the record's source landing page. Only content-URL problems
// are recoverable; schema gaps in other fields are not.
func (g *HarvestGate) recoverContentURL(ctx context.Context, record *models.Record, err error) bool {
	if !fieldFailed(err, "ContentURL") || record.SourceURL == "" {
		return false
	}

	resolved, fetchErr := g.resolvePDFLink(ctx, record.SourceURL)
	if fetchErr != nil {
		g.logger.Debug().
			Err(fetchErr).
			Str("record_id", record.ID).
			Msg("Content URL recovery failed")
		return false
	}
	if resolved == "" {
		return false
	}

	record.ContentURL = resolved
	return true
}

// resolvePDFLink fetches a landing page and extracts the document
// link, preferring the citation_pdf_url meta tag over anchor scanning.
func (g *HarvestGate) resolvePDFLink(ctx context.Context, pageURL string) (string, error) {
	resp, err := httpclient.Get(ctx, g.client, pageURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse landing page: %w", err)
	}

	if meta, ok := doc.Find(`meta[name="citation_pdf_url"]`).Attr("content"); ok && meta != "" {
		return absoluteURL(pageURL, meta), nil
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if strings.HasSuffix(strings.ToLower(href), ".pdf") {
			found = absoluteURL(pageURL, href)
			return false
		}
		return true
	})
	return found, nil
}

// absoluteURL resolves href against the page it was found on.
func absoluteURL(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// fieldFailed reports whether the validation error includes the named
// struct field.
func fieldFailed(err error, field string) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Field() == field {
			return true
		}
	}
	return false
}

// validationReason flattens a validator error into a stable reason
// string for the report.
func validationReason(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: failed '%s'", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// LoadRecords reads a harvester output file (JSON array of records).
func LoadRecords(path string) ([]*models.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file %s: %w", path, err)
	}
	var records []*models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse records file %s: %w", path, err)
	}
	return records, nil
}
