package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/common"
	"github.com/ternarybob/verto/internal/interfaces"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Approximate Gemini Flash pricing per token, used for cost reporting.
const (
	geminiInputCostPerToken  = 0.10 / 1_000_000
	geminiOutputCostPerToken = 0.40 / 1_000_000
)

// GeminiTranslator implements the Translator interface using the
// Google Gemini API.
type GeminiTranslator struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGeminiTranslator creates a new Gemini-backed translator.
func NewGeminiTranslator(config *common.GeminiConfig, logger arbor.ILogger) (*GeminiTranslator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required (set VERTO_GEMINI_API_KEY or gemini.api_key in config)")
	}

	model := config.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	config.Model = model

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	rateLimit := config.RateLimit
	if rateLimit <= 0 {
		rateLimit = 2
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	logger.Info().
		Str("model", model).
		Str("timeout", timeout.String()).
		Int("rate_limit", rateLimit).
		Msg("Gemini translator initialized")

	return &GeminiTranslator{
		config:  config,
		logger:  logger,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		timeout: timeout,
	}, nil
}

// Translate sends one translation request to Gemini. Failures are
// returned as CallErrors so the worker can classify them.
func (t *GeminiTranslator) Translate(ctx context.Context, req *interfaces.TranslationRequest) (*interfaces.TranslationResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, NewCallError(ErrorKindInvalidInput, fmt.Errorf("text cannot be empty"))
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, NewCallError(ErrorKindTimeout, err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(t.config.Temperature),
		SystemInstruction: genai.NewContentFromText(BuildSystemPrompt(req), genai.RoleUser),
	}
	contents := []*genai.Content{genai.NewContentFromText(req.Text, genai.RoleUser)}

	resp, err := t.client.Models.GenerateContent(timeoutCtx, t.config.Model, contents, config)
	if err != nil {
		return nil, NewCallError(Classify(err), err)
	}

	// Extract text from response - iterate candidates until non-empty text is found
	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return nil, NewCallError(ErrorKindServiceUnavailable, fmt.Errorf("no response generated from model"))
	}

	result := &interfaces.TranslationResult{
		Text:     strings.TrimSpace(response.String()),
		Provider: string(common.TranslatorProviderGemini),
		Model:    t.config.Model,
	}
	if resp.UsageMetadata != nil {
		result.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		result.Cost = float64(result.InputTokens)*geminiInputCostPerToken +
			float64(result.OutputTokens)*geminiOutputCostPerToken
	}

	return result, nil
}

// Provider returns the provider name.
func (t *GeminiTranslator) Provider() string {
	return string(common.TranslatorProviderGemini)
}

// Close releases the client reference.
func (t *GeminiTranslator) Close() error {
	// genai.Client doesn't require explicit cleanup
	t.client = nil
	return nil
}
