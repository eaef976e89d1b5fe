package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/common"
	"github.com/ternarybob/verto/internal/interfaces"
	"golang.org/x/time/rate"
)

// Approximate Claude Haiku pricing per token, used for cost reporting.
const (
	claudeInputCostPerToken  = 0.80 / 1_000_000
	claudeOutputCostPerToken = 4.00 / 1_000_000
)

// ClaudeTranslator implements the Translator interface using the
// Anthropic Claude API.
type ClaudeTranslator struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    *anthropic.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	maxTokens int
}

// NewClaudeTranslator creates a new Claude-backed translator.
func NewClaudeTranslator(config *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeTranslator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY, VERTO_CLAUDE_API_KEY, or claude.api_key in config)")
	}

	if config.Model == "" {
		config.Model = "claude-haiku-3-5-20241022"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	rateLimit := config.RateLimit
	if rateLimit <= 0 {
		rateLimit = 1
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	logger.Info().
		Str("model", config.Model).
		Str("timeout", timeout.String()).
		Int("max_tokens", maxTokens).
		Msg("Claude translator initialized")

	return &ClaudeTranslator{
		config:    config,
		logger:    logger,
		client:    &client,
		limiter:   rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		timeout:   timeout,
		maxTokens: maxTokens,
	}, nil
}

// Translate sends one translation request to Claude. Failures are
// returned as CallErrors so the worker can classify them.
func (t *ClaudeTranslator) Translate(ctx context.Context, req *interfaces.TranslationRequest) (*interfaces.TranslationResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, NewCallError(ErrorKindInvalidInput, fmt.Errorf("text cannot be empty"))
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, NewCallError(ErrorKindTimeout, err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(t.config.Model),
		MaxTokens: int64(t.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Text)),
		},
		System: []anthropic.TextBlockParam{
			{Text: BuildSystemPrompt(req)},
		},
	}
	if t.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(t.config.Temperature))
	}

	resp, err := t.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return nil, NewCallError(Classify(err), err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if response.Len() == 0 {
		return nil, NewCallError(ErrorKindServiceUnavailable, fmt.Errorf("no response generated from model"))
	}

	result := &interfaces.TranslationResult{
		Text:         strings.TrimSpace(response.String()),
		Provider:     string(common.TranslatorProviderClaude),
		Model:        t.config.Model,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}
	result.Cost = float64(result.InputTokens)*claudeInputCostPerToken +
		float64(result.OutputTokens)*claudeOutputCostPerToken

	return result, nil
}

// Provider returns the provider name.
func (t *ClaudeTranslator) Provider() string {
	return string(common.TranslatorProviderClaude)
}

// Close releases the client reference.
func (t *ClaudeTranslator) Close() error {
	// Claude client doesn't require explicit cleanup
	t.client = nil
	return nil
}
