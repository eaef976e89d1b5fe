package translator

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/common"
	"github.com/ternarybob/verto/internal/interfaces"
)

// NewTranslator creates the translator for the configured provider.
func NewTranslator(cfg *common.Config, logger arbor.ILogger) (interfaces.Translator, error) {
	provider := cfg.Translator.DefaultProvider
	if provider == "" {
		provider = common.TranslatorProviderGemini
	}

	switch provider {
	case common.TranslatorProviderGemini:
		return NewGeminiTranslator(&cfg.Gemini, logger)
	case common.TranslatorProviderClaude:
		return NewClaudeTranslator(&cfg.Claude, logger)
	default:
		return nil, fmt.Errorf("unknown translator provider: %s", provider)
	}
}
