package interfaces

import "context"

// TranslationRequest is a provider-agnostic translation call.
type TranslationRequest struct {
	Text           string
	TargetLanguage string
	Glossary       map[string]string

	// Instruction optionally narrows the prompt, used for the single
	// targeted re-attempt after a retry-eligible QA flag.
	Instruction string
}

// TranslationResult carries the translated text plus usage accounting.
type TranslationResult struct {
	Text         string
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// Translator is the external machine-translation boundary. Failures
// are classified by kind (see translator.Classify); callers never let
// a translator error crash the worker process.
type Translator interface {
	Translate(ctx context.Context, req *TranslationRequest) (*TranslationResult, error)
	Provider() string
	Close() error
}
