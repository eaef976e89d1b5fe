package translator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/verto/internal/interfaces"
)

const basePromptTemplate = `You are a professional translator of academic papers. Translate the user's text into %s.

Rules:
- Produce only the translation, with no preamble or commentary.
- Preserve inline math placeholders (such as [[MATH_0]]) and citation markers (such as [CIT_1]) exactly as they appear.
- Keep paragraph breaks and formatting from the source.
- Do not transliterate proper names that have an established %s form.`

// BuildSystemPrompt composes the system instruction for a translation
// request: the base translation rules, the glossary (sorted for a
// stable prompt, which keeps provider-side caching effective), and any
// per-request instruction such as a quality-retry hint.
func BuildSystemPrompt(req *interfaces.TranslationRequest) string {
	target := req.TargetLanguage
	if target == "" {
		target = "English"
	}

	var b strings.Builder
	fmt.Fprintf(&b, basePromptTemplate, target, target)

	if len(req.Glossary) > 0 {
		b.WriteString("\n\nUse these fixed renderings for domain terms:\n")
		terms := make([]string, 0, len(req.Glossary))
		for term := range req.Glossary {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		for _, term := range terms {
			fmt.Fprintf(&b, "- %s => %s\n", term, req.Glossary[term])
		}
	}

	if req.Instruction != "" {
		b.WriteString("\n")
		b.WriteString(req.Instruction)
	}

	return b.String()
}

// RetryInstruction is appended to a request when the first pass left
// source-script characters in the output and the quality filter asked
// for a targeted retry.
const RetryInstruction = "IMPORTANT: your previous attempt left untranslated source-language characters in the output. Translate every character into the target language; nothing from the source script may remain except inside preserved placeholders."
