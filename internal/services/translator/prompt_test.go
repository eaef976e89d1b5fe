package translator

import (
	"strings"
	"testing"

	"github.com/ternarybob/verto/internal/interfaces"
)

func TestBuildSystemPromptStableGlossaryOrder(t *testing.T) {
	req := &interfaces.TranslationRequest{
		TargetLanguage: "English",
		Glossary: map[string]string{
			"强化学习": "reinforcement learning",
			"卷积":   "convolution",
			"图神经网络": "graph neural network",
		},
	}

	first := BuildSystemPrompt(req)
	for i := 0; i < 20; i++ {
		if got := BuildSystemPrompt(req); got != first {
			t.Fatal("BuildSystemPrompt is not deterministic across calls")
		}
	}

	if !strings.Contains(first, "强化学习 => reinforcement learning") {
		t.Errorf("glossary term missing from prompt:\n%s", first)
	}
}

func TestBuildSystemPromptAppendsInstruction(t *testing.T) {
	req := &interfaces.TranslationRequest{
		TargetLanguage: "English",
		Instruction:    RetryInstruction,
	}

	prompt := BuildSystemPrompt(req)
	if !strings.HasSuffix(prompt, RetryInstruction) {
		t.Errorf("expected retry instruction at end of prompt:\n%s", prompt)
	}
}

func TestBuildSystemPromptDefaultsTargetLanguage(t *testing.T) {
	prompt := BuildSystemPrompt(&interfaces.TranslationRequest{Text: "x"})
	if !strings.Contains(prompt, "into English") {
		t.Errorf("expected default target language in prompt:\n%s", prompt)
	}
}
