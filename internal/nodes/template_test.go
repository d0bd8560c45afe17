package nodes

import (
	"strings"
	"testing"
)

func TestRenderPromptSubstitutesPlaceholders(t *testing.T) {
	input := map[string]any{"topic": "otters", "count": 3}
	got := renderPrompt("Write {{count}} facts about {{topic}}.", input)

	if !strings.Contains(got, "Write 3 facts about otters.") {
		t.Fatalf("placeholders not substituted: %q", got)
	}
	if !strings.HasPrefix(got, "Context from previous step:\n") {
		t.Fatalf("upstream context not prepended: %q", got)
	}
	if !strings.Contains(got, `"topic": "otters"`) {
		t.Fatalf("context dump missing upstream fields: %q", got)
	}
}

func TestRenderPromptNonObjectInput(t *testing.T) {
	got := renderPrompt("Summarize {{text}}.", "plain string upstream")

	// No substitution source, but the upstream value still appears as context.
	if !strings.Contains(got, "Summarize {{text}}.") {
		t.Fatalf("prompt body altered: %q", got)
	}
	if !strings.Contains(got, "plain string upstream") {
		t.Fatalf("upstream value missing from context: %q", got)
	}
}

func TestRenderPromptNilInput(t *testing.T) {
	got := renderPrompt("Just do it.", nil)
	if got != "Just do it." {
		t.Fatalf("nil input should leave the prompt untouched, got %q", got)
	}
}
