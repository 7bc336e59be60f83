package agent

import (
	"testing"

	"valet/pkg/llm"
)

func TestNormalizeConcatenatesText(t *testing.T) {
	blocks := []llm.ContentBlock{
		{Type: llm.BlockTypeText, Text: "a"},
		{Type: "image", Text: "x"},
		{Type: llm.BlockTypeText, Text: "b"},
	}
	if got := Normalize(blocks); got != "ab" {
		t.Errorf("expected non-text blocks dropped, got %q", got)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if got := Normalize(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
	if got := Normalize([]llm.ContentBlock{}); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestNormalizeAny(t *testing.T) {
	if got := NormalizeAny("hello"); got != "hello" {
		t.Errorf("plain string must pass through, got %q", got)
	}

	decoded := []any{
		map[string]any{"type": "text", "text": "a"},
		map[string]any{"type": "image", "url": "x"},
		map[string]any{"type": "text", "text": "b"},
	}
	if got := NormalizeAny(decoded); got != "ab" {
		t.Errorf("decoded block list must flatten to text, got %q", got)
	}

	if got := NormalizeAny(nil); got != "" {
		t.Errorf("nil must normalize to empty, got %q", got)
	}
	if got := NormalizeAny(42); got != "42" {
		t.Errorf("unknown shapes must fall back to their textual form, got %q", got)
	}
}
