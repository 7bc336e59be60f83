package telegram

import (
	"strings"
	"testing"
)

func TestSplitMessageShort(t *testing.T) {
	chunks := splitMessage("hello", 10)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Fatalf("short message must pass through untouched, got %v", chunks)
	}
}

func TestSplitMessageChunksByRunes(t *testing.T) {
	chunks := splitMessage("héllo wörld", 4)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	if got := strings.Join(chunks, ""); got != "héllo wörld" {
		t.Fatalf("chunks must reassemble to the original, got %q", got)
	}
	for _, c := range chunks {
		if n := len([]rune(c)); n > 4 {
			t.Fatalf("chunk %q exceeds limit with %d runes", c, n)
		}
	}
}

func TestSplitMessageExactMultiple(t *testing.T) {
	chunks := splitMessage("abcdef", 3)
	if len(chunks) != 2 || chunks[0] != "abc" || chunks[1] != "def" {
		t.Fatalf("expected two even chunks, got %v", chunks)
	}
}

func TestSplitMessageZeroLimitTerminates(t *testing.T) {
	msg := strings.Repeat("x", 10000)

	chunks := splitMessage(msg, 0)
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for _, c := range chunks {
		if len([]rune(c)) > 4096 {
			t.Fatalf("zero limit must floor to the platform cap, got chunk of %d runes", len([]rune(c)))
		}
	}
	if got := strings.Join(chunks, ""); got != msg {
		t.Fatal("chunks must reassemble to the original message")
	}
}
