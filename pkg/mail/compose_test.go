package mail

import (
	"strings"
	"testing"
)

func TestComposeMessage(t *testing.T) {
	msg, err := ComposeMessage(ComposeOptions{
		From:    "Valet <bot@example.com>",
		To:      []string{"alice@example.com"},
		Subject: "Hello",
		Body:    "Plain **bold** body",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := string(msg)
	for _, want := range []string{
		"Subject: Hello",
		"From:",
		"bot@example.com",
		"To:",
		"alice@example.com",
		"multipart/alternative",
		"text/plain",
		"text/html",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("composed message missing %q", want)
		}
	}
	if strings.Contains(s, "**bold**") && !strings.Contains(s, "<strong>") {
		t.Error("expected markdown rendered to HTML in alternative part")
	}
}

func TestComposeMessageBadFrom(t *testing.T) {
	_, err := ComposeMessage(ComposeOptions{
		From:    "not an address",
		To:      []string{"alice@example.com"},
		Subject: "x",
	})
	if err == nil {
		t.Fatal("expected error for malformed from address")
	}
}

func TestMarkdownToPlain(t *testing.T) {
	got := markdownToPlain("# Title\n**bold** and [link](https://a.com)")
	if strings.Contains(got, "#") || strings.Contains(got, "**") {
		t.Errorf("markdown characters not stripped: %q", got)
	}
	if !strings.Contains(got, "link (https://a.com)") {
		t.Errorf("expected link rendered inline, got %q", got)
	}
}
