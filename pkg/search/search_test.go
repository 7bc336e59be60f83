package search

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

// mockProvider is a simple test provider.
type mockProvider struct {
	name    string
	results []Result
	err     error
}

func (m *mockProvider) Name() string { return m.name }
func (m *mockProvider) Search(_ context.Context, _ string, _ Options) ([]Result, error) {
	return m.results, m.err
}

func TestManagerSearch(t *testing.T) {
	mgr := NewManager("mock")
	mgr.Register(&mockProvider{
		name: "mock",
		results: []Result{
			{Title: "Test", URL: "https://example.com", Snippet: "A test result"},
		},
	})

	results, err := mgr.Search(context.Background(), "test", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Title != "Test" {
		t.Errorf("expected title 'Test', got %q", results[0].Title)
	}
}

func TestManagerUnconfigured(t *testing.T) {
	mgr := NewManager("missing")
	_, err := mgr.Search(context.Background(), "test", Options{})
	if err == nil {
		t.Fatal("expected error for missing provider")
	}
}

func TestFormatResults(t *testing.T) {
	results := []Result{
		{Title: "First", URL: "https://a.com", Snippet: "Snippet A"},
		{Title: "Second", URL: "https://b.com"},
	}
	out := FormatResults(results, 2)
	if out == "" {
		t.Fatal("expected non-empty output")
	}
	if !strings.Contains(out, "1. First") || !strings.Contains(out, "2. Second") {
		t.Errorf("expected numbered results, got %q", out)
	}
}

func TestFormatResultsEmpty(t *testing.T) {
	out := FormatResults(nil, 0)
	if out != "No results found." {
		t.Errorf("expected 'No results found.', got %q", out)
	}
}

func TestFormatResultsBounded(t *testing.T) {
	results := []Result{
		{Title: "A", URL: "https://a.com"},
		{Title: "B", URL: "https://b.com"},
		{Title: "C", URL: "https://c.com"},
	}
	out := FormatResults(results, 2)
	if strings.Contains(out, "C") {
		t.Errorf("expected results truncated to 2, got %q", out)
	}
}

const ddgPage = `
<html><body>
<div class="results">
  <div class="result results_links">
    <a class="result__a" href="/l/?uddg=https%3A%2F%2Fexample.com%2Fone">First Hit</a>
    <a class="result__snippet">Snippet one text.</a>
  </div>
  <div class="result results_links">
    <a class="result__a" href="https://example.com/two">Second Hit</a>
    <a class="result__snippet">Snippet two text.</a>
  </div>
  <div class="result">
    <span>malformed block without link</span>
  </div>
</div>
</body></html>`

func TestParseDuckDuckGoResults(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(ddgPage))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	results := parseResults(doc)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "First Hit" {
		t.Errorf("expected title 'First Hit', got %q", results[0].Title)
	}
	if results[0].URL != "https://example.com/one" {
		t.Errorf("expected redirect unwrapped, got %q", results[0].URL)
	}
	if results[1].URL != "https://example.com/two" {
		t.Errorf("expected plain URL kept, got %q", results[1].URL)
	}
	if results[0].Snippet != "Snippet one text." {
		t.Errorf("unexpected snippet %q", results[0].Snippet)
	}
}
