package tools

import (
	"context"
	"fmt"

	"valet/pkg/search"
)

// SearchTool exposes web search to the model. Results are bounded and
// rendered as a numbered text list.
type SearchTool struct {
	manager    *search.Manager
	maxResults int
}

// NewSearchTool wraps a search manager as an agent tool.
func NewSearchTool(manager *search.Manager, maxResults int) *SearchTool {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &SearchTool{
		manager:    manager,
		maxResults: maxResults,
	}
}

func (t *SearchTool) Name() string {
	return "web_search"
}

func (t *SearchTool) Description() string {
	return "Search the web for current information. Returns the top results with title, URL and snippet."
}

func (t *SearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query string.",
			},
			"count": map[string]any{
				"type":        "integer",
				"description": fmt.Sprintf("Maximum number of results to return (1-%d). Default: %d.", t.maxResults, t.maxResults),
			},
		},
		"required": []string{"query"},
	}
}

func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return "", fmt.Errorf("web_search: query is required")
	}

	count := t.maxResults
	if c, ok := args["count"].(float64); ok && c > 0 && int(c) < count {
		count = int(c)
	}

	results, err := t.manager.Search(ctx, query, search.Options{Count: count})
	if err != nil {
		return "", err
	}

	return search.FormatResults(results, count), nil
}
