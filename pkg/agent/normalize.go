package agent

import (
	"fmt"
	"strings"

	"valet/pkg/llm"
)

// Normalize flattens model response content into a display string.
// Text blocks are concatenated in order; every other block kind is
// dropped. It never fails: unknown shapes produce an empty string.
func Normalize(blocks []llm.ContentBlock) string {
	var b strings.Builder
	for _, block := range blocks {
		if block.Type == llm.BlockTypeText {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// NormalizeAny coerces loosely-shaped content into a display string.
// Accepts a plain string, []llm.ContentBlock, or a decoded JSON block
// list ([]any of maps with "type"/"text"). Any other shape falls back
// to its textual representation.
func NormalizeAny(content any) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	case []llm.ContentBlock:
		return Normalize(v)
	case llm.ContentBlock:
		return Normalize([]llm.ContentBlock{v})
	case []any:
		var b strings.Builder
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := m["type"].(string); t == llm.BlockTypeText {
				if text, ok := m["text"].(string); ok {
					b.WriteString(text)
				}
			}
		}
		return b.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
