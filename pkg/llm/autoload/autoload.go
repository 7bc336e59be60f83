// Package autoload registers every built-in LLM provider factory via
// side-effect imports. Import it blank from main.
package autoload

import (
	_ "valet/pkg/llm/gemini"
	_ "valet/pkg/llm/ollama"
	_ "valet/pkg/llm/openaillm"
)
