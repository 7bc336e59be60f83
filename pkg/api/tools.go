package api

import (
	"context"
)

// Tool defines the structural interface for any capability the agent can
// execute. Metadata feeds the model's tool declarations; Execute runs the
// logic and returns a text observation for the model to read.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON-schema object describing the tool's
	// arguments: {"type": "object", "properties": {...}, "required": [...]}.
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// ToolRegistry defines the interface for managing and accessing tools.
type ToolRegistry interface {
	Register(tool Tool)
	Unregister(name string)
	Get(name string) (Tool, bool)
	GetAll() []Tool
}
