// Package tools provides the tool registry and execution framework.
//
// Every invocation is validated against the tool's declared parameter
// schema before the tool runs. Registered names must be unique; a
// duplicate registration replaces the previous tool.
package tools

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"valet/pkg/api"
	"valet/pkg/llm"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Registry holds available tools. It implements api.ToolRegistry.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]api.Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]api.Tool),
	}
}

// Register adds a tool to the registry, replacing any previous tool
// with the same name.
func (r *Registry) Register(tool api.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name()]; exists {
		slog.Warn("Replacing registered tool", "name", tool.Name())
	}
	r.tools[tool.Name()] = tool
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (api.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// GetAll returns all registered tools sorted by name.
func (r *Registry) GetAll() []api.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]api.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })
	return all
}

// Definitions returns the declarations sent to the model.
func (r *Registry) Definitions() []llm.ToolDefinition {
	all := r.GetAll()
	defs := make([]llm.ToolDefinition, 0, len(all))
	for _, t := range all {
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// Invoke validates and executes one tool call. The argument payload is
// the raw JSON string produced by the model.
//
// Error classes matter to the caller: *ErrToolNotFound aborts the
// agent's turn, *SchemaError and execution errors are recoverable and
// become observations for the model.
func (r *Registry) Invoke(ctx context.Context, name string, argsJSON string) (string, error) {
	tool, ok := r.Get(name)
	if !ok {
		return "", &ErrToolNotFound{ToolName: name}
	}

	args := make(map[string]any)
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return "", &SchemaError{ToolName: name, Detail: "arguments are not a valid JSON object"}
		}
	}

	if err := validateArgs(name, tool.Parameters(), args); err != nil {
		return "", err
	}

	slog.Debug("Executing tool", "name", name, "args", argsJSON)
	return tool.Execute(ctx, args)
}
