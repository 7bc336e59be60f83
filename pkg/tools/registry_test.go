package tools

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeTool is a configurable test tool.
type fakeTool struct {
	name   string
	params map[string]any
	run    func(ctx context.Context, args map[string]any) (string, error)
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "test tool" }
func (f *fakeTool) Parameters() map[string]any {
	if f.params != nil {
		return f.params
	}
	return map[string]any{"type": "object", "properties": map[string]any{}}
}
func (f *fakeTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	if f.run != nil {
		return f.run(ctx, args)
	}
	return "ok", nil
}

func echoSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text":  map[string]any{"type": "string"},
			"count": map[string]any{"type": "integer"},
		},
		"required": []string{"text"},
	}
}

func TestInvokeUnknownTool(t *testing.T) {
	r := NewRegistry()

	_, err := r.Invoke(context.Background(), "does_not_exist", "{}")
	var notFound *ErrToolNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
	if notFound.ToolName != "does_not_exist" {
		t.Errorf("expected tool name in error, got %q", notFound.ToolName)
	}
}

func TestInvokeValidatesBeforeExecution(t *testing.T) {
	executed := false
	r := NewRegistry()
	r.Register(&fakeTool{
		name:   "echo",
		params: echoSchema(),
		run: func(ctx context.Context, args map[string]any) (string, error) {
			executed = true
			return args["text"].(string), nil
		},
	})

	// Missing required parameter.
	_, err := r.Invoke(context.Background(), "echo", `{}`)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError for missing required arg, got %v", err)
	}
	if executed {
		t.Fatal("tool must not execute when validation fails")
	}

	// Wrong type.
	_, err = r.Invoke(context.Background(), "echo", `{"text": 42}`)
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError for wrong type, got %v", err)
	}
	if executed {
		t.Fatal("tool must not execute when validation fails")
	}

	// Valid call.
	out, err := r.Invoke(context.Background(), "echo", `{"text": "hi", "count": 3}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hi" {
		t.Errorf("expected echo output, got %q", out)
	}
	if !executed {
		t.Fatal("tool should have executed")
	}
}

func TestInvokeMalformedArguments(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "echo", params: echoSchema()})

	_, err := r.Invoke(context.Background(), "echo", `not json`)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError for malformed JSON, got %v", err)
	}
}

func TestInvokeExecutionErrorPassesThrough(t *testing.T) {
	sentinel := fmt.Errorf("backend down")
	r := NewRegistry()
	r.Register(&fakeTool{
		name: "flaky",
		run: func(ctx context.Context, args map[string]any) (string, error) {
			return "", sentinel
		},
	})

	_, err := r.Invoke(context.Background(), "flaky", "{}")
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected execution error passed through, got %v", err)
	}
	var notFound *ErrToolNotFound
	if errors.As(err, &notFound) {
		t.Fatal("execution error must not be classified as not-found")
	}
}

func TestInvokeIntegerAcceptsWholeFloat(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "echo", params: echoSchema()})

	if _, err := r.Invoke(context.Background(), "echo", `{"text": "x", "count": 2}`); err != nil {
		t.Fatalf("whole JSON number must satisfy integer, got %v", err)
	}
	_, err := r.Invoke(context.Background(), "echo", `{"text": "x", "count": 2.5}`)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("fractional number must fail integer check, got %v", err)
	}
}

func TestDefinitionsSortedAndComplete(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "zeta"})
	r.Register(&fakeTool{name: "alpha"})

	defs := r.Definitions()
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Name != "alpha" || defs[1].Name != "zeta" {
		t.Errorf("expected sorted definitions, got %v, %v", defs[0].Name, defs[1].Name)
	}
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "gone"})
	r.Unregister("gone")

	if _, ok := r.Get("gone"); ok {
		t.Fatal("expected tool removed")
	}
}
