package tools

import "fmt"

// ErrToolNotFound is returned when a tool call targets a name that is
// not present in the registry. This indicates the model hallucinated a
// capability, not a transient execution failure. Callers should abort
// the iteration loop rather than retrying.
type ErrToolNotFound struct {
	ToolName string
}

// Error implements the error interface.
func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("tool %q is not registered", e.ToolName)
}

// SchemaError is returned when supplied arguments fail validation
// against the tool's declared parameter schema. The tool is never
// executed. The message is safe to feed back to the model as an
// observation so it can correct itself.
type SchemaError struct {
	ToolName string
	Detail   string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.ToolName, e.Detail)
}
