package tools

import (
	"fmt"
)

// validateArgs checks an argument map against a tool's declared
// JSON-schema object: required keys must be present and every supplied
// key with a declared type must match it. Keys without a declared type
// pass through.
func validateArgs(toolName string, schema map[string]any, args map[string]any) error {
	if schema == nil {
		return nil
	}

	properties, _ := schema["properties"].(map[string]any)

	if required, ok := schema["required"].([]string); ok {
		for _, key := range required {
			if _, present := args[key]; !present {
				return &SchemaError{ToolName: toolName, Detail: fmt.Sprintf("missing required parameter %q", key)}
			}
		}
	} else if required, ok := schema["required"].([]any); ok {
		for _, k := range required {
			key, _ := k.(string)
			if _, present := args[key]; key != "" && !present {
				return &SchemaError{ToolName: toolName, Detail: fmt.Sprintf("missing required parameter %q", key)}
			}
		}
	}

	for key, value := range args {
		prop, ok := properties[key].(map[string]any)
		if !ok {
			continue
		}
		declared, _ := prop["type"].(string)
		if declared == "" {
			continue
		}
		if !matchesType(declared, value) {
			return &SchemaError{
				ToolName: toolName,
				Detail:   fmt.Sprintf("parameter %q must be of type %s", key, declared),
			}
		}
	}

	return nil
}

// matchesType checks a decoded JSON value against a schema type name.
// JSON numbers decode as float64, so "integer" accepts whole floats.
func matchesType(declared string, value any) bool {
	if value == nil {
		return true
	}
	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, ok := value.(float64)
		return ok
	case "integer":
		f, ok := value.(float64)
		return ok && f == float64(int64(f))
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	default:
		return true
	}
}
