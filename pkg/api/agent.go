package api

import (
	"context"
)

// AgentEngine defines the interface for the core reasoning engine. Handle
// is synchronous and always returns a non-empty reply text; failures
// surface as fixed fallback messages rather than errors.
type AgentEngine interface {
	Handle(ctx context.Context, session SessionContext, input string) string
	RegisterTool(tools ...Tool)
}
