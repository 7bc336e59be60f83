package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// json is the package-wide JSON codec, kept on json-iterator for parity
// with the rest of the system.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client is the unified LLM provider interface. One call covers one
// model round: given the full conversation so far and the available
// tool definitions, the provider returns either a final answer or a
// set of tool-call requests.
type Client interface {
	// Chat performs a single blocking completion request.
	Chat(ctx context.Context, messages []Message, tools []ToolDefinition) (*Response, error)

	// IsTransientError reports whether the error is worth retrying
	// (rate limits, 5xx, network timeouts).
	IsTransientError(err error) bool
}

// FallbackClient tries each wrapped client in order, retrying transient
// failures per client before moving to the next one.
type FallbackClient struct {
	Clients    []Client
	MaxRetries int
	RetryDelay time.Duration
}

// Chat implements Client.
func (f *FallbackClient) Chat(ctx context.Context, messages []Message, tools []ToolDefinition) (*Response, error) {
	var lastErr error

	for i, client := range f.Clients {
		if i > 0 {
			slog.Warn("Provider failed, trying fallback", "provider_index", i+1)
		}

		maxRetries := f.MaxRetries
		if maxRetries <= 0 {
			maxRetries = 1
		}

		for retry := 1; retry <= maxRetries; retry++ {
			if retry > 1 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Duration(retry-1) * f.RetryDelay):
				}
			}

			resp, err := client.Chat(ctx, messages, tools)
			if err == nil {
				return resp, nil
			}
			lastErr = err

			if client.IsTransientError(err) && retry < maxRetries {
				slog.Warn("Transient provider error, retrying", "provider_index", i+1, "attempt", retry, "error", err)
				continue
			}

			slog.Error("Provider failed", "provider_index", i+1, "error", err)
			break
		}
	}

	return nil, fmt.Errorf("all providers failed, last error: %w", lastErr)
}

// IsTransientError implements Client. A FallbackClient error means every
// wrapped client already exhausted its retries, so it is final.
func (f *FallbackClient) IsTransientError(err error) bool {
	return false
}
