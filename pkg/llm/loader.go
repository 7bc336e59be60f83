package llm

import (
	"fmt"
	"log/slog"
	"time"

	"valet/pkg/config"

	jsoniter "github.com/json-iterator/go"
)

// NewFromConfig builds the LLM client stack from the raw "llm" config
// section. Multiple groups become a FallbackClient chain in config order.
func NewFromConfig(rawLLM jsoniter.RawMessage, system *config.SystemConfig) (Client, error) {
	if rawLLM == nil {
		return nil, fmt.Errorf("missing 'llm' config")
	}

	var groups []ProviderGroupConfig
	if err := json.Unmarshal(rawLLM, &groups); err != nil {
		return nil, fmt.Errorf("failed to parse 'llm' config: %w", err)
	}

	var allClients []Client
	for _, group := range groups {
		slog.Info("Loading LLM group", "type", group.Type, "models", len(group.Models))

		factory, ok := GetProviderFactory(group.Type)
		if !ok {
			slog.Warn("Unknown provider type", "type", group.Type)
			continue
		}

		clients, err := factory.Create(group, system)
		if err != nil {
			slog.Warn("Failed to create clients", "type", group.Type, "error", err)
			continue
		}
		allClients = append(allClients, clients...)
	}

	if len(allClients) == 0 {
		return nil, fmt.Errorf("no LLM clients could be initialized")
	}

	slog.Info("LLM clients initialized", "count", len(allClients))

	if len(allClients) == 1 {
		return allClients[0], nil
	}

	return &FallbackClient{
		Clients:    allClients,
		MaxRetries: system.MaxRetries,
		RetryDelay: time.Duration(system.RetryDelayMs) * time.Millisecond,
	}, nil
}
