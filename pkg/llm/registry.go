package llm

import (
	"valet/pkg/config"
)

// ProviderGroupConfig describes one provider entry in the "llm" section
// of config.json.
type ProviderGroupConfig struct {
	Type    string         `json:"type"`
	APIKeys []string       `json:"api_keys,omitempty"`
	Models  []string       `json:"models"`
	BaseURL string         `json:"base_url,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// ProviderFactory builds one or more atomic clients from a group config.
type ProviderFactory interface {
	Create(groupConfig ProviderGroupConfig, systemConfig *config.SystemConfig) ([]Client, error)
}

var providerRegistry = make(map[string]ProviderFactory)

// RegisterProvider adds a provider factory to the global registry.
// Called from provider packages during init.
func RegisterProvider(name string, factory ProviderFactory) {
	providerRegistry[name] = factory
}

// GetProviderFactory returns the factory registered under name.
func GetProviderFactory(name string) (ProviderFactory, bool) {
	f, ok := providerRegistry[name]
	return f, ok
}
