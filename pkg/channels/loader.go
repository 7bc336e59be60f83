package channels

import (
	"log/slog"

	"valet/pkg/config"
	"valet/pkg/gateway"
	"valet/pkg/transcribe"

	jsoniter "github.com/json-iterator/go"
)

// LoadFromConfig acts as the central orchestration point for dynamic
// channel initialization. It iterates through the provided configuration
// map, resolves factories, and registers the resulting channels with
// the GatewayManager.
func LoadFromConfig(gw *gateway.GatewayManager, configs map[string]jsoniter.RawMessage, transcriber transcribe.Transcriber, system *config.SystemConfig) {
	for name, rawConfig := range configs {
		factory, ok := GetChannelFactory(name)
		if !ok {
			slog.Warn("Unknown channel type", "name", name)
			continue
		}

		channel, err := factory.Create(rawConfig, transcriber, system)
		if err != nil {
			slog.Error("Failed to create channel", "name", name, "error", err)
			continue
		}

		// A nil channel without an error means the factory chose to
		// skip (e.g. disabled by config).
		if channel == nil {
			continue
		}

		gw.Register(channel)
		slog.Info("Channel registered", "name", name)
	}
}
