package web

import (
	"fmt"

	"valet/pkg/channels"
	"valet/pkg/config"
	"valet/pkg/gateway"
	"valet/pkg/transcribe"

	jsoniter "github.com/json-iterator/go"
)

// WebFactory builds Web channels from raw config.
type WebFactory struct{}

// Create implements channels.ChannelFactory. The web channel is text
// only, so the transcriber is unused.
func (f *WebFactory) Create(rawConfig jsoniter.RawMessage, _ transcribe.Transcriber, _ *config.SystemConfig) (gateway.Channel, error) {
	var pCfg WebConfig
	pCfg.Port = 8080

	if err := json.Unmarshal(rawConfig, &pCfg); err != nil {
		return nil, fmt.Errorf("failed to parse web config: %w", err)
	}

	return NewWebChannel(pCfg), nil
}

func init() {
	channels.RegisterChannel("web", &WebFactory{})
}
