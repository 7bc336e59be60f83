package telegram

import (
	"fmt"

	"valet/pkg/channels"
	"valet/pkg/config"
	"valet/pkg/gateway"
	"valet/pkg/transcribe"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TelegramFactory builds Telegram channels from raw config.
type TelegramFactory struct{}

// Create implements channels.ChannelFactory.
func (f *TelegramFactory) Create(rawConfig jsoniter.RawMessage, transcriber transcribe.Transcriber, system *config.SystemConfig) (gateway.Channel, error) {
	var tgCfg TelegramConfig
	if err := json.Unmarshal(rawConfig, &tgCfg); err != nil {
		return nil, fmt.Errorf("failed to parse telegram config: %w", err)
	}

	if tgCfg.Token == "" {
		return nil, fmt.Errorf("missing telegram token")
	}

	return NewTelegramChannel(tgCfg, transcriber, system.TelegramMessageLimit, system.DownloadTimeoutMs)
}

func init() {
	channels.RegisterChannel("telegram", &TelegramFactory{})
}
