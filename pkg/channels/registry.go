// Package channels wires platform channel implementations into the
// gateway. Each platform registers a factory from its init(); the
// loader resolves factories by the channel names found in the config.
package channels

import (
	"valet/pkg/config"
	"valet/pkg/gateway"
	"valet/pkg/transcribe"

	jsoniter "github.com/json-iterator/go"
)

// ChannelFactory builds a channel from its raw JSON config block. The
// transcriber is shared infrastructure for channels that accept voice
// input; factories that don't need it ignore it.
type ChannelFactory interface {
	Create(rawConfig jsoniter.RawMessage, transcriber transcribe.Transcriber, system *config.SystemConfig) (gateway.Channel, error)
}

var channelRegistry = make(map[string]ChannelFactory)

// RegisterChannel registers a factory under a channel type name.
// Called from the init() of each platform package.
func RegisterChannel(name string, factory ChannelFactory) {
	channelRegistry[name] = factory
}

// GetChannelFactory looks up a registered factory.
func GetChannelFactory(name string) (ChannelFactory, bool) {
	factory, ok := channelRegistry[name]
	return factory, ok
}
