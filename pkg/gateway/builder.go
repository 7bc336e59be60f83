package gateway

import (
	"fmt"

	"valet/pkg/api"
	"valet/pkg/monitor"
)

// GatewayBuilder provides a fluent builder pattern interface for
// constructing and initializing a GatewayManager with all its
// necessary dependencies.
//
// All components (channels, handler) are pre-built and injected as
// instances; the Builder simply assembles and starts them.
type GatewayBuilder struct {
	gw             *GatewayManager
	monitor        monitor.Monitor
	handlerBuilder func(api.MessageResponder) api.MessageProcessor
	channels       []api.Channel
	channelLoader  func(*GatewayManager)
}

// NewGatewayBuilder creates a fresh GatewayBuilder instance and
// allocates an internal GatewayManager to be configured.
func NewGatewayBuilder() *GatewayBuilder {
	return &GatewayBuilder{
		gw: NewGatewayManager(),
	}
}

// WithMonitor injects a monitoring implementation into the builder.
// This monitor will be started automatically during the Build() process.
func (b *GatewayBuilder) WithMonitor(m monitor.Monitor) *GatewayBuilder {
	b.monitor = m
	return b
}

// WithChannel adds pre-built channel instances to the gateway.
func (b *GatewayBuilder) WithChannel(channels ...api.Channel) *GatewayBuilder {
	b.channels = append(b.channels, channels...)
	return b
}

// WithChannelLoader registers a callback that builds channels from
// configuration and registers them on the manager directly. It runs
// during Build, before the channels are started.
func (b *GatewayBuilder) WithChannelLoader(loader func(*GatewayManager)) *GatewayBuilder {
	b.channelLoader = loader
	return b
}

// WithHandler injects a message handler instance into the gateway.
// If the handler implements api.ResponderAware, the gateway is wired
// in as its responder.
func (b *GatewayBuilder) WithHandler(h api.MessageProcessor) *GatewayBuilder {
	b.handlerBuilder = func(responder api.MessageResponder) api.MessageProcessor {
		if setter, ok := h.(api.ResponderAware); ok {
			setter.SetResponder(responder)
		}
		return h
	}
	return b
}

// Build finalizes the configuration, injects all dependencies into the
// GatewayManager, registers all channels, and starts everything.
// Returns the fully operational GatewayManager or an error if any
// stage fails.
func (b *GatewayBuilder) Build() (*GatewayManager, error) {
	if b.monitor != nil {
		b.gw.SetMonitor(b.monitor)
		if err := b.monitor.Start(); err != nil {
			return nil, fmt.Errorf("failed to start monitor: %w", err)
		}
	}

	for _, c := range b.channels {
		b.gw.Register(c)
	}

	if b.channelLoader != nil {
		b.channelLoader(b.gw)
	}

	if b.handlerBuilder != nil {
		handler := b.handlerBuilder(b.gw)
		if handler != nil {
			b.gw.SetMessageHandler(handler.OnMessage)
		}
	}

	if err := b.gw.StartAll(); err != nil {
		return nil, fmt.Errorf("failed to start channels: %w", err)
	}

	return b.gw, nil
}
