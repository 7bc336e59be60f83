// Package gateway routes messages between channels and the message
// handler. Channels push inbound traffic through OnMessage; replies go
// back out through SendReply keyed by the session's channel ID.
package gateway

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"valet/pkg/monitor"
)

// GatewayManager owns all registered channels and routes traffic both
// ways. It implements api.ChannelContext.
type GatewayManager struct {
	channels   map[string]Channel
	msgHandler MessageHandler
	monitor    monitor.Monitor
	mu         sync.RWMutex
}

// NewGatewayManager creates an empty gateway manager.
func NewGatewayManager() *GatewayManager {
	return &GatewayManager{
		channels: make(map[string]Channel),
	}
}

// SetMessageHandler sets the core message processing logic.
func (g *GatewayManager) SetMessageHandler(handler MessageHandler) {
	g.msgHandler = handler
}

// SetMonitor sets the traffic monitor.
func (g *GatewayManager) SetMonitor(m monitor.Monitor) {
	g.monitor = m
}

// Register adds a channel to the gateway.
func (g *GatewayManager) Register(c Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[c.ID()] = c
}

// GetChannel returns a registered channel by ID.
func (g *GatewayManager) GetChannel(id string) (Channel, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.channels[id]
	return c, ok
}

// StartAll starts every registered channel.
func (g *GatewayManager) StartAll() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for id, c := range g.channels {
		slog.Info("Starting channel", "channel", id)
		if err := c.Start(g); err != nil {
			return fmt.Errorf("failed to start channel %s: %w", id, err)
		}
	}
	return nil
}

// StopAll stops every registered channel.
func (g *GatewayManager) StopAll() {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for id, c := range g.channels {
		slog.Info("Stopping channel", "channel", id)
		if err := c.Stop(); err != nil {
			slog.Error("Error stopping channel", "channel", id, "error", err)
		}
	}
}

// SendReply routes a reply back out through the originating channel.
func (g *GatewayManager) SendReply(session SessionContext, content string) error {
	slog.Debug("Gateway reply", "channel", session.ChannelID, "user", session.Username)

	if g.monitor != nil {
		g.monitor.OnMessage(monitor.MonitorMessage{
			Timestamp:   time.Now(),
			MessageType: "ASSISTANT",
			ChannelID:   session.ChannelID,
			Username:    session.Username,
			Content:     content,
		})
	}

	c, ok := g.GetChannel(session.ChannelID)
	if !ok {
		return fmt.Errorf("channel %s not found", session.ChannelID)
	}
	return c.Send(session, content)
}

// SendSignal sends a control signal (such as typing) to the channel.
// Channels without signal support ignore it silently.
func (g *GatewayManager) SendSignal(session SessionContext, signal string) error {
	c, ok := g.GetChannel(session.ChannelID)
	if !ok {
		return fmt.Errorf("channel %s not found", session.ChannelID)
	}

	if sc, ok := c.(SignalingChannel); ok {
		return sc.SendSignal(session, signal)
	}

	return nil
}

// OnMessage implements api.ChannelContext, receiving inbound messages
// from channels and forwarding them to the handler.
func (g *GatewayManager) OnMessage(channelID string, msg *UnifiedMessage) {
	slog.Info("Gateway received", "channel", channelID, "user", msg.Session.Username)

	if g.monitor != nil {
		g.monitor.OnMessage(monitor.MonitorMessage{
			Timestamp:   time.Now(),
			MessageType: "USER",
			ChannelID:   channelID,
			Username:    msg.Session.Username,
			Content:     msg.Content,
		})
	}

	if g.msgHandler != nil {
		g.msgHandler(msg)
	} else {
		slog.Warn("No message handler set")
	}
}
