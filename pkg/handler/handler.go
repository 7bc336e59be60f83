// Package handler bridges the gateway and the agent engine: one
// inbound message becomes one engine turn and one outbound reply.
package handler

import (
	"context"
	"log/slog"
	"time"

	"valet/pkg/api"
)

// ChatHandler forwards each unified message to the agent engine and
// delivers the reply. Each message runs in its own goroutine; ordering
// per user is enforced by the engine's session locking, so a slow turn
// never blocks other users.
type ChatHandler struct {
	engine    api.AgentEngine
	responder api.MessageResponder
}

// NewChatHandler creates a handler around the given engine.
func NewChatHandler(engine api.AgentEngine) *ChatHandler {
	return &ChatHandler{engine: engine}
}

// SetResponder implements api.ResponderAware.
func (h *ChatHandler) SetResponder(responder api.MessageResponder) {
	h.responder = responder
}

// OnMessage implements api.MessageProcessor.
func (h *ChatHandler) OnMessage(msg *api.UnifiedMessage) {
	go h.process(msg)
}

func (h *ChatHandler) process(msg *api.UnifiedMessage) {
	start := time.Now()
	session := msg.Session

	if err := h.responder.SendSignal(session, api.SignalTyping); err != nil {
		slog.Debug("Typing signal failed", "channel", session.ChannelID, "error", err)
	}

	reply := h.engine.Handle(context.Background(), session, msg.Content)

	if err := h.responder.SendReply(session, reply); err != nil {
		// Delivery failures are the channel's problem to surface; the
		// turn is already recorded.
		slog.Error("Reply delivery failed", "channel", session.ChannelID, "user", session.UserID, "error", err)
		return
	}

	slog.Info("Turn completed", "channel", session.ChannelID, "user", session.UserID, "duration", time.Since(start).Round(time.Millisecond))
}
