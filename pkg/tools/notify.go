package tools

import (
	"context"
	"fmt"

	"valet/pkg/api"
)

// NotifyTool forwards a short note from the assistant to a fixed
// operator destination on the originating channel. The model receives a
// fixed confirmation string regardless of message content.
type NotifyTool struct {
	responder api.MessageResponder
	operator  api.SessionContext
}

// NewNotifyTool creates the notify_operator tool targeting the given
// operator session.
func NewNotifyTool(responder api.MessageResponder, operator api.SessionContext) *NotifyTool {
	return &NotifyTool{
		responder: responder,
		operator:  operator,
	}
}

func (t *NotifyTool) Name() string {
	return "notify_operator"
}

func (t *NotifyTool) Description() string {
	return "Send a short notification message to the human operator. Use when the user asks to escalate or report something."
}

func (t *NotifyTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "The notification text to deliver to the operator.",
			},
		},
		"required": []string{"message"},
	}
}

func (t *NotifyTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	message, _ := args["message"].(string)
	if message == "" {
		return "", fmt.Errorf("notify_operator: message is required")
	}

	if err := t.responder.SendReply(t.operator, "🔔 "+message); err != nil {
		return "", fmt.Errorf("notify_operator: delivery failed: %w", err)
	}

	return "Notification delivered to the operator.", nil
}
