package tools

import (
	"context"
	"fmt"

	"valet/pkg/mail"
)

// MailboxListTool lists recent messages from the assistant's mailbox.
type MailboxListTool struct {
	client *mail.Client
}

// NewMailboxListTool wraps an IMAP client as the mailbox_list tool.
func NewMailboxListTool(client *mail.Client) *MailboxListTool {
	return &MailboxListTool{client: client}
}

func (t *MailboxListTool) Name() string {
	return "mailbox_list"
}

func (t *MailboxListTool) Description() string {
	return "List recent email messages in the mailbox, newest first. Unread messages are marked with *."
}

func (t *MailboxListTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"folder": map[string]any{
				"type":        "string",
				"description": "Mailbox folder to read. Default: INBOX.",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of messages to list (default 10).",
			},
			"unseen_only": map[string]any{
				"type":        "boolean",
				"description": "When true, list only unread messages.",
			},
		},
	}
}

func (t *MailboxListTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	opts := mail.ListOptions{Limit: 10}

	if folder, ok := args["folder"].(string); ok {
		opts.Folder = folder
	}
	if limit, ok := args["limit"].(float64); ok && limit > 0 {
		opts.Limit = int(limit)
	}
	if unseen, ok := args["unseen_only"].(bool); ok {
		opts.Unseen = unseen
	}

	envelopes, err := t.client.ListMessages(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("mailbox_list: %w", err)
	}

	return mail.FormatEnvelopes(envelopes), nil
}

// MailboxSendTool sends an email from the assistant's account.
type MailboxSendTool struct {
	smtp mail.SMTPConfig
	from string
}

// NewMailboxSendTool creates the mailbox_send tool with the account's
// SMTP settings and default From address.
func NewMailboxSendTool(smtp mail.SMTPConfig, from string) *MailboxSendTool {
	return &MailboxSendTool{smtp: smtp, from: from}
}

func (t *MailboxSendTool) Name() string {
	return "mailbox_send"
}

func (t *MailboxSendTool) Description() string {
	return "Send an email from the assistant's account. The body may use markdown formatting."
}

func (t *MailboxSendTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to": map[string]any{
				"type":        "string",
				"description": "Recipient email address.",
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "Message subject line.",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Message body in markdown.",
			},
		},
		"required": []string{"to", "subject", "body"},
	}
}

func (t *MailboxSendTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	to, _ := args["to"].(string)
	subject, _ := args["subject"].(string)
	body, _ := args["body"].(string)

	msg, err := mail.ComposeMessage(mail.ComposeOptions{
		From:    t.from,
		To:      []string{to},
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return "", fmt.Errorf("mailbox_send: compose: %w", err)
	}

	recipients := mail.CollectRecipients([]string{to}, nil, nil)
	if err := mail.SendMail(ctx, t.smtp, t.from, recipients, msg); err != nil {
		return "", fmt.Errorf("mailbox_send: %w", err)
	}

	return fmt.Sprintf("Email sent to %s.", to), nil
}
