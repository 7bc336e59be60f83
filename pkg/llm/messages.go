package llm

import "time"

// Message represents one entry in a conversation sent to a provider.
type Message struct {
	ID        string         `json:"id,omitempty"`
	Role      string         `json:"role"` // "system", "user", "assistant", "tool"
	Content   []ContentBlock `json:"content"`
	Timestamp int64          `json:"timestamp,omitempty"`

	// ToolCalls holds tool invocation requests produced by the model
	// (role "assistant" only).
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a tool-observation message back to the call that
	// produced it (role "tool" only).
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the concrete tool name and its raw JSON arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

// ContentBlock is one segment of message content. Only text-like blocks
// exist in this pipeline; unknown kinds pass through and are dropped at
// normalization time.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ToolDefinition describes a callable tool to the provider: a unique
// name, a human-readable description, and a JSON-schema parameter map.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Response is the provider's answer for one chat request. Exactly one of
// two shapes is meaningful: a final answer (Content, no ToolCalls) or a
// tool-call request (ToolCalls set, Content possibly empty).
type Response struct {
	Content    []ContentBlock `json:"content"`
	ToolCalls  []ToolCall     `json:"tool_calls,omitempty"`
	Usage      *Usage         `json:"usage,omitempty"`
	StopReason string         `json:"stop_reason,omitempty"`
}

// HasToolCalls reports whether the model asked for tool execution.
func (r *Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// Usage carries normalized token accounting for one request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewTextMessage builds a plain-text message with the given role.
func NewTextMessage(role, text string) Message {
	return Message{
		Role:      role,
		Content:   []ContentBlock{{Type: BlockTypeText, Text: text}},
		Timestamp: time.Now().Unix(),
	}
}

// NewSystemMessage builds a system message.
func NewSystemMessage(text string) Message {
	return NewTextMessage(RoleSystem, text)
}

// NewUserMessage builds a user message.
func NewUserMessage(text string) Message {
	return NewTextMessage(RoleUser, text)
}

// NewAssistantMessage builds an assistant message.
func NewAssistantMessage(text string) Message {
	return NewTextMessage(RoleAssistant, text)
}

// NewToolMessage builds a tool-observation message for the given call.
func NewToolMessage(callID, toolName, result string) Message {
	return Message{
		Role:       RoleTool,
		Content:    []ContentBlock{{Type: BlockTypeText, Text: result}},
		ToolCallID: callID,
		ToolName:   toolName,
		Timestamp:  time.Now().Unix(),
	}
}

// NewTextBlock builds a text content block.
func NewTextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockTypeText, Text: text}
}

// AddContentBlock appends a content block to the message.
func (m *Message) AddContentBlock(block ContentBlock) {
	m.Content = append(m.Content, block)
}

// GetTextContent concatenates all text blocks, excluding thinking.
func (m *Message) GetTextContent() string {
	var result string
	for _, block := range m.Content {
		if block.Type == BlockTypeText {
			result += block.Text
		}
	}
	return result
}
