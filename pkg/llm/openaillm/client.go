package openaillm

import (
	"context"
	"strings"

	"valet/pkg/llm"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared"
)

// Client is a wrapper around the official OpenAI Go SDK. It also serves
// any OpenAI-compatible endpoint via base_url (DeepSeek, OpenRouter,
// local gateways).
type Client struct {
	client   *openai.Client
	provider string
	model    string
	options  map[string]any
}

// NewClient creates a new OpenAI client.
func NewClient(provider string, apiKey string, model string, baseURL string, options map[string]any) (*Client, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)

	return &Client{
		client:   &client,
		provider: provider,
		model:    model,
		options:  options,
	}, nil
}

func (c *Client) Provider() string {
	return c.provider
}

func (c *Client) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())

	// Transient: network-level issues
	if strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "timeout") {
		return true
	}

	// Transient: server-side temporary failures
	if strings.Contains(msg, "429") ||
		strings.Contains(msg, "500 internal") ||
		strings.Contains(msg, "502 bad gateway") ||
		strings.Contains(msg, "503 service unavailable") ||
		strings.Contains(msg, "overloaded") {
		return true
	}

	// Everything else (400 Bad Request, 401 Unauthorized, etc.) is non-transient
	return false
}

// Chat implements llm.Client with a single blocking completion request.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (*llm.Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: c.convertMessages(messages),
	}

	// Handle unified "temperature" option (optional)
	if t, ok := c.options["temperature"].(float64); ok {
		params.Temperature = param.NewOpt(t)
	}

	// Handle unified "top_p" option (optional)
	if p, ok := c.options["top_p"].(float64); ok {
		params.TopP = param.NewOpt(p)
	}

	// Handle unified "max_tokens" option (mapped to max_completion_tokens for newer models)
	if maxTok, ok := c.options["max_tokens"].(float64); ok {
		params.MaxCompletionTokens = param.NewOpt(int64(maxTok))
	}

	if converted := c.convertTools(tools); len(converted) > 0 {
		params.Tools = converted
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return &llm.Response{StopReason: llm.StopReasonStop}, nil
	}

	choice := completion.Choices[0]
	resp := &llm.Response{
		StopReason: normalizeStopReason(choice.FinishReason),
	}

	if choice.Message.Content != "" {
		resp.Content = append(resp.Content, llm.NewTextBlock(choice.Message.Content))
	}

	for _, tc := range choice.Message.ToolCalls {
		fn := tc.AsFunction()
		resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
			ID:   fn.ID,
			Name: fn.Function.Name,
			Function: llm.FunctionCall{
				Name:      fn.Function.Name,
				Arguments: fn.Function.Arguments,
			},
		})
	}

	if completion.Usage.TotalTokens > 0 {
		resp.Usage = &llm.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		}
	}

	return resp, nil
}

func (c *Client) convertMessages(messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	items := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			items = append(items, openai.SystemMessage(m.GetTextContent()))
		case llm.RoleUser:
			items = append(items, openai.UserMessage(m.GetTextContent()))
		case llm.RoleAssistant:
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if text := m.GetTextContent(); text != "" {
				assistant.Content.OfString = param.NewOpt(text)
			}
			for _, tc := range m.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Function.Name,
							Arguments: tc.Function.Arguments,
						},
					},
				})
			}
			items = append(items, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case llm.RoleTool:
			items = append(items, openai.ToolMessage(m.GetTextContent(), m.ToolCallID))
		}
	}

	return items
}

func (c *Client) convertTools(tools []llm.ToolDefinition) []openai.ChatCompletionToolUnionParam {
	var converted []openai.ChatCompletionToolUnionParam
	for _, t := range tools {
		converted = append(converted, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  shared.FunctionParameters(t.Parameters),
		}))
	}
	return converted
}

// normalizeStopReason converts OpenAI-specific finish_reason to
// a standardized lowercase format.
func normalizeStopReason(reason string) string {
	switch strings.ToLower(reason) {
	case "stop":
		return llm.StopReasonStop
	case "length":
		return llm.StopReasonLength
	case "tool_calls", "function_call":
		return llm.StopReasonToolCalls
	default:
		return reason
	}
}
