package gemini

import (
	"context"
	"log"
	"strings"

	"valet/pkg/llm"
	"valet/pkg/utils"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/genai"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GeminiClient Google Gemini API client
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client with a single model and API key
func NewGeminiClient(apiKey string, model string) *GeminiClient {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatalf("❌ Fatal: Failed to create Gemini client: %v", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
	}
}

func (g *GeminiClient) Provider() string {
	return "gemini"
}

// Chat implements llm.Client with a single blocking GenerateContent call.
func (g *GeminiClient) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (*llm.Response, error) {
	apiMessages, systemInstruction := g.convertMessages(messages)

	var genaiTools []*genai.Tool
	if len(tools) > 0 {
		var fds []*genai.FunctionDeclaration
		for _, t := range tools {
			fd := &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
			}
			if t.Parameters != nil {
				schemaB, _ := json.Marshal(t.Parameters)
				var schema genai.Schema
				json.Unmarshal(schemaB, &schema)
				fd.Parameters = &schema
			}
			fds = append(fds, fd)
		}
		genaiTools = append(genaiTools, &genai.Tool{
			FunctionDeclarations: fds,
		})
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, apiMessages, &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Tools:             genaiTools,
	})
	if err != nil {
		return nil, err
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return &llm.Response{StopReason: llm.StopReasonStop}, nil
	}

	candidate := result.Candidates[0]
	resp := &llm.Response{StopReason: llm.StopReasonStop}

	switch candidate.FinishReason {
	case genai.FinishReasonMaxTokens:
		resp.StopReason = llm.StopReasonLength
	}

	for _, part := range candidate.Content.Parts {
		if part.Text != "" && !part.Thought {
			resp.Content = append(resp.Content, llm.NewTextBlock(part.Text))
		}

		if part.FunctionCall != nil {
			// Gemini does not assign call IDs, so synthesize one to keep
			// the call/observation pairing intact across rounds.
			argsB, _ := json.Marshal(part.FunctionCall.Args)
			callID := part.FunctionCall.ID
			if callID == "" {
				callID = utils.GenerateID()
			}
			resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
				ID:   callID,
				Name: part.FunctionCall.Name,
				Function: llm.FunctionCall{
					Name:      part.FunctionCall.Name,
					Arguments: string(argsB),
				},
			})
		}
	}

	if len(resp.ToolCalls) > 0 {
		resp.StopReason = llm.StopReasonToolCalls
	}

	if result.UsageMetadata != nil {
		u := result.UsageMetadata
		resp.Usage = &llm.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}

	return resp, nil
}

// convertMessages converts message list to GenAI format
func (g *GeminiClient) convertMessages(messages []llm.Message) ([]*genai.Content, *genai.Content) {
	var genaiContents []*genai.Content
	var systemInstruction *genai.Content

	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			// System role as SystemInstruction
			var parts []*genai.Part
			for _, block := range msg.Content {
				if block.Type == llm.BlockTypeText && block.Text != "" {
					parts = append(parts, &genai.Part{Text: block.Text})
				}
			}
			if len(parts) > 0 {
				systemInstruction = &genai.Content{Parts: parts}
			}
			continue
		}

		if msg.Role == llm.RoleTool {
			// Tool results are part of user role in Gemini
			name := msg.ToolName
			if name == "" {
				name = msg.ToolCallID
			}
			genaiContents = append(genaiContents, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{
					{
						FunctionResponse: &genai.FunctionResponse{
							ID:       msg.ToolCallID,
							Name:     name,
							Response: map[string]any{"result": msg.GetTextContent()},
						},
					},
				},
			})
			continue
		}

		role := "user"
		if msg.Role == llm.RoleAssistant {
			role = "model"
		}

		var parts []*genai.Part
		// Gemini requires echoing earlier FunctionCall parts before their
		// responses.
		for _, tc := range msg.ToolCalls {
			var args map[string]any
			json.Unmarshal([]byte(tc.Function.Arguments), &args)
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   tc.ID,
					Name: tc.Function.Name,
					Args: args,
				},
			})
		}

		for _, block := range msg.Content {
			if block.Type == llm.BlockTypeText && block.Text != "" {
				parts = append(parts, &genai.Part{Text: block.Text})
			}
		}

		if len(parts) > 0 {
			genaiContents = append(genaiContents, &genai.Content{
				Role:  role,
				Parts: parts,
			})
		}
	}

	return genaiContents, systemInstruction
}

// IsTransientError implements the llm.Client interface
func (g *GeminiClient) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()

	// 1. Google API common 503 Service Unavailable / Overloaded
	if strings.Contains(errMsg, "503") || strings.Contains(strings.ToLower(errMsg), "overloaded") {
		return true
	}

	// 2. 429 Too Many Requests (Rate Limit)
	if strings.Contains(errMsg, "429") || strings.Contains(strings.ToLower(errMsg), "resource exhausted") {
		return true
	}

	// 3. 500 Internal Error (Occasional Google Gemini crashes)
	if strings.Contains(errMsg, "500") || strings.Contains(strings.ToLower(errMsg), "internal error") {
		return true
	}

	return false
}
