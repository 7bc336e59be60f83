// Package agent implements the bounded reasoning loop that turns one
// user input into one delivered reply.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"valet/pkg/api"
	"valet/pkg/config"
	"valet/pkg/llm"
	"valet/pkg/session"
	"valet/pkg/tools"
)

// Fixed user-facing strings. Every failure path terminates in one of
// these instead of propagating an error to the channel layer.
const (
	// ApologyResponse covers model failures and tool contract
	// violations.
	ApologyResponse = "I'm sorry, something went wrong while processing your request. Please try again."

	// IncompleteResponse is returned when the round cap fires.
	IncompleteResponse = "I'm sorry, I was unable to complete this request. Please try rephrasing it."

	// DefaultResponse fills in when the model returns empty content.
	DefaultResponse = "I'm not sure how to respond to that."
)

// Engine drives the model/tool cycle for each user turn. Turns for the
// same user are serialized by the session store; different users run
// concurrently.
type Engine struct {
	client       llm.Client
	registry     *tools.Registry
	store        *session.Store
	trim         session.TrimPolicy
	systemPrompt string

	llmTimeout  time.Duration
	toolTimeout time.Duration
	maxRounds   int
	enableTools bool
}

// NewEngine creates the agent engine.
func NewEngine(client llm.Client, store *session.Store, systemPrompt string, sys *config.SystemConfig) *Engine {
	maxRounds := sys.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = 6
	}

	return &Engine{
		client:       client,
		registry:     tools.NewRegistry(),
		store:        store,
		trim:         session.TrimPolicy{MaxTurns: sys.MaxTurns()},
		systemPrompt: systemPrompt,
		llmTimeout:   time.Duration(sys.LLMTimeoutMs) * time.Millisecond,
		toolTimeout:  time.Duration(sys.ToolTimeoutMs) * time.Millisecond,
		maxRounds:    maxRounds,
		enableTools:  sys.EnableTools,
	}
}

// RegisterTool adds tools to the engine's registry.
func (e *Engine) RegisterTool(ts ...api.Tool) {
	for _, t := range ts {
		e.registry.Register(t)
	}
}

// Store exposes the session store for maintenance (eviction).
func (e *Engine) Store() *session.Store {
	return e.store
}

// Handle runs one complete turn for the user and returns the reply
// text. It never returns an empty string and never panics outward;
// failures degrade to fixed fallback messages. Concurrent calls for the
// same user queue behind each other in arrival order.
func (e *Engine) Handle(ctx context.Context, sc api.SessionContext, input string) string {
	release := e.store.Acquire(sc.UserID)
	defer release()

	sess := e.store.GetOrCreate(sc.UserID)
	reply := e.runLoop(ctx, sc, sess, input)
	if reply == "" {
		reply = DefaultResponse
	}

	sess.Append(session.Turn{Human: input, Assistant: reply, At: time.Now()})
	e.trim.Apply(sess)
	e.store.Replace(sc.UserID, sess)

	return reply
}

// runLoop drives the model/tool state machine for one turn. The caller
// holds the session lock.
func (e *Engine) runLoop(ctx context.Context, sc api.SessionContext, sess *session.Session, input string) string {
	messages := e.buildMessages(sess, input)

	var defs []llm.ToolDefinition
	if e.enableTools {
		defs = e.registry.Definitions()
	}

	for round := 1; round <= e.maxRounds; round++ {
		resp, err := e.chatOnce(ctx, messages, defs)
		if err != nil {
			slog.Error("Model call failed", "user", sc.UserID, "round", round, "error", err)
			return ApologyResponse
		}

		if !resp.HasToolCalls() {
			return Normalize(resp.Content)
		}

		// Echo the assistant's tool request into the running context,
		// then execute each call in the order the model asked.
		assistant := llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}
		messages = append(messages, assistant)

		for _, call := range resp.ToolCalls {
			observation, err := e.invokeTool(ctx, call)
			if err != nil {
				var notFound *tools.ErrToolNotFound
				if errors.As(err, &notFound) {
					slog.Warn("Model requested unknown tool", "user", sc.UserID, "tool", call.Name)
					return ApologyResponse
				}
				// Recoverable: the model reads the failure and can
				// retry or apologize on its own.
				slog.Warn("Tool failed", "user", sc.UserID, "tool", call.Name, "error", err)
				observation = "Error: " + err.Error()
			}
			messages = append(messages, llm.NewToolMessage(call.ID, call.Name, observation))
		}
	}

	slog.Warn("Round cap exceeded", "user", sc.UserID, "rounds", e.maxRounds)
	return IncompleteResponse
}

// buildMessages assembles the request context: system instruction,
// stored history turns, then the new input.
func (e *Engine) buildMessages(sess *session.Session, input string) []llm.Message {
	messages := make([]llm.Message, 0, len(sess.Turns)*2+2)

	if e.systemPrompt != "" {
		messages = append(messages, llm.NewSystemMessage(e.systemPrompt))
	}
	for _, turn := range sess.Turns {
		messages = append(messages, llm.NewUserMessage(turn.Human))
		messages = append(messages, llm.NewAssistantMessage(turn.Assistant))
	}
	messages = append(messages, llm.NewUserMessage(input))

	return messages
}

func (e *Engine) chatOnce(ctx context.Context, messages []llm.Message, defs []llm.ToolDefinition) (*llm.Response, error) {
	if e.llmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.llmTimeout)
		defer cancel()
	}
	return e.client.Chat(ctx, messages, defs)
}

func (e *Engine) invokeTool(ctx context.Context, call llm.ToolCall) (string, error) {
	if e.toolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.toolTimeout)
		defer cancel()
	}
	return e.registry.Invoke(ctx, call.Name, call.Function.Arguments)
}
