package agent

import (
	"context"
	"strings"
	"sync"
	"testing"

	"valet/pkg/api"
	"valet/pkg/config"
	"valet/pkg/llm"
	"valet/pkg/session"
)

// scriptedClient returns canned responses in order. Once the script is
// exhausted it repeats the last entry.
type scriptedClient struct {
	mu        sync.Mutex
	responses []*llm.Response
	calls     int
	requests  [][]llm.Message
	block     chan struct{} // when set, each call waits for a tick
	entered   chan struct{} // when set, signals that a call reached the model
}

func (c *scriptedClient) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (*llm.Response, error) {
	if c.entered != nil {
		c.entered <- struct{}{}
	}
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	cp := make([]llm.Message, len(messages))
	copy(cp, messages)
	c.requests = append(c.requests, cp)
	idx := c.calls - 1
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	return c.responses[idx], nil
}

func (c *scriptedClient) IsTransientError(err error) bool { return false }

func textResponse(text string) *llm.Response {
	return &llm.Response{
		Content:    []llm.ContentBlock{llm.NewTextBlock(text)},
		StopReason: llm.StopReasonStop,
	}
}

func toolCallResponse(id, name, args string) *llm.Response {
	return &llm.Response{
		ToolCalls: []llm.ToolCall{{
			ID:   id,
			Name: name,
			Function: llm.FunctionCall{Name: name, Arguments: args},
		}},
		StopReason: llm.StopReasonToolCalls,
	}
}

func testConfig() *config.SystemConfig {
	cfg := config.DefaultSystemConfig()
	cfg.MaxToolRounds = 3
	cfg.MaxHistoryMessages = 6 // 3 turns
	return cfg
}

func newTestEngine(client llm.Client) *Engine {
	return NewEngine(client, session.NewStore(), "You are a test assistant.", testConfig())
}

func userCtx(id string) api.SessionContext {
	return api.SessionContext{ChannelID: "test", UserID: id, ChatID: id}
}

// recorderTool records invocations and returns a fixed observation.
type recorderTool struct {
	mu    sync.Mutex
	calls []map[string]any
	reply string
}

func (t *recorderTool) Name() string        { return "lookup" }
func (t *recorderTool) Description() string { return "test lookup" }
func (t *recorderTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"key": map[string]any{"type": "string"},
		},
		"required": []string{"key"},
	}
}
func (t *recorderTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, args)
	return t.reply, nil
}

func TestHandleFinalAnswer(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{textResponse("hello there")}}
	e := newTestEngine(client)

	reply := e.Handle(context.Background(), userCtx("alice"), "hi")
	if reply != "hello there" {
		t.Fatalf("expected model text, got %q", reply)
	}

	sess := e.Store().GetOrCreate("alice")
	if len(sess.Turns) != 1 {
		t.Fatalf("expected 1 recorded turn, got %d", len(sess.Turns))
	}
	if sess.Turns[0].Human != "hi" || sess.Turns[0].Assistant != "hello there" {
		t.Fatalf("turn must record the completed exchange, got %+v", sess.Turns[0])
	}
}

func TestHandleToolRound(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{
		toolCallResponse("c1", "lookup", `{"key": "weather"}`),
		textResponse("sunny"),
	}}
	e := newTestEngine(client)
	tool := &recorderTool{reply: "weather: sunny"}
	e.RegisterTool(tool)

	reply := e.Handle(context.Background(), userCtx("alice"), "weather?")
	if reply != "sunny" {
		t.Fatalf("expected final answer after tool round, got %q", reply)
	}
	if len(tool.calls) != 1 {
		t.Fatalf("expected 1 tool invocation, got %d", len(tool.calls))
	}

	// The second model request must carry the tool observation.
	second := client.requests[1]
	last := second[len(second)-1]
	if last.Role != llm.RoleTool || last.ToolCallID != "c1" {
		t.Fatalf("expected tool observation linked to call c1, got %+v", last)
	}
	if last.GetTextContent() != "weather: sunny" {
		t.Fatalf("observation must carry tool output, got %q", last.GetTextContent())
	}
}

func TestHandleToolNotFoundAborts(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{
		toolCallResponse("c1", "doesNotExist", `{}`),
		textResponse("should never be reached"),
	}}
	e := newTestEngine(client)

	reply := e.Handle(context.Background(), userCtx("alice"), "do something")
	if reply != ApologyResponse {
		t.Fatalf("expected fixed apology, got %q", reply)
	}
	if client.calls != 1 {
		t.Fatalf("loop must abort without re-entering the model, got %d calls", client.calls)
	}

	sess := e.Store().GetOrCreate("alice")
	if len(sess.Turns) != 1 {
		t.Fatalf("expected the aborted turn recorded, got %d", len(sess.Turns))
	}
	if sess.Turns[0].Assistant != ApologyResponse {
		t.Fatalf("turn must pair input with the apology, got %q", sess.Turns[0].Assistant)
	}
}

func TestHandleSchemaErrorIsObservation(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{
		toolCallResponse("c1", "lookup", `{"key": 42}`),
		textResponse("recovered"),
	}}
	e := newTestEngine(client)
	tool := &recorderTool{reply: "unused"}
	e.RegisterTool(tool)

	reply := e.Handle(context.Background(), userCtx("alice"), "bad args")
	if reply != "recovered" {
		t.Fatalf("schema violation must be recoverable, got %q", reply)
	}
	if len(tool.calls) != 0 {
		t.Fatal("tool must not execute on schema violation")
	}

	second := client.requests[1]
	last := second[len(second)-1]
	if last.Role != llm.RoleTool || !strings.HasPrefix(last.GetTextContent(), "Error:") {
		t.Fatalf("expected error observation, got %+v", last)
	}
}

func TestHandleRoundCap(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{
		toolCallResponse("c1", "lookup", `{"key": "x"}`),
	}}
	e := newTestEngine(client)
	e.RegisterTool(&recorderTool{reply: "loop"})

	reply := e.Handle(context.Background(), userCtx("alice"), "loop forever")
	if reply != IncompleteResponse {
		t.Fatalf("expected fixed incomplete message, got %q", reply)
	}
	if client.calls != 3 {
		t.Fatalf("expected exactly %d model rounds, got %d", 3, client.calls)
	}

	sess := e.Store().GetOrCreate("alice")
	if len(sess.Turns) != 1 || sess.Turns[0].Assistant != IncompleteResponse {
		t.Fatalf("cap outcome must be recorded as the turn, got %+v", sess.Turns)
	}
}

func TestHandleEmptyContentFallsBack(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{
		{StopReason: llm.StopReasonStop},
	}}
	e := newTestEngine(client)

	reply := e.Handle(context.Background(), userCtx("alice"), "hi")
	if reply != DefaultResponse {
		t.Fatalf("empty model content must yield the default response, got %q", reply)
	}
}

func TestHandleHistoryInPrompt(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{textResponse("first"), textResponse("second")}}
	e := newTestEngine(client)

	e.Handle(context.Background(), userCtx("alice"), "one")
	e.Handle(context.Background(), userCtx("alice"), "two")

	second := client.requests[1]
	// system + prior turn (2 messages) + new input.
	if len(second) != 4 {
		t.Fatalf("expected 4 messages in second request, got %d", len(second))
	}
	if second[0].Role != llm.RoleSystem {
		t.Fatalf("expected system message first, got %s", second[0].Role)
	}
	if second[1].GetTextContent() != "one" || second[2].GetTextContent() != "first" {
		t.Fatal("expected prior turn replayed before the new input")
	}
	if second[3].GetTextContent() != "two" {
		t.Fatalf("expected new input last, got %q", second[3].GetTextContent())
	}
}

func TestHandleTrimsHistory(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{textResponse("ok")}}
	e := newTestEngine(client)

	for i := 0; i < 10; i++ {
		e.Handle(context.Background(), userCtx("alice"), "msg")
	}

	sess := e.Store().GetOrCreate("alice")
	if len(sess.Turns) > 3 {
		t.Fatalf("history must stay within the turn bound, got %d", len(sess.Turns))
	}
}

func TestHandleSameUserSequential(t *testing.T) {
	block := make(chan struct{})
	entered := make(chan struct{})
	client := &scriptedClient{
		responses: []*llm.Response{textResponse("r1"), textResponse("r2")},
		block:     block,
		entered:   entered,
	}
	e := newTestEngine(client)

	done := make(chan struct{})
	go func() {
		e.Handle(context.Background(), userCtx("alice"), "first")
		close(done)
	}()
	// Wait until the first turn holds the session lock and is mid-call.
	<-entered

	second := make(chan struct{})
	go func() {
		e.Handle(context.Background(), userCtx("alice"), "second")
		close(second)
	}()

	// Let the first turn's model call complete; the second turn queues
	// behind the session lock and only then reaches the model.
	block <- struct{}{}
	<-done
	<-entered
	block <- struct{}{}
	<-second

	sess := e.Store().GetOrCreate("alice")
	if len(sess.Turns) != 2 {
		t.Fatalf("expected both turns recorded, got %d", len(sess.Turns))
	}
	if sess.Turns[0].Human != "first" || sess.Turns[1].Human != "second" {
		t.Fatalf("turns must append in call order, got %+v", sess.Turns)
	}
}

func TestHandleDifferentUsersIsolated(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{textResponse("ok")}}
	e := newTestEngine(client)

	var wg sync.WaitGroup
	for _, user := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			e.Handle(context.Background(), userCtx(u), "hello from "+u)
		}(user)
	}
	wg.Wait()

	a := e.Store().GetOrCreate("alice")
	b := e.Store().GetOrCreate("bob")
	if len(a.Turns) != 1 || len(b.Turns) != 1 {
		t.Fatalf("each user must have exactly one turn, got %d and %d", len(a.Turns), len(b.Turns))
	}
	if a.Turns[0].Human != "hello from alice" || b.Turns[0].Human != "hello from bob" {
		t.Fatal("sessions must not mix state across users")
	}
}
