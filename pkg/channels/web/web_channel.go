package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"valet/pkg/api"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for decoupled UI
	},
}

type WebConfig struct {
	Port int `json:"port"` // Default: 8080
}

// IncomingMessage is the JSON payload sent by the web UI. Plain text
// frames are also accepted for backward compatibility.
type IncomingMessage struct {
	Text string `json:"text"`
}

// OutgoingMessage is the JSON envelope for frames pushed to the UI.
type OutgoingMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// SafeConn serializes writes; gorilla/websocket allows only one
// concurrent writer per connection.
type SafeConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (sc *SafeConn) WriteMessage(messageType int, data []byte) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.Conn.WriteMessage(messageType, data)
}

// WebChannel exposes the assistant over a WebSocket endpoint. Each
// connection is its own user; replies route back by UserID.
type WebChannel struct {
	config      WebConfig
	server      *http.Server
	connections map[string]*SafeConn // Map UserID -> WS Connection
	mu          sync.RWMutex
}

func NewWebChannel(cfg WebConfig) *WebChannel {
	return &WebChannel{
		config:      cfg,
		connections: make(map[string]*SafeConn),
	}
}

func (c *WebChannel) ID() string {
	return "web"
}

func (c *WebChannel) Start(ctx api.ChannelContext) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		c.handleWebSocket(w, r, ctx)
	})

	addr := fmt.Sprintf(":%d", c.config.Port)
	c.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	slog.Info("Web API listening", "port", c.config.Port)

	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Web API server error", "error", err)
		}
	}()

	return nil
}

func (c *WebChannel) Stop() error {
	if c.server != nil {
		return c.server.Close()
	}
	return nil
}

func (c *WebChannel) Send(session api.SessionContext, message string) error {
	conn, ok := c.connection(session.UserID)
	if !ok {
		return fmt.Errorf("web user %s not connected", session.UserID)
	}

	jsonData, err := json.Marshal(OutgoingMessage{Type: "message", Text: message})
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}
	return conn.WriteMessage(websocket.TextMessage, jsonData)
}

// SendSignal implements the gateway.SignalingChannel interface
func (c *WebChannel) SendSignal(session api.SessionContext, signal string) error {
	conn, ok := c.connection(session.UserID)
	if !ok {
		return fmt.Errorf("web user %s not connected", session.UserID)
	}

	msg := map[string]string{
		"type":  "signal",
		"value": signal,
	}
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal signal: %w", err)
	}
	return conn.WriteMessage(websocket.TextMessage, jsonData)
}

func (c *WebChannel) connection(userID string) (*SafeConn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conn, ok := c.connections[userID]
	return conn, ok
}

func (c *WebChannel) handleWebSocket(w http.ResponseWriter, r *http.Request, ctx api.ChannelContext) {
	rawConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WS Upgrade failed", "error", err)
		return
	}

	conn := &SafeConn{Conn: rawConn}

	// Each connection is keyed by its remote address. The session (and
	// the conversation history behind it) lives for the connection.
	userID := r.RemoteAddr

	c.mu.Lock()
	c.connections[userID] = conn
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.connections, userID)
		c.mu.Unlock()
		conn.Close()
	}()

	session := api.SessionContext{
		ChannelID: "web",
		UserID:    userID,
		ChatID:    userID,
		Username:  "WebUser",
	}

	for {
		_, msgBytes, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var content string
		var incoming IncomingMessage
		if err := json.Unmarshal(msgBytes, &incoming); err == nil && incoming.Text != "" {
			content = incoming.Text
		} else {
			// Fallback: treat as plain text (backward compatibility)
			content = string(msgBytes)
		}

		if content == "" {
			continue
		}

		unifiedMsg := &api.UnifiedMessage{
			Session: session,
			Content: content,
		}
		ctx.OnMessage(c.ID(), unifiedMsg)
	}
}
