package monitor

import "time"

// MonitorMessage is one traffic event shown on the monitor.
type MonitorMessage struct {
	Timestamp   time.Time
	MessageType string // "USER" or "ASSISTANT"
	ChannelID   string
	Username    string
	Content     string
}

// Monitor observes message traffic across all channels.
type Monitor interface {
	Start() error
	Stop() error

	// OnMessage receives and displays a monitoring message.
	OnMessage(msg MonitorMessage)
}
