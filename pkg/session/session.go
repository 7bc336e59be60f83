// Package session holds per-user conversation state: bounded turn
// history plus the locking that serializes each user's turns.
package session

import (
	"time"
)

// Turn is one completed exchange: the user's input and the reply that
// was actually delivered for it, fallback texts included.
type Turn struct {
	Human     string    `json:"human"`
	Assistant string    `json:"assistant"`
	At        time.Time `json:"at"`
}

// Session is the conversation state for one user key. Access is
// serialized by the owning Store; Session itself carries no lock.
type Session struct {
	UserID     string    `json:"user_id"`
	Turns      []Turn    `json:"turns"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// NewSession creates an empty session for the given user key.
func NewSession(userID string) *Session {
	now := time.Now()
	return &Session{
		UserID:     userID,
		Turns:      make([]Turn, 0),
		CreatedAt:  now,
		LastActive: now,
	}
}

// Append records a completed turn and bumps the activity timestamp.
func (s *Session) Append(t Turn) {
	s.Turns = append(s.Turns, t)
	s.LastActive = time.Now()
}

// Touch bumps the activity timestamp without modifying history.
func (s *Session) Touch() {
	s.LastActive = time.Now()
}
