package session

import (
	"time"

	"github.com/campusbuddy/campusbuddy/internal/agent"
)

// Session represents a persistent conversation with the assistant.
type Session struct {
	ID        string                   `json:"id"`
	Title     string                   `json:"title"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
	History   []agent.ConversationTurn `json:"history"`
	Summary   string                   `json:"summary,omitempty"` // Context injection for the next session
}

// SessionMeta is a lightweight representation for listing in the UI.
type SessionMeta struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Summary   string    `json:"summary,omitempty"`
}
