package chat

import (
	"time"

	"github.com/havenlabs/haven/backend/internal/model/mood"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn persists individual turns in conversational order for context replay.
type Turn struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Mood      mood.Label `json:"mood,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
