package chat

import (
	"time"

	"github.com/havenlabs/haven/backend/internal/model/mood"
)

// Session captures a transient anonymous conversation.
type Session struct {
	ID          string     `json:"id"`
	CurrentMood mood.Label `json:"currentMood"`
	CreatedAt   time.Time  `json:"createdAt"`
}
