package speech

import "time"

// TranscriptionResult 语音转写响应
type TranscriptionResult struct {
	SessionID string    `json:"sessionId,omitempty"`
	Text      string    `json:"text"`
	Language  string    `json:"language,omitempty"`
	Duration  int64     `json:"duration,omitempty"` // milliseconds
	CreatedAt time.Time `json:"createdAt"`
}
