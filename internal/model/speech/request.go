package speech

import "io"

// TranscriptionRequest 语音转写请求
type TranscriptionRequest struct {
	SessionID string    `json:"sessionId"`
	AudioData io.Reader `json:"-"`
	Format    string    `json:"format"`   // mp3, wav, webm, etc.
	Language  string    `json:"language"` // en, zh, etc.
}
