package speech

import (
	"bytes"
	"context"

	"github.com/havenlabs/haven/backend/internal/config"
	"github.com/havenlabs/haven/backend/internal/model/speech"
)

// Service 语音服务核心业务逻辑
type Service struct {
	config      config.SpeechConfig
	transcriber *Transcriber
}

// NewService 创建语音服务实例
func NewService(cfg config.SpeechConfig) *Service {
	return &Service{
		config:      cfg,
		transcriber: NewTranscriber(cfg),
	}
}

// Enabled 表示转写链路是否已配置可用。
func (s *Service) Enabled() bool {
	return s.config.Enabled
}

// TranscribeAudio 语音转文字
func (s *Service) TranscribeAudio(ctx context.Context, req *speech.TranscriptionRequest) (*speech.TranscriptionResult, error) {
	return s.transcriber.Transcribe(ctx, req)
}

// TranscribeBuffer 语音转文字（使用字节数组）
func (s *Service) TranscribeBuffer(ctx context.Context, sessionID string, audioData []byte, format, language string) (*speech.TranscriptionResult, error) {
	req := &speech.TranscriptionRequest{
		SessionID: sessionID,
		AudioData: bytes.NewReader(audioData),
		Format:    format,
		Language:  language,
	}

	return s.TranscribeAudio(ctx, req)
}
