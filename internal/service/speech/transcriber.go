package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/havenlabs/haven/backend/internal/config"
	"github.com/havenlabs/haven/backend/internal/model/speech"
)

var (
	// ErrNoSpeech 表示音频可达服务端但没有识别出任何语音内容。
	ErrNoSpeech = errors.New("no recognizable speech in audio")
	// ErrServiceUnavailable 表示转写服务不可达、超时或暂时不可用。
	ErrServiceUnavailable = errors.New("speech service unavailable")
)

// Transcriber 调用 OpenAI 兼容的 audio/transcriptions 接口完成语音转写。
// 本地 whisper 服务与云端 API 共用同一套请求格式。
type Transcriber struct {
	config config.SpeechConfig
	client *http.Client
}

// NewTranscriber 创建转写客户端。
func NewTranscriber(cfg config.SpeechConfig) *Transcriber {
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Transcriber{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// transcriptionResponse 转写接口的JSON响应体
type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe 上传音频并返回转写结果。
// 空转写结果返回 ErrNoSpeech;网络错误、超时与5xx返回 ErrServiceUnavailable。
func (t *Transcriber) Transcribe(ctx context.Context, req *speech.TranscriptionRequest) (*speech.TranscriptionResult, error) {
	if req == nil || req.AudioData == nil {
		return nil, fmt.Errorf("no audio data to transcribe")
	}

	body, contentType, err := t.encodeForm(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.APIURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build transcription request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	if t.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+t.config.APIKey)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: upstream status %d", ErrServiceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("transcription API error %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var decoded transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode transcription response: %w", err)
	}

	text := strings.TrimSpace(decoded.Text)
	if text == "" {
		return nil, ErrNoSpeech
	}

	return &speech.TranscriptionResult{
		SessionID: req.SessionID,
		Text:      text,
		Language:  t.resolveLanguage(req.Language),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// encodeForm 构造multipart表单:音频文件、模型名与可选的语言提示。
func (t *Transcriber) encodeForm(req *speech.TranscriptionRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	format := req.Format
	if format == "" {
		format = "wav"
	}
	part, err := form.CreateFormFile("file", "audio."+format)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build form file: %w", err)
	}
	if _, err := io.Copy(part, req.AudioData); err != nil {
		return nil, "", fmt.Errorf("failed to read audio data: %w", err)
	}

	if err := form.WriteField("model", t.config.Model); err != nil {
		return nil, "", fmt.Errorf("failed to write model field: %w", err)
	}
	if language := t.resolveLanguage(req.Language); language != "" {
		if err := form.WriteField("language", language); err != nil {
			return nil, "", fmt.Errorf("failed to write language field: %w", err)
		}
	}
	if err := form.WriteField("response_format", "json"); err != nil {
		return nil, "", fmt.Errorf("failed to write response_format field: %w", err)
	}

	if err := form.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}
	return &buf, form.FormDataContentType(), nil
}

func (t *Transcriber) resolveLanguage(requested string) string {
	if requested != "" {
		return requested
	}
	return t.config.Language
}
