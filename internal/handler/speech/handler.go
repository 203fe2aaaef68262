package speech

import (
	"context"
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/havenlabs/haven/backend/internal/model/speech"
	"github.com/havenlabs/haven/backend/internal/service/companion"
	"github.com/havenlabs/haven/backend/internal/service/session"
	speechsvc "github.com/havenlabs/haven/backend/internal/service/speech"
	"github.com/havenlabs/haven/backend/pkg/utils"
)

// 语音失败对用户展示的固定文案
const (
	msgNoSpeech          = "Sorry, I did not understand that. Please try again."
	msgSpeechUnavailable = "Could not reach the speech recognition service."
)

// SpeechService 抽象语音业务，便于测试与替换实现
type SpeechService interface {
	TranscribeAudio(rCtx context.Context, req *speech.TranscriptionRequest) (*speech.TranscriptionResult, error)
	TranscribeBuffer(rCtx context.Context, sessionID string, audioData []byte, format, language string) (*speech.TranscriptionResult, error)
	Enabled() bool
}

// Companion 语音对话依赖的编排能力
type Companion interface {
	Respond(ctx context.Context, sessionID, userText string) (companion.Reply, error)
}

// Handler 语音服务的HTTP处理器
type Handler struct {
	speechSvc    SpeechService
	companionSvc Companion
	store        *session.Service
}

// New 创建语音处理器
func New(speechSvc SpeechService, companionSvc Companion, store *session.Service) *Handler {
	return &Handler{
		speechSvc:    speechSvc,
		companionSvc: companionSvc,
		store:        store,
	}
}

// RegisterRoutes 注册语音相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/speech", func(speechRouter chi.Router) {
		// ASR 端点
		speechRouter.Post("/transcribe", h.handleTranscribe)

		// 语音对话端点:转写后直接走一轮对话
		speechRouter.Post("/sessions/{sessionID}/voice", h.handleVoice)

		// 健康检查
		speechRouter.Get("/health", h.handleHealth)

		// WebSocket端点 (语音对话链路可用时)
		if h.companionSvc != nil && h.store != nil {
			wsHandler := NewWebSocketHandler(h.speechSvc, h.companionSvc, h.store)
			wsHandler.RegisterWebSocketRoutes(speechRouter)
		} else {
			speechRouter.Get("/ws/{sessionID}", func(w http.ResponseWriter, _ *http.Request) {
				utils.RespondError(w, http.StatusNotImplemented, "voice chat not available")
			})
		}
	})
}

// handleTranscribe 处理语音转文本请求
func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseAudioRequest(w, r, "")
	if !ok {
		return
	}

	result, err := h.speechSvc.TranscribeAudio(r.Context(), req)
	if err != nil {
		h.respondTranscribeError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

// handleVoice 语音进文本回:转写音频并完成一轮对话
func (h *Handler) handleVoice(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	req, ok := h.parseAudioRequest(w, r, sessionID)
	if !ok {
		return
	}

	result, err := h.speechSvc.TranscribeAudio(r.Context(), req)
	if err != nil {
		h.respondTranscribeError(w, err)
		return
	}

	reply, err := h.companionSvc.Respond(r.Context(), sessionID, result.Text)
	if err != nil {
		h.respondVoiceChatError(w, result.Text, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"transcript": result.Text,
		"reply":      reply,
	})
}

// parseAudioRequest 解析multipart表单中的音频文件
func (h *Handler) parseAudioRequest(w http.ResponseWriter, r *http.Request, overrideSessionID string) (*speech.TranscriptionRequest, bool) {
	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return nil, false
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return nil, false
	}

	sessionID := overrideSessionID
	if sessionID == "" {
		sessionID = r.FormValue("sessionId")
	}

	return &speech.TranscriptionRequest{
		SessionID: sessionID,
		AudioData: file,
		Format:    inferAudioFormat(header.Filename),
		Language:  r.FormValue("language"),
	}, true
}

// handleHealth 健康检查端点
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"service":     "speech",
		"transcriber": h.speechSvc.Enabled(),
	})
}

// respondTranscribeError 转写失败到HTTP状态码与固定文案的映射
func (h *Handler) respondTranscribeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, speechsvc.ErrNoSpeech):
		utils.RespondError(w, http.StatusUnprocessableEntity, msgNoSpeech)
	case errors.Is(err, speechsvc.ErrServiceUnavailable):
		log.Printf("[speech] transcription unavailable: %v", err)
		utils.RespondError(w, http.StatusServiceUnavailable, msgSpeechUnavailable)
	default:
		log.Printf("[speech] ASR error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "speech recognition failed")
	}
}

// respondVoiceChatError 转写成功但对话失败时,连同转写文本一起返回
func (h *Handler) respondVoiceChatError(w http.ResponseWriter, transcript string, err error) {
	status := http.StatusInternalServerError
	message := "failed to generate a reply"
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		status = http.StatusNotFound
		message = "session not found"
	case errors.Is(err, companion.ErrBackendUnavailable):
		status = http.StatusServiceUnavailable
		message = "chat backend is not configured"
	case errors.Is(err, companion.ErrBackendFailure):
		status = http.StatusBadGateway
		message = "The companion could not respond right now. Your message was not saved, please try again."
	default:
		log.Printf("[speech] voice chat error: %v", err)
	}

	utils.RespondJSON(w, status, map[string]string{
		"error":      message,
		"transcript": transcript,
	})
}

// inferAudioFormat 从文件名推断音频格式
func inferAudioFormat(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mp3":
		return "mp3"
	case ".wav":
		return "wav"
	case ".webm":
		return "webm"
	case ".m4a":
		return "m4a"
	case ".aac":
		return "aac"
	default:
		return "wav"
	}
}
