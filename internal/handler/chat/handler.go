package chat

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/havenlabs/haven/backend/internal/model/mood"
	"github.com/havenlabs/haven/backend/internal/service/companion"
	"github.com/havenlabs/haven/backend/internal/service/session"
	"github.com/havenlabs/haven/backend/pkg/utils"
)

// Handler 会话与对话的HTTP处理器
type Handler struct {
	store        *session.Service
	companionSvc *companion.Service
}

// New 创建会话处理器
func New(store *session.Service, companionSvc *companion.Service) *Handler {
	return &Handler{
		store:        store,
		companionSvc: companionSvc,
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Post("/sessions/{sessionID}/messages", h.handleRespond)
	r.Get("/sessions/{sessionID}/transcript", h.handleTranscript)
	r.Post("/sessions/{sessionID}/affirmation", h.handleAffirmation)
	r.Post("/sessions/{sessionID}/meditation", h.handleMeditation)
	r.Post("/sessions/{sessionID}/reset", h.handleReset)
}

// sessionInfo 会话概览,附带情绪展示名与计数
type sessionInfo struct {
	ID          string     `json:"id"`
	CurrentMood mood.Label `json:"currentMood"`
	MoodDisplay string     `json:"moodDisplay"`
	TurnCount   int        `json:"turnCount"`
	MoodEntries int        `json:"moodEntries"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	created, err := h.store.Create(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, sessionInfo{
		ID:          created.ID,
		CurrentMood: created.CurrentMood,
		MoodDisplay: created.CurrentMood.Display(),
		CreatedAt:   created.CreatedAt,
	})
}

// handleGetSession 查询会话概览
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	current, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		h.respondCompanionError(w, sessionID, err)
		return
	}

	turns, err := h.store.Transcript(r.Context(), sessionID)
	if err != nil {
		h.respondCompanionError(w, sessionID, err)
		return
	}
	entries, err := h.store.MoodHistory(r.Context(), sessionID)
	if err != nil {
		h.respondCompanionError(w, sessionID, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, sessionInfo{
		ID:          current.ID,
		CurrentMood: current.CurrentMood,
		MoodDisplay: current.CurrentMood.Display(),
		TurnCount:   len(turns),
		MoodEntries: len(entries),
		CreatedAt:   current.CreatedAt,
	})
}

// handleRespond 处理一轮对话:分类、调用后端、原子落盘
func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Message string `json:"message"`
	}
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.companionSvc.Respond(r.Context(), sessionID, payload.Message)
	if err != nil {
		h.respondCompanionError(w, sessionID, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

// handleTranscript 返回完整对话记录
func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	turns, err := h.store.Transcript(r.Context(), sessionID)
	if err != nil {
		h.respondCompanionError(w, sessionID, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": sessionID,
		"turns":     turns,
	})
}

// handleAffirmation 生成正向肯定语
func (h *Handler) handleAffirmation(w http.ResponseWriter, r *http.Request) {
	h.handleGenerated(w, r, "affirmation", h.companionSvc.Affirmation)
}

// handleMeditation 生成冥想引导词
func (h *Handler) handleMeditation(w http.ResponseWriter, r *http.Request) {
	h.handleGenerated(w, r, "meditation", h.companionSvc.MeditationGuide)
}

// handleGenerated 单轮生成类接口的公共流程:生成文本,附带当前情绪返回。
func (h *Handler) handleGenerated(w http.ResponseWriter, r *http.Request, kind string, generate func(context.Context, string) (string, error)) {
	sessionID := chi.URLParam(r, "sessionID")

	text, err := generate(r.Context(), sessionID)
	if err != nil {
		h.respondCompanionError(w, sessionID, err)
		return
	}

	current, err := h.store.CurrentMood(r.Context(), sessionID)
	if err != nil {
		h.respondCompanionError(w, sessionID, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId":   sessionID,
		"kind":        kind,
		"mood":        current,
		"moodDisplay": current.Display(),
		"text":        text,
	})
}

// handleReset 清空会话的对话记录与情绪日志
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.companionSvc.Reset(r.Context(), sessionID); err != nil {
		h.respondCompanionError(w, sessionID, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// respondCompanionError 统一的错误到状态码映射
func (h *Handler) respondCompanionError(w http.ResponseWriter, sessionID string, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, companion.ErrInvalidMood):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, companion.ErrBackendUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, "chat backend is not configured")
	case errors.Is(err, companion.ErrBackendFailure):
		utils.RespondError(w, http.StatusBadGateway, "The companion could not respond right now. Your message was not saved, please try again.")
	default:
		log.Printf("[chat] unexpected error session=%s: %v", sessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
