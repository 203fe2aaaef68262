package mood

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/havenlabs/haven/backend/internal/service/companion"
	"github.com/havenlabs/haven/backend/internal/service/session"
	"github.com/havenlabs/haven/backend/pkg/utils"
)

// Handler 情绪日志的HTTP处理器
type Handler struct {
	store        *session.Service
	companionSvc *companion.Service
}

// New 创建情绪处理器
func New(store *session.Service, companionSvc *companion.Service) *Handler {
	return &Handler{
		store:        store,
		companionSvc: companionSvc,
	}
}

// RegisterRoutes 注册情绪相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions/{sessionID}/mood", h.handleLogMood)
	r.Get("/sessions/{sessionID}/mood/history", h.handleHistory)
	r.Get("/sessions/{sessionID}/mood/summary", h.handleSummary)
}

// handleLogMood 手动记录一次情绪,接受"happy"或"😄 Happy"两种形式
func (h *Handler) handleLogMood(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Mood string `json:"mood"`
	}
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}
	if payload.Mood == "" {
		utils.RespondError(w, http.StatusBadRequest, "mood is required")
		return
	}

	entry, err := h.companionSvc.LogMood(r.Context(), sessionID, payload.Mood)
	if err != nil {
		h.respondMoodError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, entry)
}

// handleHistory 返回完整情绪日志
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	entries, err := h.store.MoodHistory(r.Context(), sessionID)
	if err != nil {
		h.respondMoodError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": sessionID,
		"entries":   entries,
	})
}

// handleSummary 返回情绪统计
func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	summary, err := h.store.MoodSummary(r.Context(), sessionID)
	if err != nil {
		h.respondMoodError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, summary)
}

func (h *Handler) respondMoodError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, companion.ErrInvalidMood):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
