package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/havenlabs/haven/backend/internal/model/mood"
	"github.com/havenlabs/haven/backend/internal/service/companion"
	"github.com/havenlabs/haven/backend/internal/service/session"
	"github.com/havenlabs/haven/backend/pkg/utils"
)

// Handler manages streaming companion replies via Server-Sent Events
type Handler struct {
	companionSvc *companion.Service
}

// New creates a new stream handler
func New(companionSvc *companion.Service) *Handler {
	return &Handler{
		companionSvc: companionSvc,
	}
}

// StreamResponse represents a streaming response frame
type StreamResponse struct {
	Event       string     `json:"event"`
	Content     string     `json:"content,omitempty"`
	SessionID   string     `json:"sessionId,omitempty"`
	Mood        mood.Label `json:"mood,omitempty"`
	MoodDisplay string     `json:"moodDisplay,omitempty"`
	Finished    bool       `json:"finished,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// HandleStreamRequest runs one respond flow and emits the reply as SSE
// frames: "start", then "message" chunks, then "done" carrying the full text
// and the detected mood. Errors surface as an "error" frame with a message
// fit for display; the transcript stays clean in that case.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	h.send(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
	})

	var reply companion.Reply
	var err error
	if h.companionSvc.StreamingEnabled() {
		reply, err = h.companionSvc.RespondStream(ctx, sessionID, userMessage, func(chunk string) error {
			h.send(w, flusher, StreamResponse{
				Event:     "message",
				SessionID: sessionID,
				Content:   chunk,
			})
			return nil
		})
	} else {
		// Fallback for providers that cannot stream: one message frame with
		// the whole reply.
		reply, err = h.companionSvc.Respond(ctx, sessionID, userMessage)
		if err == nil {
			h.send(w, flusher, StreamResponse{
				Event:     "message",
				SessionID: sessionID,
				Content:   reply.Content,
			})
		}
	}
	if err != nil {
		h.sendError(w, flusher, sessionID, err)
		return err
	}

	h.send(w, flusher, StreamResponse{
		Event:       "done",
		SessionID:   sessionID,
		Content:     reply.Content,
		Mood:        reply.Mood,
		MoodDisplay: reply.MoodDisplay,
		Finished:    true,
	})

	log.Printf("[stream] completed response for session=%s mood=%s", sessionID, reply.Mood)
	return nil
}

// send writes one SSE data frame
func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

// sendError emits an error frame with a message safe to show the user
func (h *Handler) sendError(w http.ResponseWriter, flusher http.Flusher, sessionID string, err error) {
	var message string
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		message = "session not found"
	case errors.Is(err, companion.ErrBackendUnavailable):
		message = "chat backend is not configured"
	case errors.Is(err, companion.ErrBackendFailure):
		message = "The companion could not respond right now. Your message was not saved, please try again."
	default:
		log.Printf("[stream] respond failed session=%s: %v", sessionID, err)
		message = "streaming failed"
	}

	h.send(w, flusher, StreamResponse{
		Event:     "error",
		SessionID: sessionID,
		Error:     message,
	})
}
