package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/havenlabs/haven/backend/internal/handler/chat"
	"github.com/havenlabs/haven/backend/internal/handler/mood"
	"github.com/havenlabs/haven/backend/internal/handler/selfcare"
	"github.com/havenlabs/haven/backend/internal/handler/speech"
	"github.com/havenlabs/haven/backend/internal/handler/stream"
	"github.com/havenlabs/haven/backend/internal/middleware"
	selfcareModel "github.com/havenlabs/haven/backend/internal/model/selfcare"
	"github.com/havenlabs/haven/backend/internal/service/companion"
	"github.com/havenlabs/haven/backend/internal/service/session"
	speechService "github.com/havenlabs/haven/backend/internal/service/speech"
	"github.com/havenlabs/haven/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(store *session.Service, companionSvc *companion.Service, speechSvc *speechService.Service, items selfcareModel.Store, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(allowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	chatHandler := chat.New(store, companionSvc)
	moodHandler := mood.New(store, companionSvc)
	selfcareHandler := selfcare.New(items)
	streamHandler := stream.New(companionSvc)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		moodHandler.RegisterRoutes(api)
		selfcareHandler.RegisterRoutes(api)

		// SSE endpoint feeding chunks as the reply is generated
		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
				utils.RespondError(w, http.StatusInternalServerError, "streaming failed")
			}
		})

		// Register speech routes if speech service is available
		if speechSvc != nil {
			speechHandler := speech.New(speechSvc, companionSvc, store)
			speechHandler.RegisterRoutes(api)
		}
	})

	return r
}
