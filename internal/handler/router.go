package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	companionHandler "github.com/greenpaw/ecobuddies/backend/internal/handler/companion"
	sessionHandler "github.com/greenpaw/ecobuddies/backend/internal/handler/session"
	"github.com/greenpaw/ecobuddies/backend/internal/handler/stream"
	"github.com/greenpaw/ecobuddies/backend/internal/handler/ws"
	middlewarePkg "github.com/greenpaw/ecobuddies/backend/internal/middleware"
	"github.com/greenpaw/ecobuddies/backend/internal/model/catalog"
	aiService "github.com/greenpaw/ecobuddies/backend/internal/service/ai"
	"github.com/greenpaw/ecobuddies/backend/internal/service/flow"
	"github.com/greenpaw/ecobuddies/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(store catalog.Store, machine *flow.Machine, aiSvc *aiService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	companions := companionHandler.New(store)
	sessions := sessionHandler.New(machine)
	events := ws.New(machine)

	// SSE chat streaming needs the gateway; without one the REST endpoints
	// still serve everything except generation.
	var streamHandler *stream.Handler
	if aiSvc != nil {
		streamHandler = stream.New(aiSvc, machine, store)
	}

	r.Route("/api", func(api chi.Router) {
		companions.RegisterRoutes(api)
		sessions.RegisterRoutes(api)
		events.RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if streamHandler == nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
				return
			}
			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})
	})

	return r
}
