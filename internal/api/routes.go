// Package api registers the HTTP surface: REST endpoints under /api plus
// the websocket upgrade and the health probe.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/auralabs/aura/internal/api/handlers"
	"github.com/auralabs/aura/internal/api/ws"
	"github.com/auralabs/aura/internal/domain/chat"
	"github.com/auralabs/aura/internal/domain/companion"
	"github.com/auralabs/aura/internal/domain/credential"
	"github.com/auralabs/aura/internal/domain/settings"
	"github.com/auralabs/aura/internal/infra/image"
)

// Deps are the wired services the router exposes.
type Deps struct {
	Companions   *companion.Service
	Credentials  *credential.Service
	Settings     *settings.Service
	Orchestrator *chat.Orchestrator
	Images       *image.Generator
	Hub          *ws.Hub
	Log          *zap.Logger
}

// NewRouter creates and configures a new chi router with all routes.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check — used by load balancers and health probes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// Advisory event channel for the chat UI
	r.Get("/ws", ws.Handler(deps.Hub, deps.Log))

	companionHandler := handlers.NewCompanionHandler(deps.Companions)
	messageHandler := handlers.NewMessageHandler(deps.Companions, deps.Orchestrator)
	imageHandler := handlers.NewImageHandler(deps.Images)
	apiKeyHandler := handlers.NewAPIKeyHandler(deps.Credentials)
	settingsHandler := handlers.NewSettingsHandler(deps.Settings)

	r.Route("/api", func(r chi.Router) {
		r.Route("/companions", func(r chi.Router) {
			r.Post("/", companionHandler.CreateCompanion) // POST /api/companions
			r.Get("/", companionHandler.ListCompanions)   // GET /api/companions
			r.Get("/{id}", companionHandler.GetCompanion) // GET /api/companions/{id}
		})

		r.Route("/conversations/{companionId}/messages", func(r chi.Router) {
			r.Get("/", messageHandler.ListMessages) // GET /api/conversations/{companionId}/messages
			r.Post("/", messageHandler.SendMessage) // POST /api/conversations/{companionId}/messages
		})

		r.Post("/image/generate", imageHandler.GenerateImage) // POST /api/image/generate

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.GetSettings)     // GET /api/settings
			r.Put("/", settingsHandler.UpdateSettings)  // PUT /api/settings
			r.Get("/api-keys", apiKeyHandler.GetStatus) // GET /api/settings/api-keys
			r.Post("/api-keys", apiKeyHandler.SaveKeys) // POST /api/settings/api-keys
		})
	})

	return r
}
