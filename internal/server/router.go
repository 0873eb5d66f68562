package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tubesage/tubesage/internal/api"
	"github.com/tubesage/tubesage/internal/api/handlers"
	"github.com/tubesage/tubesage/internal/api/middleware"
)

type RouterConfig struct {
	SessionHandler *handlers.SessionHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", cfg.SessionHandler.Create)
		r.Get("/{id}", cfg.SessionHandler.Get)
		r.Post("/{id}/ask", cfg.SessionHandler.Ask)
		r.Get("/{id}/history", cfg.SessionHandler.History)
		r.Get("/{id}/sources", cfg.SessionHandler.Sources)
		r.Post("/{id}/report", cfg.SessionHandler.Report)
		r.Delete("/{id}", cfg.SessionHandler.Delete)
	})

	return r
}
