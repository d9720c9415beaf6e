package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/site"
	"github.com/starford/folio/internal/store"
)

// RouterConfig wires the API to its collaborators.
type RouterConfig struct {
	Registry      *site.Registry
	Runs          store.RunHistory // optional; admin routes are omitted when nil
	Events        http.Handler     // optional; mounted at GET /events
	AuthEnabled   bool
	AuthToken     string
	SecureCookies bool
	Logger        *slog.Logger
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(cfg RouterConfig) chi.Router {
	h := NewHandler(cfg.Registry, cfg.Runs, cfg.Logger)

	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(cfg.SecureCookies))

		r.Get("/projects", h.ListProjects)
		r.Get("/projects/{id}", h.GetProject)
		r.Get("/projects/{id}/media", h.StreamMedia)
		r.Delete("/projects/media", h.CancelMedia)

		r.Get("/about", h.About)
		r.Get("/vault", h.Vault)

		r.Get("/gate/{kind}", h.GateState)
		r.Post("/gate/{kind}", h.Unlock)

		r.Delete("/session", h.EndSession)
	})

	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	if cfg.Runs != nil {
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.AuthToken))
			r.Get("/admin/runs", h.ListRuns)
		})
	}

	return r
}
