package handler

import (
	"net/http"

	"aternotes/internal/middleware"
	"aternotes/internal/session"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the route handlers mounted by NewRouter.
type Handlers struct {
	Guides     *GuideHandler
	Moderators *ModeratorHandler
	Auth       *AuthHandler
	Seo        *SeoHandler
	Metrics    http.Handler
}

// NewRouter creates and configures a new chi router.
func NewRouter(h Handlers, authzMiddleware func(http.Handler) http.Handler, errorMiddleware func(middleware.AppHandler) http.Handler, sm session.Manager) *chi.Mux {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SettingsMiddleware)
	r.Use(sm.LoadAndSave)
	r.Use(authzMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/guides", http.StatusFound)
	})

	if h.Seo != nil {
		r.Get("/robots.txt", h.Seo.robotsHandler)
		r.Get("/sitemap.xml", h.Seo.sitemapHandler)
	}
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	// Authentication routes
	if h.Auth != nil {
		r.Get("/auth/login", h.Auth.handleLogin)
		r.Get("/auth/callback", h.Auth.handleCallback)
		r.Post("/auth/logout", h.Auth.handleLogout)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/guides", func(r chi.Router) {
			r.Method(http.MethodGet, "/", errorMiddleware(h.Guides.listPublished))
			r.Method(http.MethodPost, "/", errorMiddleware(h.Guides.create))
			r.Method(http.MethodGet, "/by-slug/{slug}", errorMiddleware(h.Guides.getBySlug))
			r.Method(http.MethodGet, "/{id}", errorMiddleware(h.Guides.getByID))
			r.Method(http.MethodPatch, "/{id}", errorMiddleware(h.Guides.update))
			r.Method(http.MethodDelete, "/{id}", errorMiddleware(h.Guides.remove))
			r.Method(http.MethodPost, "/{id}/submit", errorMiddleware(h.Guides.submit))
			r.Method(http.MethodPost, "/{id}/approve", errorMiddleware(h.Guides.approve))
			r.Method(http.MethodPost, "/{id}/reject", errorMiddleware(h.Guides.reject))
		})
		r.Method(http.MethodGet, "/me/guides", errorMiddleware(h.Guides.listMine))
		r.Method(http.MethodGet, "/review/queue", errorMiddleware(h.Guides.listPending))

		r.Route("/moderators", func(r chi.Router) {
			r.Method(http.MethodGet, "/", errorMiddleware(h.Moderators.list))
			r.Method(http.MethodPost, "/", errorMiddleware(h.Moderators.add))
			r.Method(http.MethodPost, "/{id}/refresh", errorMiddleware(h.Moderators.refresh))
			r.Method(http.MethodDelete, "/{id}", errorMiddleware(h.Moderators.remove))
			r.Method(http.MethodPost, "/discord/{discordID}/refresh", errorMiddleware(h.Moderators.refresh))
			r.Method(http.MethodDelete, "/discord/{discordID}", errorMiddleware(h.Moderators.remove))
		})
	})

	return r
}
