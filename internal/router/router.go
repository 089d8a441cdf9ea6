// Package router sets up all HTTP routes and middleware chains for the
// endflow content and tracking service. Content, consent and event routes
// live under /api and carry a visitor identity; the content store webhook
// and sitemap are mounted at the root.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"endflow/internal/handlers"
	"endflow/internal/middleware"
)

// Handlers groups the handler sets the router mounts.
type Handlers struct {
	Content *handlers.Content
	Consent *handlers.Consent
	Events  *handlers.Events
	Hooks   *handlers.Hooks
}

// Options configures the middleware chains.
type Options struct {
	// SecureCookies marks visitor cookies Secure (production).
	SecureCookies bool
	// Attribution captures campaign parameters from API GET requests. Optional.
	Attribution middleware.AttributionCapturer
	// EventLimiter throttles event and page view ingestion per IP. Optional.
	EventLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(h Handlers, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check, no visitor identity.
	r.Get("/health", healthHandler)

	r.Get("/sitemap.xml", h.Content.Sitemap)
	r.Post("/hooks/content", h.Hooks.ContentChanged)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Visitor(opts.SecureCookies))
		if opts.Attribution != nil {
			r.Use(middleware.Attribution(opts.Attribution))
		}

		// Content
		r.Route("/content", func(r chi.Router) {
			r.Get("/posts", h.Content.ListPosts)
			r.Get("/posts/{slug}", h.Content.Post)
			r.Get("/categories", h.Content.Categories)
			r.Get("/categories/{slug}/posts", h.Content.CategoryPosts)
			r.Get("/authors", h.Content.Authors)
			r.Get("/authors/{slug}/posts", h.Content.AuthorPosts)
			r.Get("/tags", h.Content.Tags)
			r.Get("/tags/{slug}/posts", h.Content.TagPosts)
		})

		// Consent
		r.Route("/consent", func(r chi.Router) {
			r.Get("/", h.Consent.Get)
			r.Put("/", h.Consent.Save)
			r.Post("/accept-all", h.Consent.AcceptAll)
			r.Post("/necessary-only", h.Consent.NecessaryOnly)
		})

		// Event ingestion, rate limited per IP.
		r.Group(func(r chi.Router) {
			if opts.EventLimiter != nil {
				r.Use(opts.EventLimiter.Middleware)
			}
			r.Post("/events", h.Events.Track)
			r.Post("/pageview", h.Events.Pageview)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
