package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/rtfm/internal/journal"
	"github.com/starford/rtfm/internal/models"
)

// Docs is the read side of the site.
type Docs interface {
	Nav(ctx context.Context) ([]models.NavNode, error)
	Document(ctx context.Context, path string) (*models.Document, error)
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	Commit(ctx context.Context) (models.CommitInfo, error)
}

// Puller triggers a content repository pull.
type Puller interface {
	Pull(ctx context.Context, trigger string) error
}

// RunLister lists recent sync runs.
type RunLister interface {
	Recent(ctx context.Context, limit int) ([]journal.Run, error)
}

// Options wires the router's collaborators. Syncer, Runs and Events are
// optional: their routes are omitted (or answer with an empty list) when nil.
type Options struct {
	Docs          Docs
	Site          models.SiteConfig
	Syncer        Puller
	Runs          RunLister
	WebhookSecret string
	Events        http.Handler
}

// NewRouter creates a chi router with all API routes; mount it at /api.
func NewRouter(opts Options) chi.Router {
	h := NewHandler(opts)

	r := chi.NewRouter()
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.NotFound)

	r.Get("/config", h.Config)
	r.Get("/nav", h.Nav)
	r.Get("/doc/*", h.Doc)
	r.Get("/search", h.Search)
	r.Get("/commit", h.Commit)
	r.Get("/syncs", h.Syncs)

	if opts.Syncer != nil {
		r.With(SignatureMiddleware(opts.WebhookSecret)).Post("/webhook", h.Webhook)
	}
	if opts.Events != nil {
		r.Get("/events", opts.Events.ServeHTTP)
	}

	return r
}
