package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/rtfm/internal/apperr"
	"github.com/starford/rtfm/internal/contentsync"
	"github.com/starford/rtfm/internal/journal"
	"github.com/starford/rtfm/internal/vcs"
)

// Handler holds API route handlers.
type Handler struct {
	opts Options
}

// NewHandler creates a new Handler.
func NewHandler(opts Options) *Handler {
	return &Handler{opts: opts}
}

// docPath extracts the document path from the URL (everything after
// /api/doc/). Encoded slashes are accepted. chi matches on RawPath when it
// is set, so only then is the parameter still escaped.
func docPath(r *http.Request) string {
	param := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if r.URL.RawPath == "" {
		return param
	}
	decoded, err := url.PathUnescape(param)
	if err != nil {
		return param
	}
	return decoded
}

// Config handles GET /api/config.
//
//	@Summary		Site branding and header links
//	@Tags			site
//	@Produce		json
//	@Success		200	{object}	models.SiteConfig
//	@Router			/config [get]
func (h *Handler) Config(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.opts.Site)
}

// Nav handles GET /api/nav.
//
//	@Summary		Navigation tree
//	@Tags			docs
//	@Produce		json
//	@Success		200	{array}		models.NavNode
//	@Failure		500	{object}	errResponse
//	@Router			/nav [get]
func (h *Handler) Nav(w http.ResponseWriter, r *http.Request) {
	tree, err := h.opts.Docs.Nav(r.Context())
	if err != nil {
		slog.Error("build nav failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to build navigation")
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// Doc handles GET /api/doc/*.
//
//	@Summary		Rendered document
//	@Tags			docs
//	@Produce		json
//	@Param			path	path		string	true	"Document path without extension"
//	@Success		200		{object}	models.Document
//	@Failure		404		{object}	errResponse
//	@Router			/doc/{path} [get]
func (h *Handler) Doc(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	doc, err := h.opts.Docs.Document(r.Context(), path)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			slog.Error("load document failed", slog.String("path", path), slog.String("error", err.Error()))
		}
		writeError(w, http.StatusNotFound, "Document not found: "+path)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Search handles GET /api/search.
//
//	@Summary		Search titles and bodies
//	@Tags			docs
//	@Produce		json
//	@Param			q	query		string	false	"Search query (2+ characters)"
//	@Success		200	{array}		models.SearchResult
//	@Failure		500	{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	results, err := h.opts.Docs.Search(r.Context(), q)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// Commit handles GET /api/commit.
//
//	@Summary		Head commit of the content repository
//	@Tags			repo
//	@Produce		json
//	@Success		200	{object}	models.CommitInfo
//	@Failure		500	{object}	errResponse
//	@Router			/commit [get]
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	info, err := h.opts.Docs.Commit(r.Context())
	if err != nil {
		slog.Warn("commit info failed", slog.String("error", vcs.Redact(err.Error())))
		writeError(w, http.StatusInternalServerError, "Failed to get commit info")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Webhook handles POST /api/webhook. The pull runs in the background so the
// sender is answered immediately; a GitHub ping is acknowledged without one.
//
//	@Summary		Trigger a content pull
//	@Tags			repo
//	@Produce		json
//	@Param			X-Hub-Signature-256	header		string	false	"sha256=<hex hmac> when a secret is configured"
//	@Success		202					{object}	StatusResponse
//	@Failure		401					{object}	errResponse
//	@Router			/webhook [post]
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-GitHub-Event") == "ping" {
		writeJSON(w, http.StatusOK, StatusResponse{Status: "pong"})
		return
	}

	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := h.opts.Syncer.Pull(ctx, contentsync.TriggerWebhook); err != nil {
			slog.Warn("webhook pull failed", slog.String("error", vcs.Redact(err.Error())))
		}
	}()
	writeJSON(w, http.StatusAccepted, StatusResponse{Status: "accepted"})
}

// Syncs handles GET /api/syncs.
//
//	@Summary		Recent sync runs, newest first
//	@Tags			repo
//	@Produce		json
//	@Param			limit	query		int	false	"Max runs (default 20)"
//	@Success		200		{array}		journal.Run
//	@Failure		500		{object}	errResponse
//	@Router			/syncs [get]
func (h *Handler) Syncs(w http.ResponseWriter, r *http.Request) {
	if h.opts.Runs == nil {
		writeJSON(w, http.StatusOK, []journal.Run{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.opts.Runs.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("list syncs failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to list syncs")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// NotFound answers every unknown /api route.
func (h *Handler) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "API endpoint not found")
}
