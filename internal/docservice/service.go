// Package docservice answers the read-side questions of the site: the
// navigation tree, rendered documents, search hits and the head commit.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/rtfm/internal/apperr"
	"github.com/starford/rtfm/internal/models"
	"github.com/starford/rtfm/internal/nav"
	"github.com/starford/rtfm/internal/parser"
	"github.com/starford/rtfm/internal/render"
	"github.com/starford/rtfm/internal/search"
	"github.com/starford/rtfm/internal/storage"
	"github.com/starford/rtfm/internal/vcs"
)

const (
	ext = ".md"

	// readLimit bounds concurrent file reads during a search.
	readLimit = 8
)

// Service reads content fresh on every call; it holds no caches.
type Service struct {
	store    storage.Provider
	vcs      vcs.VCS
	renderer render.Renderer
	logger   *slog.Logger
}

// NewService creates a document service.
func NewService(store storage.Provider, v vcs.VCS, r render.Renderer, logger *slog.Logger) *Service {
	return &Service{store: store, vcs: v, renderer: r, logger: logger}
}

// Nav builds the navigation tree over every content file.
func (s *Service) Nav(_ context.Context) ([]models.NavNode, error) {
	paths, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("docservice: nav: %w", err)
	}
	return nav.BuildTree(paths), nil
}

// Document loads, parses and renders the file at logicalPath (no extension).
// Missing files and paths outside the content root yield apperr.ErrNotFound.
func (s *Service) Document(ctx context.Context, logicalPath string) (*models.Document, error) {
	file := logicalPath + ext
	data, err := s.store.Read(file)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, storage.ErrOutsideRoot) {
			s.logger.Debug("document read failed", slog.String("path", file), slog.String("error", err.Error()))
		}
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, logicalPath)
	}

	res := parser.Parse(data)
	html, err := s.renderer.Render([]byte(res.Body))
	if err != nil {
		return nil, fmt.Errorf("docservice: render %s: %w", logicalPath, err)
	}

	doc := &models.Document{
		FrontMatter: res.FrontMatter,
		HTML:        html,
		Title:       parser.Title(res.FrontMatter, logicalPath),
	}
	mod, err := s.vcs.LastModified(ctx, file)
	if err != nil {
		s.logger.Warn("could not get last modified time",
			slog.String("path", logicalPath),
			slog.String("error", vcs.Redact(err.Error())))
	} else {
		doc.LastModified = mod
	}
	return doc, nil
}

// Search reads every content file and ranks it against query. Queries
// shorter than search.MinQueryLength return no hits without touching disk.
// Files that cannot be read are logged and skipped.
func (s *Service) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	if !search.Valid(query) {
		return []models.SearchResult{}, nil
	}
	paths, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("docservice: search: %w", err)
	}

	docs := make([]*search.Document, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readLimit)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := s.store.Read(p)
			if err != nil {
				s.logger.Warn("search: skipping unreadable file", slog.String("path", p), slog.String("error", err.Error()))
				return nil
			}
			res := parser.Parse(data)
			logical := strings.TrimSuffix(p, ext)
			docs[i] = &search.Document{
				Title: parser.Title(res.FrontMatter, logical),
				Path:  logical,
				Body:  res.Body,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("docservice: search: %w", err)
	}

	corpus := make([]search.Document, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			corpus = append(corpus, *d)
		}
	}
	return search.Search(query, corpus), nil
}

// Commit returns the head commit of the content repository.
func (s *Service) Commit(ctx context.Context) (models.CommitInfo, error) {
	info, err := s.vcs.HeadInfo(ctx)
	if err != nil {
		return models.CommitInfo{}, fmt.Errorf("docservice: commit: %w", err)
	}
	return info, nil
}
