// Package contentsync keeps the content directory in step with the remote
// documentation repository: clone or pull at startup, pull on demand, and
// degrade to a placeholder page when the repository cannot be reached.
package contentsync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/starford/rtfm/internal/models"
	"github.com/starford/rtfm/internal/storage"
	"github.com/starford/rtfm/internal/vcs"
)

// Sync triggers, recorded with every run.
const (
	TriggerStartup  = "startup"
	TriggerWebhook  = "webhook"
	TriggerInterval = "interval"
	TriggerManual   = "manual"
)

// ErrNotConfigured is returned by Pull when no remote repository is set.
var ErrNotConfigured = errors.New("contentsync: no content repository configured")

const indexFile = "index.md"

// Repository is the version-control surface the syncer drives.
type Repository interface {
	vcs.VCS
	Configured() bool
	Remote() string
	IsRepo() bool
	Clone(ctx context.Context) error
}

// Recorder persists sync runs.
type Recorder interface {
	Start(ctx context.Context, trigger string) (string, error)
	Finish(ctx context.Context, id, commit string, runErr error) error
}

// Syncer serializes clone/pull runs against one content directory.
type Syncer struct {
	store    storage.Provider
	repo     Repository
	rec      Recorder
	logger   *slog.Logger
	onSynced func(models.CommitInfo)

	mu sync.Mutex
}

// New creates a Syncer. rec may be nil to skip run recording.
func New(store storage.Provider, repo Repository, rec Recorder, logger *slog.Logger) *Syncer {
	return &Syncer{store: store, repo: repo, rec: rec, logger: logger}
}

// OnSynced registers fn to be called with the head commit after every
// successful run.
func (s *Syncer) OnSynced(fn func(models.CommitInfo)) {
	s.onSynced = fn
}

// Init prepares the content directory at startup. Sync failures never
// abort startup: they are logged and replaced by a placeholder index page.
// The returned error reports only a failure to write that placeholder.
func (s *Syncer) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.repo.Configured() {
		s.logger.Warn("No content repository configured; set DOCS_REPO to clone your documentation")
		empty, err := isEmptyDir(s.store.Root())
		if err != nil {
			return fmt.Errorf("contentsync: inspect content dir: %w", err)
		}
		if empty {
			return s.writePlaceholder(welcomeDoc)
		}
		return nil
	}

	if err := s.record(ctx, TriggerStartup); err != nil {
		s.logger.Error("Content sync failed",
			slog.String("repo", s.repo.Remote()),
			slog.String("error", vcs.Redact(err.Error())))
		return s.writePlaceholder(errorDoc(err))
	}
	return nil
}

// Pull brings the content directory up to date. Concurrent calls wait for
// the running sync to finish.
func (s *Syncer) Pull(ctx context.Context, trigger string) error {
	if !s.repo.Configured() {
		return ErrNotConfigured
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(ctx, trigger)
}

// Run pulls every interval until ctx is cancelled. A non-positive interval
// or a missing repository disables periodic pulls.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || !s.repo.Configured() {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Pull(ctx, TriggerInterval); err != nil {
				s.logger.Warn("periodic pull failed", slog.String("error", vcs.Redact(err.Error())))
			}
		}
	}
}

// record runs one sync and journals its outcome. Callers hold s.mu.
func (s *Syncer) record(ctx context.Context, trigger string) error {
	var id string
	if s.rec != nil {
		var err error
		if id, err = s.rec.Start(ctx, trigger); err != nil {
			s.logger.Warn("journal: start failed", slog.String("error", err.Error()))
		}
	}

	runErr := s.sync(ctx)

	var commit string
	if runErr == nil {
		info, err := s.repo.HeadInfo(ctx)
		if err != nil {
			s.logger.Warn("head commit lookup failed", slog.String("error", err.Error()))
		} else {
			commit = info.Hash
			s.logger.Info("Content synced",
				slog.String("trigger", trigger),
				slog.String("commit", info.Hash),
				slog.String("message", info.Message))
			if s.onSynced != nil {
				s.onSynced(info)
			}
		}
	}

	if id != "" {
		var recErr error
		if runErr != nil {
			recErr = errors.New(vcs.Redact(runErr.Error()))
		}
		if err := s.rec.Finish(ctx, id, commit, recErr); err != nil {
			s.logger.Warn("journal: finish failed", slog.String("error", err.Error()))
		}
	}
	return runErr
}

// sync pulls an existing checkout, or clones into an empty directory.
func (s *Syncer) sync(ctx context.Context) error {
	if s.repo.IsRepo() {
		s.logger.Info("Content directory exists, pulling latest changes")
		return s.repo.Pull(ctx)
	}
	empty, err := isEmptyDir(s.store.Root())
	if err != nil {
		return fmt.Errorf("contentsync: inspect content dir: %w", err)
	}
	if !empty {
		return vcs.ErrNotRepository
	}
	s.logger.Info("Cloning content repository", slog.String("repo", s.repo.Remote()))
	return s.repo.Clone(ctx)
}

func (s *Syncer) writePlaceholder(content string) error {
	if err := s.store.Write(indexFile, []byte(content)); err != nil {
		return fmt.Errorf("contentsync: write placeholder: %w", err)
	}
	return nil
}

func isEmptyDir(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

const welcomeDoc = `# Welcome

Please configure the DOCS_REPO environment variable to clone your documentation repository.
`

func errorDoc(err error) string {
	return fmt.Sprintf(`# Configuration Error

Failed to sync the documentation repository.

**Error:** %s

Please check your DOCS_REPO configuration.
`, vcs.Redact(err.Error()))
}
