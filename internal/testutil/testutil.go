// Package testutil provides shared test helpers for content fixtures and a
// fake version-control collaborator.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/starford/rtfm/internal/models"
	"github.com/starford/rtfm/internal/storage"
)

// TestContent creates a temporary content directory populated with files
// (path → content) and returns it with a storage.Provider.
func TestContent(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	for p, content := range files {
		if err := store.Write(p, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	return dir, store
}

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// FakeVCS is an in-memory stand-in for the git collaborator.
type FakeVCS struct {
	mu sync.Mutex

	Head      models.CommitInfo
	Modified  map[string]string
	Repo      bool
	RemoteURL string

	PullErr  error
	CloneErr error
	HeadErr  error
	ModErr   error

	// OnClone runs after a successful clone, e.g. to write fixture files.
	OnClone func()

	pulls  int
	clones int
}

// Pull records the call and returns PullErr.
func (f *FakeVCS) Pull(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls++
	return f.PullErr
}

// HeadInfo returns Head or HeadErr.
func (f *FakeVCS) HeadInfo(context.Context) (models.CommitInfo, error) {
	if f.HeadErr != nil {
		return models.CommitInfo{}, f.HeadErr
	}
	return f.Head, nil
}

// LastModified looks path up in Modified.
func (f *FakeVCS) LastModified(_ context.Context, path string) (string, error) {
	if f.ModErr != nil {
		return "", f.ModErr
	}
	return f.Modified[path], nil
}

// Configured reports whether a remote is set.
func (f *FakeVCS) Configured() bool { return f.RemoteURL != "" }

// Remote returns the configured remote.
func (f *FakeVCS) Remote() string { return f.RemoteURL }

// IsRepo reports whether the fake has been cloned or marked as a repo.
func (f *FakeVCS) IsRepo() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Repo
}

// Clone records the call and, on success, marks the fake as a repo.
func (f *FakeVCS) Clone(context.Context) error {
	f.mu.Lock()
	f.clones++
	if f.CloneErr != nil {
		f.mu.Unlock()
		return f.CloneErr
	}
	f.Repo = true
	f.mu.Unlock()
	if f.OnClone != nil {
		f.OnClone()
	}
	return nil
}

// Pulls returns the number of Pull calls.
func (f *FakeVCS) Pulls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pulls
}

// Clones returns the number of Clone calls.
func (f *FakeVCS) Clones() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clones
}
