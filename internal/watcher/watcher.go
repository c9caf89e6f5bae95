// Package watcher reports markdown changes under the content directory.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Change kinds passed to Callback.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// Callback receives the change kind and the logical document path (slash
// separated, without the .md extension).
type Callback func(kind, path string)

// Watch watches root recursively until ctx is cancelled, calling cb for
// every markdown file created, written, removed or renamed away. Hidden
// files and directories (.git included) are ignored. Directories created
// at runtime are watched too, and markdown files already inside them are
// reported as created.
func Watch(ctx context.Context, root string, logger *slog.Logger, cb Callback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root))

	emit := func(kind, abs string) {
		logical, ok := logicalPath(root, abs)
		if !ok {
			return
		}
		logger.Debug("watcher: change", slog.String("path", logical), slog.String("op", kind))
		if cb != nil {
			cb(kind, logical)
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if hidden(root, ev.Name) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					walkMarkdown(root, ev.Name, func(abs string) { emit(Created, abs) })
					continue
				}
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				emit(Created, ev.Name)
			case ev.Op&fsnotify.Write != 0:
				emit(Updated, ev.Name)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// A rename arrives on the old path only; the new path, if it
				// stays under root, follows as a separate Create.
				emit(Deleted, ev.Name)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// logicalPath maps an absolute markdown path to its document path.
func logicalPath(root, abs string) (string, bool) {
	if !strings.HasSuffix(abs, ".md") {
		return "", false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return strings.TrimSuffix(filepath.ToSlash(rel), ".md"), true
}

// hidden reports whether any component of abs below root starts with a dot.
func hidden(root, abs string) bool {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return true
		}
	}
	return false
}

func walkMarkdown(root, dir string, fn func(abs string)) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if hidden(root, p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(p, ".md") {
			fn(p)
		}
		return nil
	})
}

// addDirsRecursive adds dir and all its non-hidden subdirectories.
func addDirsRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
