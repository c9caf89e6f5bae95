package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/starford/rtfm/internal/apperr"
	"github.com/starford/rtfm/internal/models"
)

// ErrNotRepository is returned when the content directory holds files but
// is not a git checkout, so neither clone nor pull can proceed.
var ErrNotRepository = errors.New("vcs: content directory exists but is not a git repository")

// GitConfig configures a Git instance.
type GitConfig struct {
	Dir     string
	Repo    string
	Branch  string
	Token   string
	Timeout time.Duration
}

// Git implements VCS by invoking the git binary.
type Git struct {
	dir     string
	repo    string
	branch  string
	token   string
	timeout time.Duration
	bin     string
	now     func() time.Time
}

var _ VCS = (*Git)(nil)

// NewGit creates a Git client for cfg.Dir. Branch defaults to "main".
func NewGit(cfg GitConfig) *Git {
	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}
	return &Git{
		dir:     cfg.Dir,
		repo:    cfg.Repo,
		branch:  branch,
		token:   cfg.Token,
		timeout: cfg.Timeout,
		bin:     "git",
		now:     time.Now,
	}
}

// Configured reports whether a remote repository is set.
func (g *Git) Configured() bool {
	return g.repo != ""
}

// Remote returns the repository URL with credentials hidden.
func (g *Git) Remote() string {
	return Redact(g.repo)
}

// IsRepo reports whether the content directory is a git checkout.
func (g *Git) IsRepo() bool {
	_, err := os.Stat(filepath.Join(g.dir, ".git"))
	return err == nil
}

// Clone clones the configured branch into the content directory.
func (g *Git) Clone(ctx context.Context) error {
	_, err := g.run(ctx, "", "clone", "-b", g.branch, AuthURL(g.repo, g.token), g.dir)
	return err
}

// Pull fetches and merges the configured branch from origin.
func (g *Git) Pull(ctx context.Context) error {
	_, err := g.run(ctx, g.dir, "pull", "origin", g.branch)
	return err
}

// HeadInfo returns the short hash, subject and relative commit date of HEAD.
func (g *Git) HeadInfo(ctx context.Context) (models.CommitInfo, error) {
	out, err := g.run(ctx, g.dir, "log", "-1", "--format=%h%x00%s%x00%ct")
	if err != nil {
		return models.CommitInfo{}, err
	}
	parts := strings.SplitN(out, "\x00", 3)
	if len(parts) != 3 {
		return models.CommitInfo{}, fmt.Errorf("%w: vcs: unexpected log output %q", apperr.ErrUpstream, out)
	}
	date, err := g.relative(parts[2])
	if err != nil {
		return models.CommitInfo{}, err
	}
	return models.CommitInfo{Hash: parts[0], Message: parts[1], Date: date}, nil
}

// LastModified returns the relative commit time of the last change to path.
func (g *Git) LastModified(ctx context.Context, path string) (string, error) {
	out, err := g.run(ctx, g.dir, "log", "-1", "--format=%ct", "--", path)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", nil
	}
	return g.relative(out)
}

func (g *Git) relative(unix string) (string, error) {
	secs, err := strconv.ParseInt(strings.TrimSpace(unix), 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: vcs: parse commit time %q: %v", apperr.ErrUpstream, unix, err)
	}
	return humanize.RelTime(time.Unix(secs, 0), g.now(), "ago", "from now"), nil
}

// run executes git with args in dir and returns trimmed stdout. Errors carry
// the redacted stderr and wrap apperr.ErrUpstream.
func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, g.bin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%w: git %s: %s", apperr.ErrUpstream, args[0], Redact(msg))
	}
	return strings.TrimSpace(stdout.String()), nil
}
