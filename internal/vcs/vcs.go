// Package vcs wraps the git binary used to keep the content directory in
// sync and to answer commit metadata queries.
package vcs

import (
	"context"
	"regexp"
	"strings"

	"github.com/starford/rtfm/internal/models"
)

// VCS is the narrow version-control surface used by the read path.
type VCS interface {
	// Pull fetches and merges the configured branch.
	Pull(ctx context.Context) error
	// HeadInfo describes the current head commit.
	HeadInfo(ctx context.Context) (models.CommitInfo, error)
	// LastModified returns a relative description ("3 days ago") of the
	// last commit touching path, or "" when path is untracked.
	LastModified(ctx context.Context, path string) (string, error)
}

var credentialsRe = regexp.MustCompile(`https://[^@/\s]*@`)

// AuthURL injects token into an HTTPS repository URL. Other URLs
// (ssh, file) are returned unchanged.
func AuthURL(repo, token string) string {
	if token == "" || !strings.HasPrefix(repo, "https://") {
		return repo
	}
	return "https://" + token + "@" + strings.TrimPrefix(repo, "https://")
}

// Redact hides credentials embedded in HTTPS URLs within s.
func Redact(s string) string {
	return credentialsRe.ReplaceAllString(s, "https://***@")
}
