// Package storage defines the content file-system abstraction.
package storage

import "errors"

// ErrOutsideRoot is returned for paths that resolve outside the content root.
var ErrOutsideRoot = errors.New("storage: path escapes content root")

// Provider is the interface for content file operations.
type Provider interface {
	// Root returns the absolute content directory.
	Root() string
	// List returns the slash-separated paths of every visible .md file,
	// sorted lexicographically.
	List() ([]string, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
}
