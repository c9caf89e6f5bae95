// Package models defines the domain types for rtfm.
package models

import "strings"

// NodeKind distinguishes directory and document entries in the navigation tree.
type NodeKind string

// Wire values are shared with the browser client.
const (
	NodeDirectory NodeKind = "dir"
	NodeDocument  NodeKind = "file"
)

// NavNode is one entry of the sidebar navigation tree.
// Directory nodes carry Children; document nodes carry Path.
type NavNode struct {
	Kind     NodeKind  `json:"type"`
	Name     string    `json:"name"`
	Title    string    `json:"title"`
	Path     string    `json:"path,omitempty"`
	Children []NavNode `json:"children,omitempty"`
}

// IsDir reports whether n is a directory node.
func (n NavNode) IsDir() bool {
	return n.Kind == NodeDirectory
}

// Document is a rendered markdown file.
type Document struct {
	FrontMatter  FrontMatter `json:"frontmatter"`
	HTML         string      `json:"html"`
	Title        string      `json:"title"`
	LastModified string      `json:"lastModified,omitempty"`
}

// SearchResult is a single search hit.
type SearchResult struct {
	Title   string `json:"title"`
	Path    string `json:"path"`
	Preview string `json:"preview"`
}

// CommitInfo describes the current head of the content repository.
type CommitInfo struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
	Date    string `json:"date"`
}

// DisplayTitle turns a file or directory name into a sidebar title:
// the .md suffix is dropped and dashes become spaces.
func DisplayTitle(name string) string {
	return strings.ReplaceAll(strings.TrimSuffix(name, ".md"), "-", " ")
}
