// Package nav builds the sidebar navigation tree from content file paths.
package nav

import (
	"strings"

	"github.com/starford/rtfm/internal/models"
)

// reserved root documents are reachable by direct path only.
var reserved = map[string]struct{}{
	"index.md":  {},
	"README.md": {},
}

// BuildTree turns sorted, slash-separated markdown paths into a nested tree.
// Directory nodes are created on first sight and reused for later paths;
// sibling order follows input order. The result is never nil.
func BuildTree(paths []string) []models.NavNode {
	tree := []models.NavNode{}

	for _, p := range paths {
		if _, skip := reserved[p]; skip {
			continue
		}

		parts := strings.Split(p, "/")
		level := &tree
		for _, dir := range parts[:len(parts)-1] {
			level = dirChildren(level, dir)
		}

		name := parts[len(parts)-1]
		*level = append(*level, models.NavNode{
			Kind:  models.NodeDocument,
			Name:  name,
			Title: models.DisplayTitle(name),
			Path:  strings.TrimSuffix(p, ".md"),
		})
	}

	return tree
}

// dirChildren returns the children of the first directory named name at
// level, appending a new directory node when none exists.
func dirChildren(level *[]models.NavNode, name string) *[]models.NavNode {
	for i := range *level {
		n := &(*level)[i]
		if n.IsDir() && n.Name == name {
			return &n.Children
		}
	}
	*level = append(*level, models.NavNode{
		Kind:     models.NodeDirectory,
		Name:     name,
		Title:    strings.ReplaceAll(name, "-", " "),
		Children: []models.NavNode{},
	})
	return &(*level)[len(*level)-1].Children
}
