// Package search ranks content documents against a free-text query.
package search

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/starford/rtfm/internal/models"
)

const (
	// MaxResults caps the number of hits returned per query.
	MaxResults = 10
	// MinQueryLength is the shortest query that is searched at all.
	MinQueryLength = 2

	previewLines = 3
	previewLimit = 200
)

// Every title match outranks every body match: the tier is the most
// significant part of the score and the in-tier score never crosses tierSpan.
const (
	tierBody = iota + 1
	tierTitleFuzzy
	tierTitle

	tierSpan = 1_000_000
)

// Document is one searchable file snapshot.
type Document struct {
	Title string
	Path  string
	Body  string
}

type hit struct {
	result models.SearchResult
	score  int
}

// Valid reports whether query is long enough to be searched.
func Valid(query string) bool {
	return utf8.RuneCountInString(query) >= MinQueryLength
}

// Search returns at most MaxResults documents matching query, best first.
// Ties are broken by ascending path. The result is never nil.
func Search(query string, docs []Document) []models.SearchResult {
	if !Valid(query) {
		return []models.SearchResult{}
	}
	q := strings.ToLower(query)

	var hits []hit
	for _, d := range docs {
		if h, ok := match(q, d); ok {
			hits = append(hits, h)
		}
	}

	slices.SortFunc(hits, func(a, b hit) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return strings.Compare(a.result.Path, b.result.Path)
	})
	if len(hits) > MaxResults {
		hits = hits[:MaxResults]
	}

	out := make([]models.SearchResult, len(hits))
	for i, h := range hits {
		out[i] = h.result
	}
	return out
}

// match scores d against the lowercased query q. Title matches preview the
// start of the body; body matches preview the lines around the first hit.
func match(q string, d Document) (hit, bool) {
	lines := strings.Split(d.Body, "\n")
	title := strings.ToLower(d.Title)

	contains := strings.Contains(title, q)
	fuzzyMatches := fuzzy.Find(q, []string{title})
	if contains || len(fuzzyMatches) > 0 {
		tier, sub := tierTitleFuzzy, 0
		if contains {
			tier = tierTitle
		}
		if len(fuzzyMatches) > 0 {
			sub = fuzzyMatches[0].Score
		}
		return newHit(d, tier, sub, preview(lines, 0, previewLines)), true
	}

	first, count := -1, 0
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), q) {
			if first < 0 {
				first = i
			}
			count++
		}
	}
	if first < 0 {
		return hit{}, false
	}
	return newHit(d, tierBody, count, preview(lines, first-1, first+2)), true
}

func newHit(d Document, tier, sub int, preview string) hit {
	sub = min(max(sub+tierSpan/2, 0), tierSpan-1)
	return hit{
		result: models.SearchResult{Title: d.Title, Path: d.Path, Preview: preview},
		score:  tier*tierSpan + sub,
	}
}

// preview joins lines[start:end] (clamped) with spaces and truncates the
// result to previewLimit characters.
func preview(lines []string, start, end int) string {
	start = max(start, 0)
	end = min(end, len(lines))
	if start >= end {
		return ""
	}
	return truncate(strings.Join(lines[start:end], " "), previewLimit)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
