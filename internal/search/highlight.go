package search

import (
	"strings"

	"github.com/samber/lo"

	"github.com/tessro/earshot/internal/core"
)

// Fragment is a run of text, marked when it matches the query.
type Fragment struct {
	Text  string
	Match bool
}

// Highlight splits text around case-insensitive occurrences of query.
func Highlight(text, query string) []Fragment {
	query = strings.TrimSpace(query)
	if query == "" || text == "" {
		return []Fragment{{Text: text}}
	}

	lowerText, lowerQuery := strings.ToLower(text), strings.ToLower(query)
	// lowercasing can change byte lengths; fall back to no highlight
	if len(lowerText) != len(text) || len(lowerQuery) != len(query) {
		return []Fragment{{Text: text}}
	}

	var out []Fragment
	for {
		i := strings.Index(lowerText, lowerQuery)
		if i < 0 {
			break
		}
		if i > 0 {
			out = append(out, Fragment{Text: text[:i]})
		}
		out = append(out, Fragment{Text: text[i : i+len(query)], Match: true})
		text, lowerText = text[i+len(query):], lowerText[i+len(query):]
	}
	if text != "" || len(out) == 0 {
		out = append(out, Fragment{Text: text})
	}
	return out
}

// FilterSegments keeps segments containing query. Queries of two
// characters or fewer keep everything.
func FilterSegments(segments []core.Segment, query string) []core.Segment {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) <= 2 {
		return segments
	}
	return lo.Filter(segments, func(s core.Segment, _ int) bool {
		return strings.Contains(strings.ToLower(s.Text), q)
	})
}
