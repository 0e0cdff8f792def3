// Package search narrows asset lists by free-text words and reconciles the
// words with the category the user has selected.
package search

import (
	"strings"

	"github.com/agentic-research/simready/internal/asset"
	"github.com/tidwall/btree"
)

// Match reports whether every word is a case-insensitive substring of the
// record's name or of at least one of its tags. No words match everything.
func Match(r *asset.Record, words []string) bool {
	name := strings.ToLower(r.Name)
	for _, w := range words {
		w = strings.ToLower(w)
		if strings.Contains(name, w) {
			continue
		}
		if !anyTagContains(r.Tags, w) {
			return false
		}
	}
	return true
}

func anyTagContains(tags []string, w string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), w) {
			return true
		}
	}
	return false
}

// Filter returns the candidates matching words, in candidate order.
func Filter(candidates []*asset.Record, words []string) []*asset.Record {
	out := make([]*asset.Record, 0, len(candidates))
	for _, r := range candidates {
		if Match(r, words) {
			out = append(out, r)
		}
	}
	return out
}

// Suggestions is the sorted, deduplicated union of the records' tags.
func Suggestions(records []*asset.Record) []string {
	var set btree.Set[string]
	for _, r := range records {
		for _, tag := range r.Tags {
			if tag != "" {
				set.Insert(tag)
			}
		}
	}
	return set.Keys()
}

// Normalize splits free text into search words. Blank text yields nil,
// meaning no filter.
func Normalize(text string) []string {
	return strings.Fields(text)
}
