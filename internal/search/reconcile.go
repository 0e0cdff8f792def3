package search

import (
	"fmt"
	"strings"

	"github.com/agentic-research/simready/internal/graph"
)

// SubsetPolicy decides when the selected category survives a search.
type SubsetPolicy int

const (
	// Inclusive keeps the category while all of its words are among the
	// search words, including when the two sets are equal.
	Inclusive SubsetPolicy = iota
	// Strict keeps the category only when the search adds words to it.
	Strict
)

func (p SubsetPolicy) String() string {
	if p == Strict {
		return "strict"
	}
	return "inclusive"
}

func ParseSubsetPolicy(s string) (SubsetPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inclusive":
		return Inclusive, nil
	case "strict":
		return Strict, nil
	}
	return Inclusive, fmt.Errorf("unknown subset policy %q", s)
}

// Decision is the outcome of reconciling search words with a category.
type Decision struct {
	// ResetToAll means the category no longer applies; Words must be
	// matched against the whole catalog.
	ResetToAll bool
	// Words are the words left to match.
	Words []string
}

// Reconcile applies the category rule. label is the selected category's
// label path; the empty label is the ALL category.
//
// With the category kept, its words are removed from the search words since
// the category already narrows the candidates. Otherwise, including when
// there are no search words at all, the category resets to ALL and the
// original words are used unchanged.
func (p SubsetPolicy) Reconcile(label string, words []string) Decision {
	if label == "" {
		return Decision{Words: words}
	}
	if len(words) == 0 {
		return Decision{ResetToAll: true, Words: words}
	}

	categoryWords := fold(graph.Words(label))
	if len(categoryWords) == 0 {
		return Decision{Words: words}
	}
	searchWords := fold(words)
	for w := range categoryWords {
		if _, ok := searchWords[w]; !ok {
			return Decision{ResetToAll: true, Words: words}
		}
	}
	if p == Strict && len(searchWords) == len(categoryWords) {
		return Decision{ResetToAll: true, Words: words}
	}

	remaining := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := categoryWords[strings.ToLower(w)]; !ok {
			remaining = append(remaining, w)
		}
	}
	return Decision{Words: remaining}
}

// Reconcile uses the Inclusive policy.
func Reconcile(label string, words []string) Decision {
	return Inclusive.Reconcile(label, words)
}

func fold(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}
