package search

import (
	"sync"

	"github.com/agentic-research/simready/internal/asset"
	"github.com/agentic-research/simready/internal/graph"
)

// Corpus supplies the candidates of a category. The empty label is ALL.
type Corpus interface {
	Assets(label string) []*asset.Record
	Tags(label string) []string
}

// Result is one search outcome.
type Result struct {
	// Category is the category the records were drawn from after
	// reconciliation; empty is ALL.
	Category    string
	Reset       bool
	Records     []*asset.Record
	Suggestions []string
}

// Session tracks the selected category between searches.
type Session struct {
	Corpus Corpus
	Policy SubsetPolicy

	mu       sync.Mutex
	category string
}

func NewSession(c Corpus, p SubsetPolicy) *Session {
	return &Session{Corpus: c, Policy: p}
}

// Category returns the selected label; empty is ALL.
func (s *Session) Category() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category
}

// SelectCategory selects label and returns the words it implies together
// with the tag vocabulary of the category, for presetting a search field.
func (s *Session) SelectCategory(label string) (words, suggestions []string) {
	s.mu.Lock()
	s.category = label
	s.mu.Unlock()
	return graph.Words(label), s.Corpus.Tags(label)
}

// Search reconciles words with the selected category and filters.
func (s *Session) Search(words []string) Result {
	s.mu.Lock()
	d := s.Policy.Reconcile(s.category, words)
	if d.ResetToAll {
		s.category = ""
	}
	category := s.category
	s.mu.Unlock()

	records := Filter(s.Corpus.Assets(category), d.Words)
	return Result{
		Category:    category,
		Reset:       d.ResetToAll,
		Records:     records,
		Suggestions: Suggestions(records),
	}
}
