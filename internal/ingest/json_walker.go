package ingest

import (
	"fmt"

	"github.com/agentic-research/simready/internal/asset"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// DefaultSelector selects every element of a top-level JSON array, the
// shape of an asset_info.json listing.
const DefaultSelector = "$[*]"

// ListingWalker extracts listing entries with a JSONPath selector.
type ListingWalker struct {
	selector jp.Expr
}

func NewListingWalker(selector string) (*ListingWalker, error) {
	if selector == "" {
		selector = DefaultSelector
	}
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	return &ListingWalker{selector: x}, nil
}

// Entries parses data and returns the selected entries. Selected values that
// are not objects are reported through skipped.
func (w *ListingWalker) Entries(data []byte) (entries []asset.Raw, skipped int, err error) {
	root, err := oj.Parse(data)
	if err != nil {
		return nil, 0, fmt.Errorf("parse listing: %w", err)
	}
	if _, ok := root.([]any); !ok && w.selector.String() == DefaultSelector {
		return nil, 0, fmt.Errorf("parse listing: top level is %T, want array", root)
	}
	for _, v := range w.selector.Get(root) {
		obj, ok := v.(map[string]any)
		if !ok {
			skipped++
			continue
		}
		entries = append(entries, obj)
	}
	return entries, skipped, nil
}
