package ingest

import "github.com/agentic-research/simready/internal/asset"

// RecordFactory builds records from listing entries. *asset.Registry
// implements it.
type RecordFactory interface {
	Create(raw asset.Raw) (*asset.Record, error)
}

// IDAllocator assigns the stable record IDs. *graph.Interner implements it.
type IDAllocator interface {
	Intern(locator string) uint32
}
