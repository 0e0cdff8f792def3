package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentic-research/simready/internal/asset"
	"github.com/agentic-research/simready/internal/log"
	"github.com/agentic-research/simready/internal/source"
)

// DefaultListingFile is the name of the per-folder listing.
const DefaultListingFile = "asset_info.json"

// ErrTraversal marks a folder whose listing could not be read or parsed.
// The folder is still Traversed; it just contributes no records.
var ErrTraversal = errors.New("folder traversal failed")

// Traverser reads folder listings from a Source and turns them into records.
type Traverser struct {
	Source      source.Source
	Factory     RecordFactory
	IDs         IDAllocator
	ListingFile string
	Recurse     bool
	Log         *log.Logger

	walker *ListingWalker
}

// NewTraverser builds a Traverser. selector picks the entries out of a
// listing document; empty means DefaultSelector.
func NewTraverser(src source.Source, factory RecordFactory, ids IDAllocator, selector string) (*Traverser, error) {
	w, err := NewListingWalker(selector)
	if err != nil {
		return nil, err
	}
	return &Traverser{
		Source:      src,
		Factory:     factory,
		IDs:         ids,
		ListingFile: DefaultListingFile,
		walker:      w,
	}, nil
}

// ListingLocator is where the listing of folder lives.
func (t *Traverser) ListingLocator(folder string) string {
	name := t.ListingFile
	if name == "" {
		name = DefaultListingFile
	}
	return asset.JoinLocator(folder, name)
}

// Traverse reads the listing of f and appends the records it describes.
// It returns the child folders discovered when recursion is enabled; the
// caller decides when to traverse them.
//
// A listing that is missing, unreadable or malformed is logged and leaves
// f Traversed with OK false. Cancellation of ctx leaves f Traversing and
// returns ctx.Err(); a later call retries it.
func (t *Traverser) Traverse(ctx context.Context, f *Folder) ([]*Folder, error) {
	gen := f.begin()
	l := t.Log.Named("traverse")
	listing := t.ListingLocator(f.Locator)

	records, err := t.load(ctx, f.Locator, listing)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		l.Error("%s: %v", listing, err)
		f.finish(gen, false, fmt.Errorf("%w: %s: %w", ErrTraversal, f.Locator, err))
		return nil, nil
	}

	children, err := t.discover(ctx, f.Locator)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		// Records are still usable without children.
		l.Warn("%s: list folders: %v", f.Locator, err)
	}

	if !f.current(gen) {
		return nil, nil
	}
	f.Append(records...)
	for _, c := range children {
		f.AddChild(c)
	}
	if !f.finish(gen, true, nil) {
		return nil, nil
	}
	l.Debug("%s: %d records, %d folders", f.Locator, len(records), len(children))
	return children, nil
}

func (t *Traverser) load(ctx context.Context, folder, listing string) ([]*asset.Record, error) {
	if _, err := t.Source.Stat(ctx, listing); err != nil {
		return nil, err
	}
	data, err := t.Source.Read(ctx, listing)
	if err != nil {
		return nil, err
	}
	walker := t.walker
	if walker == nil {
		walker, _ = NewListingWalker("")
	}
	entries, skipped, err := walker.Entries(data)
	if err != nil {
		return nil, err
	}
	l := t.Log.Named("traverse")
	if skipped > 0 {
		l.Warn("%s: skipped %d entries that are not objects", listing, skipped)
	}

	records := make([]*asset.Record, 0, len(entries))
	for i, raw := range entries {
		raw[asset.RootKey] = folder
		rec, err := t.Factory.Create(raw)
		if err != nil {
			l.Warn("%s: entry %d: %v", listing, i, err)
			continue
		}
		if t.IDs != nil {
			rec.ID = t.IDs.Intern(rec.Locator)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (t *Traverser) discover(ctx context.Context, folder string) ([]*Folder, error) {
	if !t.Recurse {
		return nil, nil
	}
	lister, ok := t.Source.(source.DirLister)
	if !ok {
		return nil, nil
	}
	dirs, err := lister.ListDirs(ctx, folder)
	if err != nil {
		return nil, err
	}
	children := make([]*Folder, 0, len(dirs))
	for _, d := range dirs {
		children = append(children, NewFolder(d))
	}
	return children, nil
}
