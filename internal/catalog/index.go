// Package catalog assembles traversed folders into a searchable index of
// categories and assets.
//
// Folder loads run concurrently, bounded by Options.Concurrency. Each
// completed load is applied by a single writer which then publishes a new
// immutable Snapshot. Readers only ever see published snapshots.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/simready/internal/asset"
	"github.com/agentic-research/simready/internal/graph"
	"github.com/agentic-research/simready/internal/ingest"
	"github.com/agentic-research/simready/internal/log"
	"github.com/agentic-research/simready/internal/search"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownFolder is returned by Reload for a locator outside every root.
var ErrUnknownFolder = errors.New("folder is not part of the catalog")

const defaultConcurrency = 8

// Traverser loads one folder. *ingest.Traverser implements it.
type Traverser interface {
	Traverse(ctx context.Context, f *ingest.Folder) ([]*ingest.Folder, error)
}

type Options struct {
	// Concurrency bounds simultaneous folder loads.
	Concurrency int
	Log         *log.Logger
}

// Index is the catalog over a set of root folders.
type Index struct {
	trav        Traverser
	log         *log.Logger
	concurrency int

	mu       sync.Mutex
	epoch    uint64
	roots    []*ingest.Folder
	inflight map[*ingest.Folder]bool
	tree     *graph.LabelTree
	records  map[uint32]*asset.Record
	all      *roaring.Bitmap
	changed  chan struct{}

	snap atomic.Pointer[Snapshot]
}

// New creates an index over roots. Nothing is loaded until Start.
func New(trav Traverser, roots []string, opts Options) *Index {
	x := &Index{
		trav:        trav,
		log:         opts.Log.Named("catalog"),
		concurrency: opts.Concurrency,
		changed:     make(chan struct{}),
	}
	if x.concurrency <= 0 {
		x.concurrency = defaultConcurrency
	}
	x.mu.Lock()
	x.resetLocked(roots)
	x.mu.Unlock()
	return x
}

// Snapshot returns the latest published view.
func (x *Index) Snapshot() *Snapshot {
	return x.snap.Load()
}

// Roots returns the root locators in configuration order.
func (x *Index) Roots() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([]string, 0, len(x.roots))
	for _, r := range x.roots {
		out = append(out, r.Locator)
	}
	return out
}

// Folder finds a root or descendant folder by locator.
func (x *Index) Folder(locator string) (*ingest.Folder, bool) {
	x.mu.Lock()
	roots := x.roots
	x.mu.Unlock()

	var found *ingest.Folder
	for _, r := range roots {
		r.Walk(func(f *ingest.Folder) {
			if found == nil && f.Locator == locator {
				found = f
			}
		})
	}
	return found, found != nil
}

// Start schedules every folder that has not finished traversal, including
// folders left Traversing by a canceled run. It does not block; the loads
// stop early when ctx is canceled.
func (x *Index) Start(ctx context.Context) {
	x.mu.Lock()
	var pending []*ingest.Folder
	for _, r := range x.roots {
		pending = x.collectLocked(r, pending)
	}
	for _, f := range pending {
		x.inflight[f] = true
	}
	epoch := x.epoch
	x.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	x.log.Debug("scheduling %d folders", len(pending))
	go x.run(ctx, epoch, pending)
}

func (x *Index) collectLocked(f *ingest.Folder, acc []*ingest.Folder) []*ingest.Folder {
	if x.inflight[f] {
		return acc
	}
	if f.State() != ingest.Traversed {
		// traversing f again rediscovers its children
		return append(acc, f)
	}
	for _, c := range f.Children() {
		acc = x.collectLocked(c, acc)
	}
	return acc
}

type loaded struct {
	folder   *ingest.Folder
	children []*ingest.Folder
	err      error
}

// run traverses folders and whatever they discover. Loads run in the
// errgroup; results come back to this goroutine, which alone applies them.
func (x *Index) run(ctx context.Context, epoch uint64, folders []*ingest.Folder) {
	var g errgroup.Group
	g.SetLimit(x.concurrency)
	results := make(chan loaded)

	queue := folders
	pending := 0
	for pending > 0 || (len(queue) > 0 && ctx.Err() == nil) {
		for len(queue) > 0 && ctx.Err() == nil {
			f := queue[0]
			ok := g.TryGo(func() error {
				children, err := x.trav.Traverse(ctx, f)
				results <- loaded{folder: f, children: children, err: err}
				return nil
			})
			if !ok {
				break
			}
			queue = queue[1:]
			pending++
		}
		if pending == 0 {
			break
		}

		r := <-results
		pending--
		if !x.apply(epoch, r) {
			continue
		}
		if r.err == nil && ctx.Err() == nil {
			x.mu.Lock()
			for _, c := range r.children {
				x.inflight[c] = true
			}
			x.mu.Unlock()
			queue = append(queue, r.children...)
		}
	}
	_ = g.Wait()

	// folders never started because of cancellation stay retriable
	x.mu.Lock()
	if x.epoch == epoch {
		for _, f := range queue {
			delete(x.inflight, f)
		}
	}
	x.mu.Unlock()
}

// apply folds one finished load into the index and publishes a snapshot.
// It reports false when the load belongs to a previous Reset or when a
// reload of an ancestor has detached the folder from its root.
func (x *Index) apply(epoch uint64, r loaded) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.epoch != epoch {
		return false
	}
	delete(x.inflight, r.folder)
	if !x.attachedLocked(r.folder) {
		x.log.Debug("%s: detached by reload, dropped", r.folder.Locator)
		return false
	}

	switch {
	case r.err != nil:
		x.log.Debug("%s: abandoned: %v", r.folder.Locator, r.err)
	case !r.folder.Traversed():
	case !r.folder.OK():
		x.log.Warn("%s: no records: %v", r.folder.Locator, r.folder.Err())
	default:
		x.addLocked(r.folder)
	}
	x.publishLocked()
	return true
}

// attachedLocked reports whether f is a root or still linked to one.
func (x *Index) attachedLocked(f *ingest.Folder) bool {
	top := f
	for p := f.Parent(); p != nil; p = p.Parent() {
		top = p
	}
	return slices.Contains(x.roots, top)
}

func (x *Index) addLocked(f *ingest.Folder) {
	for _, rec := range f.Records() {
		x.records[rec.ID] = rec
		x.all.Add(rec.ID)
	}
	for label, ids := range f.DirectLabels() {
		x.tree.Add(label, ids)
	}
}

// rebuildLocked recomputes the live state from every traversed folder.
func (x *Index) rebuildLocked() {
	x.tree = graph.NewLabelTree()
	x.records = map[uint32]*asset.Record{}
	x.all = roaring.New()
	for _, r := range x.roots {
		r.Walk(func(f *ingest.Folder) {
			if f.Traversed() && f.OK() {
				x.addLocked(f)
			}
		})
	}
}

func (x *Index) publishLocked() {
	complete := true
	tags := map[string]*roaring.Bitmap{}
	for _, r := range x.roots {
		r.Walk(func(f *ingest.Folder) {
			if f.State() != ingest.Traversed {
				complete = false
			}
		})
		for tag, ids := range r.TagIndex() {
			if bm, ok := tags[tag]; ok {
				bm.Or(ids)
			} else {
				tags[tag] = ids.Clone()
			}
		}
	}

	x.snap.Store(&Snapshot{
		tree:     x.tree.Snapshot(),
		records:  maps.Clone(x.records),
		all:      x.all.Clone(),
		tags:     tags,
		complete: complete,
	})
	close(x.changed)
	x.changed = make(chan struct{})
}

// Wait blocks until every known folder has finished traversal or ctx is
// done. It does not start anything.
func (x *Index) Wait(ctx context.Context) error {
	for {
		x.mu.Lock()
		changed := x.changed
		x.mu.Unlock()
		if x.Snapshot().Complete() {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Reload forces a new traversal of one folder and its subfolders, then
// rebuilds the index. It blocks until the reload finishes.
func (x *Index) Reload(ctx context.Context, locator string) error {
	f, ok := x.Folder(locator)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFolder, locator)
	}

	x.mu.Lock()
	x.inflight[f] = true
	epoch := x.epoch
	x.mu.Unlock()

	x.log.Info("reloading %s", locator)
	x.run(ctx, epoch, []*ingest.Folder{f})

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.epoch == epoch {
		x.rebuildLocked()
		x.publishLocked()
	}
	return ctx.Err()
}

// Reset replaces the roots and drops everything loaded so far. Loads still
// running for the old roots are ignored when they finish.
func (x *Index) Reset(roots []string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.resetLocked(roots)
}

func (x *Index) resetLocked(roots []string) {
	x.epoch++
	x.roots = make([]*ingest.Folder, 0, len(roots))
	seen := map[string]bool{}
	for _, r := range roots {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		x.roots = append(x.roots, ingest.NewFolder(r))
	}
	x.inflight = map[*ingest.Folder]bool{}
	x.tree = graph.NewLabelTree()
	x.records = map[uint32]*asset.Record{}
	x.all = roaring.New()
	x.publishLocked()
}

// Categories lists ALL and the top-level labels of the latest snapshot.
func (x *Index) Categories() []Category { return x.Snapshot().Categories() }

// SubCategories lists the child labels of label.
func (x *Index) SubCategories(label string) ([]Category, error) {
	return x.Snapshot().SubCategories(label)
}

// Assets lists the records of a category sorted by name; "" is ALL.
func (x *Index) Assets(label string) []*asset.Record { return x.Snapshot().Assets(label) }

// Tags lists the tag vocabulary of a category; "" is ALL.
func (x *Index) Tags(label string) []string { return x.Snapshot().Tags(label) }

// FindAssets loads the whole catalog and returns the records matching
// words. When ctx ends first the partial result is returned with ctx's
// error.
func (x *Index) FindAssets(ctx context.Context, words []string) ([]*asset.Record, error) {
	x.Start(ctx)
	err := x.Wait(ctx)
	return search.Filter(x.Snapshot().Assets(""), words), err
}

var _ search.Corpus = (*Index)(nil)
