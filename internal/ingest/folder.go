package ingest

import (
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/simready/internal/asset"
	"github.com/agentic-research/simready/internal/graph"
)

// State is the traversal state of a folder.
type State int

const (
	Unvisited State = iota
	Traversing
	Traversed
)

func (s State) String() string {
	switch s {
	case Unvisited:
		return "unvisited"
	case Traversing:
		return "traversing"
	case Traversed:
		return "traversed"
	default:
		return "unknown"
	}
}

// Folder mirrors one storage folder. It owns the records read from its own
// listing and the child folders discovered below it.
//
// TagIndex and LabelIndex cover the folder and all descendants. They are
// computed on first use and dropped whenever records are appended here or
// in any descendant.
type Folder struct {
	Locator string

	mu         sync.Mutex
	parent     *Folder
	state      State
	ok         bool
	err        error
	generation uint64
	records    []*asset.Record
	children   []*Folder

	tagIndex   map[string]*roaring.Bitmap
	labelIndex map[string]*roaring.Bitmap
}

func NewFolder(locator string) *Folder {
	return &Folder{Locator: locator}
}

func (f *Folder) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Traversed reports whether the last traversal completed, successfully or not.
func (f *Folder) Traversed() bool {
	return f.State() == Traversed
}

// OK reports whether the last completed traversal read a listing.
func (f *Folder) OK() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ok
}

// Err is the failure of the last completed traversal, if any.
func (f *Folder) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Folder) Parent() *Folder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.parent
}

// Records returns the folder's own records.
func (f *Folder) Records() []*asset.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.records)
}

// Children returns the child folders.
func (f *Folder) Children() []*Folder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.children)
}

// Walk visits f and every descendant, parents first.
func (f *Folder) Walk(fn func(*Folder)) {
	fn(f)
	for _, c := range f.Children() {
		c.Walk(fn)
	}
}

// AllRecords returns the records of f and every descendant.
func (f *Folder) AllRecords() []*asset.Record {
	var out []*asset.Record
	f.Walk(func(d *Folder) { out = append(out, d.Records()...) })
	return out
}

// Append adds records and invalidates the aggregates of f and its ancestors.
func (f *Folder) Append(records ...*asset.Record) {
	if len(records) == 0 {
		return
	}
	f.mu.Lock()
	f.records = append(f.records, records...)
	f.tagIndex, f.labelIndex = nil, nil
	parent := f.parent
	f.mu.Unlock()

	parent.invalidate()
}

// AddChild links a child folder and invalidates aggregates up the chain.
func (f *Folder) AddChild(child *Folder) {
	child.mu.Lock()
	child.parent = f
	child.mu.Unlock()

	f.mu.Lock()
	f.children = append(f.children, child)
	f.tagIndex, f.labelIndex = nil, nil
	parent := f.parent
	f.mu.Unlock()

	parent.invalidate()
}

func (f *Folder) invalidate() {
	for p := f; p != nil; {
		p.mu.Lock()
		p.tagIndex, p.labelIndex = nil, nil
		next := p.parent
		p.mu.Unlock()
		p = next
	}
}

// begin moves the folder to Traversing, dropping everything a previous
// traversal produced. It returns the generation that owns the new attempt.
func (f *Folder) begin() uint64 {
	f.mu.Lock()
	f.state = Traversing
	f.ok = false
	f.err = nil
	f.generation++
	gen := f.generation
	f.records = nil
	for _, c := range f.children {
		c.mu.Lock()
		c.parent = nil
		c.mu.Unlock()
	}
	f.children = nil
	f.tagIndex, f.labelIndex = nil, nil
	parent := f.parent
	f.mu.Unlock()

	parent.invalidate()
	return gen
}

// current reports whether gen is still the latest attempt.
func (f *Folder) current(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generation == gen
}

// finish marks attempt gen as Traversed. Results of superseded attempts are
// dropped and finish reports false.
func (f *Folder) finish(gen uint64, ok bool, err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generation != gen {
		return false
	}
	f.state = Traversed
	f.ok = ok
	f.err = err
	return true
}

// TagIndex maps each tag to the IDs of the records carrying it, over f and
// its descendants. The result is shared; callers must not modify it.
func (f *Folder) TagIndex() map[string]*roaring.Bitmap {
	f.mu.Lock()
	if f.tagIndex != nil {
		defer f.mu.Unlock()
		return f.tagIndex
	}
	records := f.records
	children := f.children
	f.mu.Unlock()

	idx := make(map[string]*roaring.Bitmap)
	for _, r := range records {
		for _, tag := range r.Tags {
			bitmapFor(idx, tag).Add(r.ID)
		}
	}
	for _, c := range children {
		for tag, bm := range c.TagIndex() {
			bitmapFor(idx, tag).Or(bm)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tagIndex == nil && sameSlice(records, f.records) && sameSlice(children, f.children) {
		f.tagIndex = idx
	}
	return idx
}

// LabelIndex maps each label path to the IDs filed under it or under any
// longer label extending it, over f and its descendants. Unclassified
// records are excluded. The result is shared; callers must not modify it.
func (f *Folder) LabelIndex() map[string]*roaring.Bitmap {
	f.mu.Lock()
	if f.labelIndex != nil {
		defer f.mu.Unlock()
		return f.labelIndex
	}
	records := f.records
	children := f.children
	f.mu.Unlock()

	idx := make(map[string]*roaring.Bitmap)
	for _, r := range records {
		if r.Label == "" {
			continue
		}
		bitmapFor(idx, r.Label).Add(r.ID)
		for _, p := range graph.Prefixes(r.Label) {
			bitmapFor(idx, p).Add(r.ID)
		}
	}
	for _, c := range children {
		for label, bm := range c.LabelIndex() {
			bitmapFor(idx, label).Or(bm)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.labelIndex == nil && sameSlice(records, f.records) && sameSlice(children, f.children) {
		f.labelIndex = idx
	}
	return idx
}

// DirectLabels groups only this folder's own records by their exact label.
// The index folds these groups into its label tree; using the recursive
// LabelIndex there would count nested folders twice.
func (f *Folder) DirectLabels() map[string]*roaring.Bitmap {
	f.mu.Lock()
	records := f.records
	f.mu.Unlock()

	idx := make(map[string]*roaring.Bitmap)
	for _, r := range records {
		if r.Label != "" {
			bitmapFor(idx, r.Label).Add(r.ID)
		}
	}
	return idx
}

func bitmapFor(idx map[string]*roaring.Bitmap, key string) *roaring.Bitmap {
	bm, ok := idx[key]
	if !ok {
		bm = roaring.New()
		idx[key] = bm
	}
	return bm
}

// sameSlice reports whether two slices share the same backing array and
// length, i.e. nothing was appended or reset in between.
func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
