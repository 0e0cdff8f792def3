package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/simready/internal/asset"
	"github.com/agentic-research/simready/internal/graph"
	"github.com/tidwall/btree"
)

// AllName is the display name of the synthesized category holding every
// record. Its label is empty.
const AllName = "ALL"

// Category is one entry of the category list.
type Category struct {
	Label string
	Name  string
	Count int
}

// Snapshot is an immutable view of the index taken after an update. All
// read operations work on a snapshot and never lock.
type Snapshot struct {
	tree     *graph.LabelTree
	records  map[uint32]*asset.Record
	all      *roaring.Bitmap
	tags     map[string]*roaring.Bitmap
	complete bool
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		tree:    graph.NewLabelTree().Snapshot(),
		records: map[uint32]*asset.Record{},
		all:     roaring.New(),
		tags:    map[string]*roaring.Bitmap{},
	}
}

// Complete reports whether every known folder had finished traversal when
// the snapshot was taken.
func (s *Snapshot) Complete() bool { return s.complete }

// Len is the number of distinct records.
func (s *Snapshot) Len() int { return int(s.all.GetCardinality()) }

// Record looks a record up by ID.
func (s *Snapshot) Record(id uint32) (*asset.Record, bool) {
	r, ok := s.records[id]
	return r, ok
}

// Categories lists ALL first, then the top-level labels by name.
func (s *Snapshot) Categories() []Category {
	roots := s.tree.Roots()
	out := make([]Category, 0, len(roots)+1)
	out = append(out, Category{Name: AllName, Count: s.Len()})
	for _, label := range roots {
		out = append(out, Category{Label: label, Name: label, Count: s.tree.Count(label)})
	}
	return out
}

// SubCategories lists the immediate child labels of label. The children of
// ALL are the top-level labels.
func (s *Snapshot) SubCategories(label string) ([]Category, error) {
	var children []string
	if label == "" {
		children = s.tree.Roots()
	} else {
		var err error
		if children, err = s.tree.Children(label); err != nil {
			return nil, err
		}
	}
	out := make([]Category, 0, len(children))
	for _, c := range children {
		name := c[strings.LastIndex(c, graph.Separator)+1:]
		out = append(out, Category{Label: c, Name: name, Count: s.tree.Count(c)})
	}
	return out, nil
}

func (s *Snapshot) members(label string) *roaring.Bitmap {
	if label == "" {
		return s.all
	}
	bm, err := s.tree.Effective(label)
	if err != nil {
		return roaring.New()
	}
	return bm
}

// Assets returns the records of a category sorted by name, then locator.
// Unknown labels yield nothing.
func (s *Snapshot) Assets(label string) []*asset.Record {
	bm := s.members(label)
	out := make([]*asset.Record, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		if r, ok := s.records[it.Next()]; ok {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b *asset.Record) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Locator, b.Locator))
	})
	return out
}

// Tags is the sorted tag vocabulary of a category.
func (s *Snapshot) Tags(label string) []string {
	bm := s.members(label)
	var set btree.Set[string]
	for tag, ids := range s.tags {
		if tag != "" && ids.Intersects(bm) {
			set.Insert(tag)
		}
	}
	return set.Keys()
}
