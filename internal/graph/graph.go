package graph

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring"
)

var ErrNotFound = errors.New("label not found")

// Separator splits a label path into its segments.
const Separator = "/"

// Interner assigns dense uint32 IDs to asset locators so that label and tag
// membership can be stored as roaring bitmaps. IDs are never reused; a
// locator keeps its ID across folder reloads.
type Interner struct {
	mu       sync.RWMutex
	ids      map[string]uint32
	locators []string
}

func NewInterner() *Interner {
	return &Interner{ids: make(map[string]uint32)}
}

// Intern returns the ID of locator, assigning the next one if needed.
func (in *Interner) Intern(locator string) uint32 {
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.ids[locator]; ok {
		return id
	}
	id := uint32(len(in.locators))
	in.ids[locator] = id
	in.locators = append(in.locators, locator)
	return id
}

// Lookup returns the ID of an already interned locator.
func (in *Interner) Lookup(locator string) (uint32, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	id, ok := in.ids[locator]
	return id, ok
}

// Locator is the reverse of Intern.
func (in *Interner) Locator(id uint32) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.locators) {
		return "", false
	}
	return in.locators[id], true
}

func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.locators)
}

// LabelNode is one label path in the tree. Direct holds the assets that
// carry exactly this label; Children lists the immediate child labels.
type LabelNode struct {
	Label    string
	Direct   *roaring.Bitmap
	Children []string
}

// LabelTree maps label paths to the assets filed under them. Every proper
// prefix of an added label exists as a node, created empty if no asset
// carries it directly.
//
// A tree returned by Snapshot is sealed: its effective sets are precomputed
// and it must not be modified, so it can be shared with readers without
// locking. The live tree is owned by a single writer.
type LabelTree struct {
	nodes     map[string]*LabelNode
	effective map[string]*roaring.Bitmap
}

func NewLabelTree() *LabelTree {
	return &LabelTree{nodes: make(map[string]*LabelNode)}
}

// Add files ids under label and synthesizes the missing ancestors.
// The empty label is unclassified and ignored.
func (t *LabelTree) Add(label string, ids *roaring.Bitmap) {
	if label == "" {
		return
	}
	if t.effective != nil {
		panic("graph: Add on a sealed LabelTree")
	}
	n := t.ensure(label)
	if ids != nil {
		n.Direct.Or(ids)
	}

	child := label
	for {
		parent, ok := Parent(child)
		if !ok {
			return
		}
		p := t.ensure(parent)
		if slices.Contains(p.Children, child) {
			return // ancestors already linked
		}
		p.Children = append(p.Children, child)
		slices.Sort(p.Children)
		child = parent
	}
}

func (t *LabelTree) ensure(label string) *LabelNode {
	n, ok := t.nodes[label]
	if !ok {
		n = &LabelNode{Label: label, Direct: roaring.New()}
		t.nodes[label] = n
	}
	return n
}

// Node returns the node for label.
func (t *LabelTree) Node(label string) (*LabelNode, error) {
	n, ok := t.nodes[label]
	if !ok {
		return nil, ErrNotFound
	}
	return n, nil
}

// Has reports whether label is a node of the tree.
func (t *LabelTree) Has(label string) bool {
	_, ok := t.nodes[label]
	return ok
}

// Len is the number of label nodes, synthesized ones included.
func (t *LabelTree) Len() int {
	return len(t.nodes)
}

// Effective is the union of a label's direct assets and the effective sets
// of all its descendants. The returned bitmap is owned by the caller.
func (t *LabelTree) Effective(label string) (*roaring.Bitmap, error) {
	if t.effective != nil {
		bm, ok := t.effective[label]
		if !ok {
			return nil, ErrNotFound
		}
		return bm.Clone(), nil
	}
	if _, ok := t.nodes[label]; !ok {
		return nil, ErrNotFound
	}
	return t.compute(label, nil), nil
}

// Count is the number of distinct assets in the effective set of label.
func (t *LabelTree) Count(label string) int {
	if t.effective != nil {
		if bm, ok := t.effective[label]; ok {
			return int(bm.GetCardinality())
		}
		return 0
	}
	bm, err := t.Effective(label)
	if err != nil {
		return 0
	}
	return int(bm.GetCardinality())
}

func (t *LabelTree) compute(label string, memo map[string]*roaring.Bitmap) *roaring.Bitmap {
	if memo != nil {
		if bm, ok := memo[label]; ok {
			return bm
		}
	}
	n := t.nodes[label]
	bm := n.Direct.Clone()
	for _, c := range n.Children {
		bm.Or(t.compute(c, memo))
	}
	if memo != nil {
		memo[label] = bm
	}
	return bm
}

// Roots lists the top-level labels (no separator), sorted.
func (t *LabelTree) Roots() []string {
	var roots []string
	for label := range t.nodes {
		if !strings.Contains(label, Separator) {
			roots = append(roots, label)
		}
	}
	slices.Sort(roots)
	return roots
}

// Children lists the immediate child labels of label, sorted.
func (t *LabelTree) Children(label string) ([]string, error) {
	n, ok := t.nodes[label]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]string(nil), n.Children...), nil
}

// Labels lists every node label, sorted.
func (t *LabelTree) Labels() []string {
	out := make([]string, 0, len(t.nodes))
	for label := range t.nodes {
		out = append(out, label)
	}
	slices.Sort(out)
	return out
}

// Snapshot returns a sealed deep copy with effective sets precomputed.
func (t *LabelTree) Snapshot() *LabelTree {
	s := &LabelTree{
		nodes:     make(map[string]*LabelNode, len(t.nodes)),
		effective: make(map[string]*roaring.Bitmap, len(t.nodes)),
	}
	for label, n := range t.nodes {
		s.nodes[label] = &LabelNode{
			Label:    n.Label,
			Direct:   n.Direct.Clone(),
			Children: append([]string(nil), n.Children...),
		}
	}
	for label := range s.nodes {
		s.compute(label, s.effective)
	}
	return s
}

// Parent returns the immediate parent label of label.
func Parent(label string) (string, bool) {
	i := strings.LastIndex(label, Separator)
	if i <= 0 {
		return "", false
	}
	return label[:i], true
}

// Prefixes lists every proper prefix of label, shortest first.
func Prefixes(label string) []string {
	var out []string
	for p, ok := Parent(label); ok; p, ok = Parent(p) {
		out = append(out, p)
	}
	slices.Reverse(out)
	return out
}

// Words splits a label into the search words it implies.
func Words(label string) []string {
	if label == "" {
		return nil
	}
	return strings.Split(label, Separator)
}
