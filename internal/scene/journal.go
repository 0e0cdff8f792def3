package scene

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Entry is one insertion recorded by a Journal.
type Entry struct {
	Path         string            `json:"path"`
	Locator      string            `json:"url"`
	Parent       string            `json:"parent"`
	Position     [3]float64        `json:"position"`
	Variants     map[string]string `json:"variants,omitempty"`
	Mode         string            `json:"payload,omitempty"`
	Instanceable string            `json:"instanceable,omitempty"`
	Physics      bool              `json:"physics"`
}

// Journal is an Inserter that records insertions instead of editing a
// scene. Prim paths are made unique the way scene editors do, by appending
// _01, _02, ... to a taken name.
type Journal struct {
	mu      sync.Mutex
	out     io.Writer
	taken   map[string]bool
	entries []Entry
}

// NewJournal writes one JSON line per insertion to out when it is not nil.
func NewJournal(out io.Writer) *Journal {
	return &Journal{out: out, taken: map[string]bool{}}
}

func (j *Journal) Insert(ctx context.Context, in Insertion) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if in.Locator == "" {
		return "", errors.New("url not defined")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	p := j.freePath(JoinPath(in.Parent, PrimName(in.Locator)))
	e := Entry{
		Path:         p,
		Locator:      in.Locator,
		Parent:       in.Parent,
		Position:     in.Position,
		Variants:     in.Variants,
		Mode:         in.Mode,
		Instanceable: in.Instanceable,
		Physics:      PhysicsEnabled(in.Variants),
	}
	if j.out != nil {
		b, err := json.Marshal(e)
		if err != nil {
			return "", err
		}
		if _, err := fmt.Fprintf(j.out, "%s\n", b); err != nil {
			return "", err
		}
	}
	j.taken[p] = true
	j.entries = append(j.entries, e)
	return p, nil
}

func (j *Journal) freePath(p string) string {
	if !j.taken[p] {
		return p
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%02d", p, i)
		if !j.taken[candidate] {
			return candidate
		}
	}
}

// Entries returns the insertions recorded so far.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Entry(nil), j.entries...)
}
