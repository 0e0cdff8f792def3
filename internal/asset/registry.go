package asset

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/agentic-research/simready/internal/log"
)

var (
	// ErrRegistrationConflict describes a replaced registration. It is only
	// logged: the later registration wins.
	ErrRegistrationConflict = errors.New("asset type already registered")

	// ErrNoKind is returned by Create when no registered kind accepts an entry.
	ErrNoKind = errors.New("no asset kind matches entry")
)

// Kind describes how to recognise and build one asset type.
type Kind struct {
	Type  Type
	Class string
	Match func(Raw) bool
	// New builds the record. When nil, NewRecord is used with Type and Class.
	New func(Raw) (*Record, error)
}

func (k Kind) build(raw Raw) (*Record, error) {
	if k.New != nil {
		return k.New(raw)
	}
	return NewRecord(raw, k.Type, k.Class)
}

// PropKind builds static, non-deforming props: chairs, tools, containers.
var PropKind = Kind{
	Type:  Prop,
	Class: "PropAsset",
	Match: IsType(Prop),
}

// Registry is an ordered list of kinds, one per Type. Create tries kinds in
// registration order; re-registering a Type replaces the kind in place.
type Registry struct {
	mu    sync.RWMutex
	kinds []Kind
	log   *log.Logger
}

func NewRegistry(l *log.Logger) *Registry {
	return &Registry{log: l}
}

// DefaultRegistry holds the built-in kinds.
func DefaultRegistry(l *log.Logger) *Registry {
	r := NewRegistry(l)
	r.Register(PropKind)
	return r
}

// Register adds k and reports whether it replaced an earlier kind of the same Type.
func (r *Registry) Register(k Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.kinds {
		if existing.Type == k.Type {
			r.log.Warn("%v", fmt.Errorf("%w: %s (%s); replaced by %s",
				ErrRegistrationConflict, k.Type, existing.Class, k.Class))
			r.kinds[i] = k
			return true
		}
	}
	r.kinds = append(r.kinds, k)
	return false
}

// Lookup returns the kind registered for t.
func (r *Registry) Lookup(t Type) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, k := range r.kinds {
		if k.Type == t {
			return k, true
		}
	}
	return Kind{}, false
}

// Len is the number of registered kinds.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.kinds)
}

// Types lists registered types in registration order.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Type, len(r.kinds))
	for i, k := range r.kinds {
		out[i] = k.Type
	}
	return out
}

// Create builds a record with the first kind whose Match accepts raw.
func (r *Registry) Create(raw Raw) (*Record, error) {
	r.mu.RLock()
	kinds := slices.Clone(r.kinds)
	r.mu.RUnlock()

	for _, k := range kinds {
		if k.Match != nil && k.Match(raw) {
			return k.build(raw)
		}
	}
	return nil, fmt.Errorf("%w (type %s)", ErrNoKind, TypeOf(raw))
}
