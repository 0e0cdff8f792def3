package catalog

import (
	"fmt"
	"slices"

	"github.com/agentic-research/simready/api"
	"github.com/agentic-research/simready/internal/asset"
)

// NoPhysics is the choice that leaves the physics variant at its default.
const NoPhysics = "None"

// DefaultPhysics is the physics choice preselected when the asset offers it.
const DefaultPhysics = "RigidBody"

// Item is a record as presented for selection: it carries the user's
// physics choice, which the record itself does not.
type Item struct {
	Record *asset.Record

	choices []string
	physics string
}

// NewItem wraps r. defaultPhysics is preselected when r offers it;
// otherwise the item starts at NoPhysics. Empty means DefaultPhysics.
func NewItem(r *asset.Record, defaultPhysics string) *Item {
	it := &Item{Record: r, physics: NoPhysics}
	values, ok := r.PhysicsVariant()
	if !ok || len(values) == 0 {
		return it
	}
	it.choices = append([]string{NoPhysics}, values...)
	if defaultPhysics == "" {
		defaultPhysics = DefaultPhysics
	}
	if slices.Contains(it.choices, defaultPhysics) {
		it.physics = defaultPhysics
	}
	return it
}

// PhysicsChoices is NoPhysics followed by the record's physics values, or
// nil when the record has no physics variant.
func (it *Item) PhysicsChoices() []string {
	return slices.Clone(it.choices)
}

func (it *Item) Physics() string {
	return it.physics
}

func (it *Item) SetPhysics(v string) error {
	if !slices.Contains(it.choices, v) {
		return fmt.Errorf("%s: physics %q not in %v", it.Record.Name, v, it.choices)
	}
	it.physics = v
	return nil
}

// Variants is the variant selection to apply on insertion. NoPhysics maps
// to the empty value.
func (it *Item) Variants() map[string]string {
	variants := map[string]string{}
	if it.choices == nil {
		return variants
	}
	if it.physics == NoPhysics {
		variants[asset.PhysicsVariantSet] = ""
	} else {
		variants[asset.PhysicsVariantSet] = it.physics
	}
	return variants
}

func (it *Item) Payload() api.Payload {
	return api.Payload{URL: it.Record.Locator, Variants: it.Variants()}
}

// Items wraps records.
func Items(records []*asset.Record, defaultPhysics string) []*Item {
	out := make([]*Item, 0, len(records))
	for _, r := range records {
		out = append(out, NewItem(r, defaultPhysics))
	}
	return out
}

// DragData encodes the drag payload for items, one line each.
func DragData(items []*Item) (string, error) {
	ps := make([]api.Payload, 0, len(items))
	for _, it := range items {
		ps = append(ps, it.Payload())
	}
	return api.EncodeAll(ps)
}
