package asset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// ErrInvalidRecord is returned when a listing entry lacks a required field.
// Callers log it and skip the entry.
var ErrInvalidRecord = errors.New("invalid asset record")

// PhysicsVariantSet is the variant set name that toggles physics on an asset.
const PhysicsVariantSet = "PhysicsVariant"

// Raw is one decoded entry of a folder listing.
type Raw = map[string]any

// Keys of a listing entry. Dotted names are nested objects.
var (
	keyName      = jp.C("Simple Name")
	keyRoot      = jp.C("Root Path")
	keyRelative  = jp.C("Relative Path")
	keyThumbnail = jp.C("Thumbnail Path")
	keyHierarchy = jp.C("Labels").C("Hierarchy")
	keyQCode     = jp.C("Labels").C("QCode")
	keyTags      = jp.C("Tags")
	keyExtent    = jp.C("Extent")
	keyBehaviors = jp.C("Behaviors")
	keyType      = jp.C("Asset Type")
)

// RootKey is the entry key the traverser fills with the folder locator.
const RootKey = "Root Path"

// Record is the parsed, immutable metadata of one asset.
//
// ID is the interned identifier of Locator; it is assigned by the traverser
// before the record is published and never changes afterwards.
type Record struct {
	ID               uint32
	Name             string
	Locator          string
	ThumbnailLocator string
	Type             Type
	Class            string
	Tags             []string
	Label            string
	QCode            string
	Extent           []float64

	hierarchy     []string
	behaviors     map[string][]string
	behaviorOrder []string
}

// NewRecord builds the common part of every asset kind from a raw entry.
func NewRecord(raw Raw, t Type, class string) (*Record, error) {
	root := str(raw, keyRoot)
	rel := str(raw, keyRelative)
	if root == "" {
		return nil, fmt.Errorf("%w: missing %q", ErrInvalidRecord, "Root Path")
	}
	if rel == "" {
		return nil, fmt.Errorf("%w: missing %q", ErrInvalidRecord, "Relative Path")
	}

	locator := JoinLocator(root, rel)
	r := &Record{
		Name:      str(raw, keyName),
		Locator:   locator,
		Type:      t,
		Class:     class,
		QCode:     strings.TrimSpace(str(raw, keyQCode)),
		behaviors: map[string][]string{},
	}

	if thumb := str(raw, keyThumbnail); thumb != "" {
		r.ThumbnailLocator = JoinLocator(dirLocator(locator), thumb)
	}

	r.hierarchy = labelSegments(str(raw, keyHierarchy))
	r.Label = strings.Join(r.hierarchy, "/")

	if tags, ok := keyTags.First(raw).([]any); ok {
		r.Tags = make([]string, 0, len(tags))
		for _, t := range tags {
			if s, ok := t.(string); ok {
				r.Tags = append(r.Tags, strings.TrimSpace(s))
			}
		}
	}

	if extent, ok := keyExtent.First(raw).([]any); ok {
		for _, v := range extent {
			if f, ok := number(v); ok {
				r.Extent = append(r.Extent, f)
			}
		}
	}

	if behaviors, ok := keyBehaviors.First(raw).([]any); ok {
		for _, b := range behaviors {
			obj, ok := b.(map[string]any)
			if !ok {
				continue
			}
			for set, data := range obj {
				if _, seen := r.behaviors[set]; seen {
					continue
				}
				r.behaviors[set] = behaviorValues(data)
				r.behaviorOrder = append(r.behaviorOrder, set)
			}
		}
	}

	return r, nil
}

// labelSegments splits a hierarchy on "/", dropping blank segments so that
// leading, trailing or doubled separators do not produce unreachable labels.
func labelSegments(hierarchy string) []string {
	var segs []string
	for _, seg := range strings.Split(hierarchy, "/") {
		if seg = strings.TrimSpace(seg); seg != "" {
			segs = append(segs, seg)
		}
	}
	if len(segs) == 0 {
		return []string{""}
	}
	return segs
}

func behaviorValues(data any) []string {
	obj, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	list, ok := obj["Values"].([]any)
	if !ok {
		return nil
	}
	values := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			values = append(values, strings.TrimSpace(s))
		}
	}
	return values
}

// Hierarchy returns the label path split on "/". An unclassified asset
// yields a single empty segment.
func (r *Record) Hierarchy() []string {
	return append([]string(nil), r.hierarchy...)
}

// HierarchyString formats the hierarchy for display, e.g. "furniture > seat > chair".
func (r *Record) HierarchyString() string {
	return strings.Join(r.hierarchy, " > ")
}

// TagsString is the comma delimited tag list.
func (r *Record) TagsString() string {
	return strings.Join(r.Tags, ",")
}

// ExtentString formats the bounding extent, e.g. "20x10.5x0.25".
func (r *Record) ExtentString() string {
	parts := make([]string, len(r.Extent))
	for i, f := range r.Extent {
		parts[i] = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.Join(parts, "x")
}

// Behaviors maps each declared variant set to its selectable values.
func (r *Record) Behaviors() map[string][]string {
	out := make(map[string][]string, len(r.behaviors))
	for k, v := range r.behaviors {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// BehaviorNames lists variant sets in declaration order.
func (r *Record) BehaviorNames() []string {
	return append([]string(nil), r.behaviorOrder...)
}

// PhysicsVariant returns the values of the physics variant set, if declared.
func (r *Record) PhysicsVariant() ([]string, bool) {
	v, ok := r.behaviors[PhysicsVariantSet]
	if !ok {
		return nil, false
	}
	return append([]string(nil), v...), true
}

func (r *Record) String() string {
	return "[SimReady Asset]" + r.Locator
}

// JoinLocator concatenates a root and a relative locator with exactly one
// "/" at the join point.
func JoinLocator(root, rel string) string {
	switch {
	case root == "":
		return rel
	case rel == "":
		return root
	}
	rootSlash := strings.HasSuffix(root, "/")
	relSlash := strings.HasPrefix(rel, "/")
	switch {
	case rootSlash && relSlash:
		return root + rel[1:]
	case rootSlash || relSlash:
		return root + rel
	default:
		return root + "/" + rel
	}
}

// dirLocator strips the last segment of a locator. Unlike path.Dir it keeps
// scheme separators such as "omniverse://" intact.
func dirLocator(locator string) string {
	i := strings.LastIndex(locator, "/")
	if i < 0 {
		return ""
	}
	return locator[:i]
}

func str(raw Raw, x jp.Expr) string {
	s, _ := x.First(raw).(string)
	return s
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
