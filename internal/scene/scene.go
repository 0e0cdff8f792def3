// Package scene hands decoded drag payloads to a scene inserter. The
// inserter owns the scene; this package only decides what to insert,
// where, and with which variants.
package scene

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/agentic-research/simready/api"
	"github.com/agentic-research/simready/internal/asset"
	"github.com/agentic-research/simready/internal/log"
)

// Root is the scene root path, used when no parent is given.
const Root = "/"

// Insertion is one request to add an asset to a scene.
type Insertion struct {
	Locator  string
	Parent   string
	Position [3]float64
	Variants map[string]string
	// Mode is api.AsPayload, api.AsReference or empty for the scene default.
	Mode string
	// Instanceable is api.Instanceable, api.NonInstanceable or empty.
	Instanceable string
}

// Inserter adds assets to a scene and returns the path of the new prim.
type Inserter interface {
	Insert(ctx context.Context, in Insertion) (string, error)
}

// AddFromDrag decodes newline-separated drag payloads and inserts each one
// under parent. Lines that fail to decode or insert are logged and skipped.
// It returns the paths inserted and the joined per-line errors.
func AddFromDrag(ctx context.Context, ins Inserter, data, parent string, l *log.Logger) ([]string, error) {
	return addAll(ctx, ins, data, l, func(p api.Payload) Insertion {
		return FromPayload(p, parent)
	})
}

// AddNearPrims is AddFromDrag for assets dropped onto selected prims: each
// insertion is positioned by Place. With replace set the assets go under
// the prims' common parent instead of parent.
func AddNearPrims(ctx context.Context, ins Inserter, data string, prims []Prim, parent string, replace bool, l *log.Logger) ([]string, error) {
	return addAll(ctx, ins, data, l, func(p api.Payload) Insertion {
		return Place(FromPayload(p, parent), prims, parent, replace)
	})
}

func addAll(ctx context.Context, ins Inserter, data string, l *log.Logger, build func(api.Payload) Insertion) ([]string, error) {
	l = l.Named("drop")
	payloads, decodeErr := api.DecodeAll(data)
	if decodeErr != nil {
		l.Error("%v", decodeErr)
	}

	var (
		paths []string
		errs  = []error{decodeErr}
	)
	for _, p := range payloads {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		added, err := ins.Insert(ctx, build(p))
		if err != nil {
			l.Error("add %s: %v", p.URL, err)
			errs = append(errs, fmt.Errorf("add %s: %w", p.URL, err))
			continue
		}
		l.Info("added %s at %s", p.URL, added)
		paths = append(paths, added)
	}
	return paths, errors.Join(errs...)
}

// FromPayload builds the insertion a payload describes.
func FromPayload(p api.Payload, parent string) Insertion {
	if parent == "" {
		parent = Root
	}
	return Insertion{
		Locator:      p.URL,
		Parent:       parent,
		Variants:     p.Variants,
		Mode:         p.Payload,
		Instanceable: p.Instanceable,
	}
}

// PhysicsEnabled reports whether variants select a physics variant.
func PhysicsEnabled(variants map[string]string) bool {
	return variants[asset.PhysicsVariantSet] != ""
}

// PrimName derives a valid prim identifier from an asset locator: the file
// name without extension, with invalid characters replaced by '_'.
func PrimName(locator string) string {
	base := path.Base(strings.ReplaceAll(locator, "\\", "/"))
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "" || base == "." || base == "/" {
		return "_"
	}
	var b strings.Builder
	for i, r := range base {
		switch {
		case r == '_' || r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) && i > 0):
			b.WriteRune(r)
		case i == 0 && unicode.IsDigit(r):
			b.WriteByte('_')
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// JoinPath appends name to a prim path.
func JoinPath(parent, name string) string {
	if parent == "" || parent == Root {
		return Root + name
	}
	return strings.TrimRight(parent, "/") + "/" + name
}
