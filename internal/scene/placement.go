package scene

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentic-research/simready/api"
)

// Prim describes an existing scene prim used to place a new asset.
type Prim struct {
	Path          string
	Position      [3]float64
	HasReferences bool
	HasPayloads   bool
}

// ParsePrim reads a prim given as "path@x,y,z", optionally followed by
// ":reference" or ":payload" for how the prim brings in its asset.
func ParsePrim(s string) (Prim, error) {
	path, rest, ok := strings.Cut(s, "@")
	if !ok || !strings.HasPrefix(path, "/") {
		return Prim{}, fmt.Errorf("prim %q: want /path@x,y,z", s)
	}
	p := Prim{Path: path}

	coords, kind, _ := strings.Cut(rest, ":")
	switch kind {
	case "":
	case api.AsReference:
		p.HasReferences = true
	case api.AsPayload:
		p.HasPayloads = true
	default:
		return Prim{}, fmt.Errorf("prim %q: unknown kind %q", s, kind)
	}

	parts := strings.Split(coords, ",")
	if len(parts) != 3 {
		return Prim{}, fmt.Errorf("prim %q: want three coordinates", s)
	}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Prim{}, fmt.Errorf("prim %q: %w", s, err)
		}
		p.Position[i] = v
	}
	return p, nil
}

// AveragePosition is the mean position of prims, or the origin.
func AveragePosition(prims []Prim) [3]float64 {
	var sum [3]float64
	if len(prims) == 0 {
		return sum
	}
	for _, p := range prims {
		for i := range sum {
			sum[i] += p.Position[i]
		}
	}
	n := float64(len(prims))
	return [3]float64{sum[0] / n, sum[1] / n, sum[2] / n}
}

// ParentPath returns the parent of a prim path.
func ParentPath(p string) string {
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return Root
	}
	return p[:i]
}

// CommonParent is the deepest path that is an ancestor of every prim's
// parent.
func CommonParent(prims []Prim) string {
	if len(prims) == 0 {
		return Root
	}
	common := strings.Split(ParentPath(prims[0].Path), "/")
	for _, p := range prims[1:] {
		segs := strings.Split(ParentPath(p.Path), "/")
		n := 0
		for n < len(common) && n < len(segs) && common[n] == segs[n] {
			n++
		}
		common = common[:n]
	}
	joined := strings.Join(common, "/")
	if joined == "" {
		return Root
	}
	return joined
}

// Place positions an insertion among prims: at their average position,
// created the way the first referencing prim was. With replace set the
// asset goes under the prims' common parent, otherwise under parent.
func Place(in Insertion, prims []Prim, parent string, replace bool) Insertion {
	in.Position = AveragePosition(prims)
	for _, p := range prims {
		if p.HasReferences {
			in.Mode = api.AsReference
			break
		}
		if p.HasPayloads {
			in.Mode = api.AsPayload
			break
		}
	}
	switch {
	case replace && len(prims) > 0:
		in.Parent = CommonParent(prims)
	case parent != "":
		in.Parent = parent
	default:
		in.Parent = Root
	}
	return in
}
