package api

import "github.com/agentic-research/simready/internal/asset"

// Entry is one element of a folder listing (asset_info.json). Listings are
// parsed dynamically; Entry documents the shape and is used to write them.
type Entry struct {
	// Type selects the asset kind, e.g. "prop".
	Type string `json:"Asset Type"`
	// Name is the display name.
	Name string `json:"Simple Name,omitempty"`
	// RelativePath locates the asset file below the listing folder.
	RelativePath string `json:"Relative Path"`
	// ThumbnailPath is relative to the directory of the asset file.
	ThumbnailPath string   `json:"Thumbnail Path,omitempty"`
	Tags          []string `json:"Tags,omitempty"`
	Labels        *Labels  `json:"Labels,omitempty"`
	// Extent is the bounding box size; numbers or numeric strings.
	Extent []any `json:"Extent,omitempty"`
	// Behaviors is a list of single-key objects naming a variant set.
	Behaviors []map[string]Behavior `json:"Behaviors,omitempty"`
}

type Labels struct {
	Hierarchy string `json:"Hierarchy,omitempty"`
	QCode     string `json:"QCode,omitempty"`
}

// Behavior declares the values of one variant set.
type Behavior struct {
	PrimPath string   `json:"Prim Path,omitempty"`
	Values   []string `json:"Values"`
}

// Asset is the JSON view of a record returned by the CLI and tool surfaces.
type Asset struct {
	Name      string              `json:"name"`
	Locator   string              `json:"url"`
	Thumbnail string              `json:"thumbnail,omitempty"`
	Type      string              `json:"type"`
	Label     string              `json:"label,omitempty"`
	QCode     string              `json:"qcode,omitempty"`
	Tags      []string            `json:"tags,omitempty"`
	Extent    string              `json:"extent,omitempty"`
	Behaviors map[string][]string `json:"behaviors,omitempty"`
}

func NewAsset(r *asset.Record) Asset {
	a := Asset{
		Name:      r.Name,
		Locator:   r.Locator,
		Thumbnail: r.ThumbnailLocator,
		Type:      r.Type.String(),
		Label:     r.Label,
		QCode:     r.QCode,
		Tags:      r.Tags,
		Extent:    r.ExtentString(),
	}
	if b := r.Behaviors(); len(b) > 0 {
		a.Behaviors = b
	}
	return a
}
