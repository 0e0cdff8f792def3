package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/agentic-research/simready/internal/ingest"
	"github.com/agentic-research/simready/internal/source"
)

// Exporter receives listings and their records. *source.SQLiteWriter
// implements it.
type Exporter interface {
	PutListing(locator string, content []byte, modTime time.Time) error
	PutAsset(a source.ExportedAsset) error
}

// Export copies the listing of every successfully traversed folder from src
// into w, together with one row per record. listing maps a folder locator
// to its listing locator. It returns the number of folders exported.
func (x *Index) Export(ctx context.Context, src source.Source, listing func(string) string, w Exporter) (int, error) {
	var folders []*ingest.Folder
	for _, root := range x.Roots() {
		f, ok := x.Folder(root)
		if !ok {
			continue
		}
		f.Walk(func(f *ingest.Folder) {
			if f.Traversed() && f.OK() {
				folders = append(folders, f)
			}
		})
	}

	for _, f := range folders {
		loc := listing(f.Locator)
		info, err := src.Stat(ctx, loc)
		if err != nil {
			return 0, fmt.Errorf("export %s: %w", loc, err)
		}
		content, err := src.Read(ctx, loc)
		if err != nil {
			return 0, fmt.Errorf("export %s: %w", loc, err)
		}
		if err := w.PutListing(loc, content, info.ModTime); err != nil {
			return 0, err
		}
		for _, r := range f.Records() {
			err := w.PutAsset(source.ExportedAsset{
				Locator: r.Locator,
				Folder:  f.Locator,
				Name:    r.Name,
				Label:   r.Label,
				Tags:    r.Tags,
			})
			if err != nil {
				return 0, err
			}
		}
	}
	x.log.Info("exported %d folders", len(folders))
	return len(folders), nil
}
