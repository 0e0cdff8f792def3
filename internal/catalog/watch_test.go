package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentic-research/simready/internal/graph"
	"github.com/agentic-research/simready/internal/ingest"
	"github.com/agentic-research/simready/internal/log"
	"github.com/agentic-research/simready/internal/source"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsChangedListing(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "extra")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	listing := filepath.Join(dir, ingest.DefaultListingFile)
	require.NoError(t, os.WriteFile(listing, []byte(fixture["/extra/asset_info.json"]), 0o644))

	tr, err := ingest.NewTraverser(source.NewLocal(base), registry(), graph.NewInterner(), "")
	require.NoError(t, err)
	x := New(tr, []string{"/extra"}, Options{Log: log.Nop()})
	loadAll(t, x)
	require.Equal(t, 1, x.Snapshot().Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &Watcher{Index: x, Base: base, Debounce: 20 * time.Millisecond, Log: log.Nop()}
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		// rewrite until the watcher has registered the directory
		_ = os.WriteFile(listing, []byte(`[
		  {"Asset Type": "generic", "Simple Name": "tool1", "Relative Path": "tool1.usd"},
		  {"Asset Type": "generic", "Simple Name": "tool2", "Relative Path": "tool2.usd"}
		]`), 0o644)
		return x.Snapshot().Len() == 2
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
