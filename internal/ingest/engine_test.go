package ingest

import (
	"bytes"
	"context"
	"testing"

	"github.com/agentic-research/simready/internal/asset"
	"github.com/agentic-research/simready/internal/graph"
	"github.com/agentic-research/simready/internal/log"
	"github.com/agentic-research/simready/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const propsListing = `[
  {"Asset Type": "prop", "Simple Name": "chair", "Relative Path": "chair/chair.usd",
   "Thumbnail Path": ".thumbs/chair.png", "Tags": ["furniture", "wood"],
   "Labels": {"Hierarchy": "furniture/seating", "QCode": "Q15026"}},
  {"Asset Type": "prop", "Simple Name": "table", "Relative Path": "table.usd",
   "Tags": ["furniture"], "Labels": {"Hierarchy": "furniture"}},
  {"Asset Type": "prop", "Simple Name": "orphan"},
  {"Asset Type": "vehicle", "Simple Name": "truck", "Relative Path": "truck.usd"}
]`

func newTraverser(t *testing.T, src source.Source, logger *log.Logger) *Traverser {
	t.Helper()
	tr, err := NewTraverser(src, asset.DefaultRegistry(logger), graph.NewInterner(), "")
	require.NoError(t, err)
	tr.Log = logger
	return tr
}

func TestTraverser_BuildsRecords(t *testing.T) {
	ctx := context.Background()
	src := source.NewMemory()
	require.NoError(t, src.WriteFile("/lib/props/asset_info.json", []byte(propsListing)))

	var buf bytes.Buffer
	tr := newTraverser(t, src, log.NewWriter(&buf, log.Debug))

	f := NewFolder("/lib/props")
	children, err := tr.Traverse(ctx, f)
	require.NoError(t, err)
	assert.Empty(t, children)

	assert.Equal(t, Traversed, f.State())
	assert.True(t, f.OK())
	assert.NoError(t, f.Err())

	recs := f.Records()
	require.Len(t, recs, 2, "orphan has no path, vehicle has no kind")
	assert.Equal(t, "chair", recs[0].Name)
	assert.Equal(t, "/lib/props/chair/chair.usd", recs[0].Locator)
	assert.Equal(t, "/lib/props/chair/.thumbs/chair.png", recs[0].ThumbnailLocator)
	assert.Equal(t, "/lib/props/table.usd", recs[1].Locator)
	assert.NotEqual(t, recs[0].ID, recs[1].ID)

	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, asset.ErrInvalidRecord.Error())
	assert.Contains(t, out, asset.ErrNoKind.Error())
}

func TestTraverser_MissingListing(t *testing.T) {
	var buf bytes.Buffer
	tr := newTraverser(t, source.NewMemory(), log.NewWriter(&buf, log.Debug))

	f := NewFolder("/nowhere")
	children, err := tr.Traverse(context.Background(), f)
	require.NoError(t, err)
	assert.Nil(t, children)

	assert.Equal(t, Traversed, f.State())
	assert.False(t, f.OK())
	assert.ErrorIs(t, f.Err(), ErrTraversal)
	assert.ErrorIs(t, f.Err(), source.ErrNotExist)
	assert.Empty(t, f.Records())
	assert.Contains(t, buf.String(), "ERROR")
	assert.Contains(t, buf.String(), "/nowhere/asset_info.json")
}

func TestTraverser_MalformedListing(t *testing.T) {
	src := source.NewMemory()
	require.NoError(t, src.WriteFile("/bad/asset_info.json", []byte(`{"not": "a list"`)))
	require.NoError(t, src.WriteFile("/obj/asset_info.json", []byte(`{"not": "a list"}`)))
	tr := newTraverser(t, src, log.Nop())

	for _, loc := range []string{"/bad", "/obj"} {
		f := NewFolder(loc)
		_, err := tr.Traverse(context.Background(), f)
		require.NoError(t, err)
		assert.True(t, f.Traversed(), loc)
		assert.False(t, f.OK(), loc)
		assert.ErrorIs(t, f.Err(), ErrTraversal, loc)
	}
}

func TestTraverser_CanceledStaysTraversing(t *testing.T) {
	src := source.NewMemory()
	require.NoError(t, src.WriteFile("/lib/asset_info.json", []byte(propsListing)))
	tr := newTraverser(t, src, log.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFolder("/lib")
	_, err := tr.Traverse(ctx, f)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Traversing, f.State())
	assert.Empty(t, f.Records())

	// retriable
	_, err = tr.Traverse(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, Traversed, f.State())
	assert.Len(t, f.Records(), 2)
}

func TestTraverser_Recurse(t *testing.T) {
	ctx := context.Background()
	src := source.NewMemory()
	require.NoError(t, src.WriteFile("/lib/asset_info.json", []byte(`[]`)))
	require.NoError(t, src.WriteFile("/lib/props/asset_info.json", []byte(propsListing)))
	require.NoError(t, src.WriteFile("/lib/empty/readme.txt", []byte(`x`)))

	tr := newTraverser(t, src, log.Nop())

	t.Run("disabled", func(t *testing.T) {
		f := NewFolder("/lib")
		children, err := tr.Traverse(ctx, f)
		require.NoError(t, err)
		assert.Empty(t, children)
		assert.Empty(t, f.Children())
	})

	t.Run("enabled", func(t *testing.T) {
		tr.Recurse = true
		defer func() { tr.Recurse = false }()

		root := NewFolder("/lib")
		children, err := tr.Traverse(ctx, root)
		require.NoError(t, err)
		require.Len(t, children, 2)
		assert.Equal(t, "/lib/empty", children[0].Locator)
		assert.Equal(t, "/lib/props", children[1].Locator)
		assert.Same(t, root, children[1].Parent())

		for _, c := range children {
			_, err := tr.Traverse(ctx, c)
			require.NoError(t, err)
		}
		assert.False(t, children[0].OK())
		assert.Len(t, root.AllRecords(), 2)
		assert.Equal(t, uint64(2), root.TagIndex()["furniture"].GetCardinality())
	})
}

func TestTraverser_ReloadReplacesRecords(t *testing.T) {
	ctx := context.Background()
	src := source.NewMemory()
	require.NoError(t, src.WriteFile("/lib/asset_info.json", []byte(propsListing)))
	ids := graph.NewInterner()
	tr, err := NewTraverser(src, asset.DefaultRegistry(log.Nop()), ids, "")
	require.NoError(t, err)

	f := NewFolder("/lib")
	_, err = tr.Traverse(ctx, f)
	require.NoError(t, err)
	first := f.Records()[0].ID

	require.NoError(t, src.WriteFile("/lib/asset_info.json", []byte(`[
	  {"Asset Type": "prop", "Simple Name": "chair", "Relative Path": "chair/chair.usd"}
	]`)))
	_, err = tr.Traverse(ctx, f)
	require.NoError(t, err)
	require.Len(t, f.Records(), 1)
	assert.Equal(t, first, f.Records()[0].ID, "locator keeps its id")
	assert.Empty(t, f.TagIndex())
}

func TestListingWalker(t *testing.T) {
	t.Run("default selector", func(t *testing.T) {
		w, err := NewListingWalker("")
		require.NoError(t, err)
		entries, skipped, err := w.Entries([]byte(`[{"a": 1}, 2, {"b": "x"}]`))
		require.NoError(t, err)
		assert.Equal(t, 1, skipped)
		require.Len(t, entries, 2)
		assert.Equal(t, "x", entries[1]["b"])
	})

	t.Run("nested selector", func(t *testing.T) {
		w, err := NewListingWalker("$.assets[*]")
		require.NoError(t, err)
		entries, _, err := w.Entries([]byte(`{"assets": [{"a": 1}]}`))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("bad selector", func(t *testing.T) {
		_, err := NewListingWalker("$[")
		assert.Error(t, err)
	})
}
