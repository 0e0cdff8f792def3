package catalog

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agentic-research/simready/internal/asset"
	"github.com/agentic-research/simready/internal/graph"
	"github.com/agentic-research/simready/internal/ingest"
	"github.com/agentic-research/simready/internal/log"
	"github.com/agentic-research/simready/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixture = map[string]string{
	"/lib/asset_info.json": `[
	  {"Asset Type": "prop", "Simple Name": "crate", "Relative Path": "crate.usd",
	   "Tags": ["prop", "wood"], "Labels": {"Hierarchy": "container"}},
	  {"Asset Type": "prop", "Simple Name": "barrel", "Relative Path": "barrel.usd",
	   "Tags": ["prop", "metal"], "Labels": {"Hierarchy": "container/drum"}}
	]`,
	"/lib/furniture/asset_info.json": `[
	  {"Asset Type": "prop", "Simple Name": "chair", "Relative Path": "chair.usd",
	   "Tags": ["prop", "wood"], "Labels": {"Hierarchy": "furniture/seat"},
	   "Behaviors": [{"PhysicsVariant": {"Prim Path": "/chair", "Values": ["RigidBody", "Static"]}}]}
	]`,
	"/lib/vehicles/asset_info.json": `[
	  {"Asset Type": "vehicle", "Simple Name": "hauler", "Relative Path": "hauler.usd",
	   "Tags": ["vehicle", "truck"], "Labels": {"Hierarchy": "vehicle/truck"}},
	  {"Asset Type": "vehicle", "Simple Name": "scooter", "Relative Path": "scooter.usd",
	   "Tags": ["vehicle", "motor"], "Labels": {"Hierarchy": "vehicle"}}
	]`,
	"/extra/asset_info.json": `[
	  {"Asset Type": "generic", "Simple Name": "tool1", "Relative Path": "tool1.usd",
	   "Tags": ["multi-tool"]}
	]`,
}

func registry() *asset.Registry {
	reg := asset.DefaultRegistry(log.Nop())
	reg.Register(asset.Kind{Type: asset.Vehicle, Class: "VehicleAsset", Match: asset.IsType(asset.Vehicle)})
	reg.Register(asset.Kind{Type: asset.Generic, Class: "GenericAsset", Match: asset.IsType(asset.Generic)})
	return reg
}

func newFixture(t *testing.T) *source.Billy {
	t.Helper()
	src := source.NewMemory()
	for loc, content := range fixture {
		require.NoError(t, src.WriteFile(loc, []byte(content)))
	}
	return src
}

func newIndex(t *testing.T, src source.Source, roots ...string) *Index {
	t.Helper()
	tr, err := ingest.NewTraverser(src, registry(), graph.NewInterner(), "")
	require.NoError(t, err)
	tr.Recurse = true
	tr.Log = log.Nop()
	return New(tr, roots, Options{Concurrency: 2, Log: log.Nop()})
}

func loadAll(t *testing.T, x *Index) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	x.Start(ctx)
	require.NoError(t, x.Wait(ctx))
}

func names(rs []*asset.Record) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Name)
	}
	return out
}

func TestIndex_Categories(t *testing.T) {
	x := newIndex(t, newFixture(t), "/lib", "/extra", "/missing")
	loadAll(t, x)

	assert.Equal(t, []Category{
		{Label: "", Name: "ALL", Count: 6},
		{Label: "container", Name: "container", Count: 2},
		{Label: "furniture", Name: "furniture", Count: 1},
		{Label: "vehicle", Name: "vehicle", Count: 2},
	}, x.Categories())

	sub, err := x.SubCategories("container")
	require.NoError(t, err)
	assert.Equal(t, []Category{{Label: "container/drum", Name: "drum", Count: 1}}, sub)

	sub, err = x.SubCategories("")
	require.NoError(t, err)
	assert.Len(t, sub, 3)

	_, err = x.SubCategories("nope")
	assert.ErrorIs(t, err, graph.ErrNotFound)

	missing, ok := x.Folder("/missing")
	require.True(t, ok)
	assert.True(t, missing.Traversed())
	assert.False(t, missing.OK())
}

func TestIndex_AssetsAndTags(t *testing.T) {
	x := newIndex(t, newFixture(t), "/lib", "/extra")
	loadAll(t, x)

	assert.Equal(t, []string{"barrel", "chair", "crate", "hauler", "scooter", "tool1"}, names(x.Assets("")))
	assert.Equal(t, []string{"hauler", "scooter"}, names(x.Assets("vehicle")))
	assert.Equal(t, []string{"hauler"}, names(x.Assets("vehicle/truck")))
	assert.Empty(t, x.Assets("nope"))

	assert.Equal(t, []string{"motor", "truck", "vehicle"}, x.Tags("vehicle"))
	assert.Equal(t, []string{"metal", "motor", "multi-tool", "prop", "truck", "vehicle", "wood"}, x.Tags(""))
}

func TestIndex_FindAssets(t *testing.T) {
	x := newIndex(t, newFixture(t), "/lib", "/extra")
	ctx := context.Background()

	got, err := x.FindAssets(ctx, []string{"truck"})
	require.NoError(t, err)
	assert.Equal(t, []string{"hauler"}, names(got))

	got, err = x.FindAssets(ctx, []string{"equipment", "vehicle"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = x.FindAssets(ctx, []string{"TOOL"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tool1"}, names(got))
}

func TestIndex_AllCountsUnion(t *testing.T) {
	src := newFixture(t)
	require.NoError(t, src.WriteFile("/dup/asset_info.json", []byte(`[
	  {"Asset Type": "prop", "Simple Name": "twin", "Relative Path": "twin.usd"},
	  {"Asset Type": "prop", "Simple Name": "twin", "Relative Path": "twin.usd"}
	]`)))
	x := newIndex(t, src, "/lib", "/dup")
	loadAll(t, x)

	assert.Equal(t, 6, x.Categories()[0].Count, "5 in lib + 1 twin")
}

func TestIndex_Reload(t *testing.T) {
	src := newFixture(t)
	x := newIndex(t, src, "/lib", "/extra")
	loadAll(t, x)

	require.NoError(t, src.WriteFile("/lib/vehicles/asset_info.json", []byte(`[
	  {"Asset Type": "vehicle", "Simple Name": "hauler", "Relative Path": "hauler.usd",
	   "Tags": ["vehicle", "truck"], "Labels": {"Hierarchy": "vehicle/truck"}}
	]`)))
	require.NoError(t, x.Reload(context.Background(), "/lib/vehicles"))

	assert.Equal(t, 5, x.Categories()[0].Count)
	assert.Equal(t, []string{"hauler"}, names(x.Assets("vehicle")))
	assert.NotContains(t, x.Tags(""), "motor")

	err := x.Reload(context.Background(), "/elsewhere")
	assert.ErrorIs(t, err, ErrUnknownFolder)
}

func TestIndex_Reset(t *testing.T) {
	x := newIndex(t, newFixture(t), "/lib")
	loadAll(t, x)
	require.Equal(t, 5, x.Snapshot().Len())

	x.Reset([]string{"/extra", "/extra"})
	assert.Equal(t, []string{"/extra"}, x.Roots())
	assert.Equal(t, 0, x.Snapshot().Len())
	assert.False(t, x.Snapshot().Complete())

	loadAll(t, x)
	assert.Equal(t, []string{"tool1"}, names(x.Assets("")))
}

func TestIndex_NoRootsIsComplete(t *testing.T) {
	x := newIndex(t, newFixture(t))
	loadAll(t, x)
	assert.Equal(t, []Category{{Name: "ALL"}}, x.Categories())
}

// stallOnce blocks the first Read until its context ends.
type stallOnce struct {
	source.Source
	stalled atomic.Bool
	entered chan struct{}
}

func (s *stallOnce) Read(ctx context.Context, locator string) ([]byte, error) {
	if s.stalled.CompareAndSwap(false, true) {
		close(s.entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.Source.Read(ctx, locator)
}

func TestIndex_CancelLeavesFolderRetriable(t *testing.T) {
	src := &stallOnce{Source: newFixture(t), entered: make(chan struct{})}
	x := newIndex(t, src, "/extra")

	ctx, cancel := context.WithCancel(context.Background())
	x.Start(ctx)
	<-src.entered

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer waitCancel()
	assert.ErrorIs(t, x.Wait(waitCtx), context.DeadlineExceeded)

	cancel()
	f, ok := x.Folder("/extra")
	require.True(t, ok)
	assert.Equal(t, ingest.Traversing, f.State())

	require.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		x.Start(context.Background())
		return x.Wait(ctx) == nil
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, ingest.Traversed, f.State())
	assert.Equal(t, []string{"tool1"}, names(x.Assets("")))
}

// holdRead serves the first read of one locator from the content it had at
// the time of the call, but only after release is closed.
type holdRead struct {
	source.Source
	locator string
	held    atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (s *holdRead) Read(ctx context.Context, locator string) ([]byte, error) {
	if locator != s.locator || !s.held.CompareAndSwap(false, true) {
		return s.Source.Read(ctx, locator)
	}
	data, err := s.Source.Read(ctx, locator)
	close(s.entered)
	<-s.release
	return data, err
}

func TestIndex_ReloadDuringLoadDropsDetachedFolder(t *testing.T) {
	mem := newFixture(t)
	src := &holdRead{
		Source:  mem,
		locator: "/lib/vehicles/asset_info.json",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	x := newIndex(t, src, "/lib")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	x.Start(ctx)
	<-src.entered

	old, ok := x.Folder("/lib/vehicles")
	require.True(t, ok)

	require.NoError(t, mem.WriteFile("/lib/vehicles/asset_info.json", []byte(`[
	  {"Asset Type": "vehicle", "Simple Name": "hauler", "Relative Path": "hauler.usd",
	   "Tags": ["vehicle", "truck"], "Labels": {"Hierarchy": "vehicle/truck"}}
	]`)))
	require.NoError(t, x.Reload(ctx, "/lib"))
	require.Equal(t, []string{"hauler"}, names(x.Assets("vehicle")))

	current, ok := x.Folder("/lib/vehicles")
	require.True(t, ok)
	require.NotSame(t, old, current)
	assert.Nil(t, old.Parent())

	close(src.release)
	require.Eventually(t, func() bool { return old.Traversed() }, 5*time.Second, 5*time.Millisecond)

	assert.Never(t, func() bool {
		return len(x.Assets("vehicle")) != 1 || x.Snapshot().Len() != 4
	}, 200*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, []string{"hauler"}, names(x.Assets("vehicle")))
	assert.NotContains(t, x.Tags(""), "motor")
	require.NoError(t, x.Wait(ctx))
}

func TestIndex_ConcurrentReaders(t *testing.T) {
	x := newIndex(t, newFixture(t), "/lib", "/extra")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	x.Start(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ctx.Err() == nil && !x.Snapshot().Complete() {
			s := x.Snapshot()
			cats := s.Categories()
			assert.LessOrEqual(t, len(s.Assets("")), cats[0].Count)
		}
	}()
	require.NoError(t, x.Wait(ctx))
	<-done
	assert.Equal(t, 6, x.Snapshot().Len())
}
