package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agentic-research/simready/internal/log"
	"github.com/agentic-research/simready/internal/search"
	"github.com/agentic-research/simready/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
	assert.Equal(t, "RigidBody", s.DefaultPhysics)
	assert.Equal(t, "asset_info.json", s.ListingFile)

	s, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simready.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
roots: [/lib/a, /lib/b]
default_physics: Static
subset_policy: strict
log:
  level: debug
source:
  kind: s3
  s3:
    endpoint: localhost:9000
    bucket: assets
`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/lib/a", "/lib/b"}, s.Roots)
	assert.Equal(t, "Static", s.DefaultPhysics)
	assert.True(t, s.Recurse, "default kept")
	assert.Equal(t, 8, s.Concurrency)
	assert.Equal(t, source.KindS3, s.Source.Kind)
	assert.Equal(t, "assets", s.Source.S3.Bucket)

	p, err := s.Policy()
	require.NoError(t, err)
	assert.Equal(t, search.Strict, p)
	assert.Equal(t, log.Debug, s.LogOptions("x").Level)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"syntax.yaml": "roots: [unclosed",
		"policy.yaml": "subset_policy: sometimes",
		"level.yaml":  "log: {level: loud}",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := Load(path)
		assert.Error(t, err, name)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "simready.yaml")
	s := DefaultSettings()
	s.Roots = []string{"/lib"}
	s.Source.Cache = true
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}
