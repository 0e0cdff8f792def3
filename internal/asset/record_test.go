package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chairEntry() Raw {
	return Raw{
		"Simple Name":    "Armchair A01",
		"Root Path":      "/lib/furniture",
		"Relative Path":  "armchair/armchair_a01.usd",
		"Thumbnail Path": ".thumbs/armchair_a01.png",
		"Asset Type":     "Prop",
		"Labels": map[string]any{
			"Hierarchy": "furniture/seat/chair/armchair",
			"QCode":     " Q11285759 ",
		},
		"Tags":   []any{" residential", "chair ", "wood"},
		"Extent": []any{20.0, int64(10), 0.25},
		"Behaviors": []any{
			map[string]any{"PhysicsVariant": map[string]any{
				"Prim Path": "/armchair",
				"Values":    []any{"RigidBody "},
			}},
			map[string]any{"Colors": map[string]any{"Values": []any{"Red", "Blue"}}},
			map[string]any{"PhysicsVariant": map[string]any{"Values": []any{"Ignored"}}},
		},
	}
}

func TestNewRecord(t *testing.T) {
	r, err := NewRecord(chairEntry(), Prop, "PropAsset")
	require.NoError(t, err)

	assert.Equal(t, "Armchair A01", r.Name)
	assert.Equal(t, "/lib/furniture/armchair/armchair_a01.usd", r.Locator)
	assert.Equal(t, "/lib/furniture/armchair/.thumbs/armchair_a01.png", r.ThumbnailLocator)
	assert.Equal(t, "furniture/seat/chair/armchair", r.Label)
	assert.Equal(t, []string{"furniture", "seat", "chair", "armchair"}, r.Hierarchy())
	assert.Equal(t, "furniture > seat > chair > armchair", r.HierarchyString())
	assert.Equal(t, "Q11285759", r.QCode)
	assert.Equal(t, []string{"residential", "chair", "wood"}, r.Tags)
	assert.Equal(t, "residential,chair,wood", r.TagsString())
	assert.Equal(t, "20x10x0.25", r.ExtentString())
	assert.Equal(t, Prop, r.Type)
	assert.Equal(t, "PropAsset", r.Class)
	assert.Equal(t, "[SimReady Asset]/lib/furniture/armchair/armchair_a01.usd", r.String())
}

func TestNewRecord_Behaviors(t *testing.T) {
	r, err := NewRecord(chairEntry(), Prop, "PropAsset")
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{
		"PhysicsVariant": {"RigidBody"},
		"Colors":         {"Red", "Blue"},
	}, r.Behaviors())
	assert.Equal(t, []string{"PhysicsVariant", "Colors"}, r.BehaviorNames())

	physics, ok := r.PhysicsVariant()
	require.True(t, ok)
	assert.Equal(t, []string{"RigidBody"}, physics)

	// Returned maps are copies.
	r.Behaviors()["Colors"][0] = "Green"
	assert.Equal(t, "Red", r.Behaviors()["Colors"][0])
}

func TestNewRecord_Unclassified(t *testing.T) {
	raw := Raw{"Root Path": "/lib", "Relative Path": "box.usd"}
	r, err := NewRecord(raw, Prop, "PropAsset")
	require.NoError(t, err)

	assert.Equal(t, "", r.Label)
	assert.Equal(t, []string{""}, r.Hierarchy())
	assert.Empty(t, r.Tags)
	assert.Empty(t, r.ThumbnailLocator)
	_, ok := r.PhysicsVariant()
	assert.False(t, ok)
}

func TestNewRecord_LabelSeparators(t *testing.T) {
	for hierarchy, want := range map[string]string{
		"/furniture/seat":     "furniture/seat",
		"furniture/seat/":     "furniture/seat",
		" furniture // seat ": "furniture/seat",
		"/":                   "",
	} {
		raw := Raw{
			"Root Path":     "/lib",
			"Relative Path": "chair.usd",
			"Labels":        map[string]any{"Hierarchy": hierarchy},
		}
		r, err := NewRecord(raw, Prop, "PropAsset")
		require.NoError(t, err, hierarchy)
		assert.Equal(t, want, r.Label, hierarchy)
	}

	r, err := NewRecord(Raw{
		"Root Path":     "/lib",
		"Relative Path": "chair.usd",
		"Labels":        map[string]any{"Hierarchy": "/furniture/seat"},
	}, Prop, "PropAsset")
	require.NoError(t, err)
	assert.Equal(t, []string{"furniture", "seat"}, r.Hierarchy())
	assert.Equal(t, "furniture > seat", r.HierarchyString())
}

func TestNewRecord_MissingPaths(t *testing.T) {
	_, err := NewRecord(Raw{"Relative Path": "a.usd"}, Prop, "")
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = NewRecord(Raw{"Root Path": "/lib"}, Prop, "")
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestJoinLocator(t *testing.T) {
	cases := []struct {
		root, rel, want string
	}{
		{"/lib", "a.usd", "/lib/a.usd"},
		{"/lib/", "a.usd", "/lib/a.usd"},
		{"/lib", "/a.usd", "/lib/a.usd"},
		{"/lib/", "/a.usd", "/lib/a.usd"},
		{"omniverse://host/lib", "x/y.usd", "omniverse://host/lib/x/y.usd"},
		{"", "a.usd", "a.usd"},
		{"/lib", "", "/lib"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, JoinLocator(c.root, c.rel), "%q + %q", c.root, c.rel)
	}
}

func TestNewRecord_ThumbnailKeepsScheme(t *testing.T) {
	raw := Raw{
		"Root Path":      "omniverse://host/lib",
		"Relative Path":  "crate.usd",
		"Thumbnail Path": "crate.png",
	}
	r, err := NewRecord(raw, Prop, "")
	require.NoError(t, err)
	assert.Equal(t, "omniverse://host/lib/crate.png", r.ThumbnailLocator)
}

func TestParseType(t *testing.T) {
	assert.Equal(t, Prop, ParseType("prop"))
	assert.Equal(t, Vehicle, ParseType(" VEHICLE "))
	assert.Equal(t, Unknown, ParseType("spaceship"))
	assert.Equal(t, Unknown, TypeOf(Raw{}))
	assert.Equal(t, "ROADMARK", Roadmark.String())
}
