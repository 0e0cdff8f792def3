package catalog

import (
	"testing"

	"github.com/agentic-research/simready/api"
	"github.com/agentic-research/simready/internal/asset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func physicsRecord(t *testing.T, values ...any) *asset.Record {
	t.Helper()
	raw := asset.Raw{
		"Asset Type":    "prop",
		"Simple Name":   "chair",
		"Root Path":     "/lib",
		"Relative Path": "chair.usd",
	}
	if values != nil {
		raw["Behaviors"] = []any{
			map[string]any{"PhysicsVariant": map[string]any{"Prim Path": "/chair", "Values": values}},
		}
	}
	r, err := asset.NewRecord(raw, asset.Prop, "PropAsset")
	require.NoError(t, err)
	return r
}

func TestItem_DefaultPhysics(t *testing.T) {
	it := NewItem(physicsRecord(t, "RigidBody", "Static"), "")
	assert.Equal(t, []string{"None", "RigidBody", "Static"}, it.PhysicsChoices())
	assert.Equal(t, "RigidBody", it.Physics())
	assert.Equal(t, map[string]string{"PhysicsVariant": "RigidBody"}, it.Variants())

	it = NewItem(physicsRecord(t, "Static"), "")
	assert.Equal(t, NoPhysics, it.Physics(), "default not offered")

	it = NewItem(physicsRecord(t, "RigidBody", "Static"), "Static")
	assert.Equal(t, "Static", it.Physics())
}

func TestItem_NoneMapsToEmpty(t *testing.T) {
	it := NewItem(physicsRecord(t, "RigidBody"), "")
	require.NoError(t, it.SetPhysics(NoPhysics))
	assert.Equal(t, map[string]string{"PhysicsVariant": ""}, it.Variants())

	assert.Error(t, it.SetPhysics("Kinematic"))
	assert.Equal(t, NoPhysics, it.Physics())
}

func TestItem_WithoutPhysicsVariant(t *testing.T) {
	it := NewItem(physicsRecord(t), "")
	assert.Nil(t, it.PhysicsChoices())
	assert.Equal(t, NoPhysics, it.Physics())
	assert.Empty(t, it.Variants())
	assert.Error(t, it.SetPhysics(NoPhysics))
}

func TestDragData_RoundTrip(t *testing.T) {
	a := NewItem(physicsRecord(t, "RigidBody"), "")
	b := NewItem(physicsRecord(t, "RigidBody"), "")
	require.NoError(t, b.SetPhysics(NoPhysics))

	data, err := DragData([]*Item{a, b})
	require.NoError(t, err)

	ps, err := api.DecodeAll(data)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "/lib/chair.usd", ps[0].URL)
	assert.Equal(t, a.Variants(), ps[0].Variants)
	assert.Equal(t, b.Variants(), ps[1].Variants)
}
