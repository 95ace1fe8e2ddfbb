package world_test

import (
	"testing"

	"github.com/plus3/pulse/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorMoveTowards(t *testing.T) {
	tests := []struct {
		name   string
		from   world.Vector3
		to     world.Vector3
		step   float64
		expect world.Vector3
	}{
		{"reaches target", world.Vector3{}, world.Vector3{X: 3}, 5, world.Vector3{X: 3}},
		{"partial step", world.Vector3{}, world.Vector3{X: 10}, 4, world.Vector3{X: 4}},
		{"same point", world.Vector3{Y: 2}, world.Vector3{Y: 2}, 1, world.Vector3{Y: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.from.MoveTowards(tt.to, tt.step)
			assert.InDelta(t, tt.expect.X, got.X, 1e-9)
			assert.InDelta(t, tt.expect.Y, got.Y, 1e-9)
			assert.InDelta(t, tt.expect.Z, got.Z, 1e-9)
		})
	}
}

func TestRawEntityCloneDoesNotShareAttributes(t *testing.T) {
	raw := world.RawEntity{ID: 1, Attributes: world.Attributes{world.AttrHitpoints: 10}}
	clone := raw.Clone()
	clone.Attributes[world.AttrHitpoints] = 1

	assert.Equal(t, 10.0, raw.Attributes.Get(world.AttrHitpoints))
}

func TestInventorySlotTracked(t *testing.T) {
	assert.True(t, world.SlotBackpack.Tracked())
	assert.True(t, world.SlotStash.Tracked())
	assert.True(t, world.SlotEquipped.Tracked())
	assert.False(t, world.SlotMerchant.Tracked())
	assert.False(t, world.SlotNone.Tracked())
}

func TestMemorySnapshotIsCopied(t *testing.T) {
	src := world.NewMemory(7)
	src.Set(world.RawEntity{ID: 1, Attributes: world.Attributes{world.AttrHitpoints: 5}})

	snap, err := src.SnapshotEntities()
	require.NoError(t, err)
	snap[0].Attributes[world.AttrHitpoints] = 0

	assert.Equal(t, 5.0, src.Entities[0].Attributes.Get(world.AttrHitpoints))

	src.FetchErr = world.ErrSnapshotUnavailable
	_, err = src.SnapshotEntities()
	assert.ErrorIs(t, err, world.ErrSnapshotUnavailable)
}

func TestMemoryRecordsCommands(t *testing.T) {
	src := world.NewMemory(1)
	require.NoError(t, src.IssueMove(world.Vector3{X: 1}))
	require.NoError(t, src.IssueInteract(42))

	last, ok := src.LastCommand()
	require.True(t, ok)
	assert.Equal(t, world.CommandInteract, last.Kind)
	assert.Equal(t, world.ActorID(42), last.Target)
	assert.Len(t, src.Commands, 2)
}
