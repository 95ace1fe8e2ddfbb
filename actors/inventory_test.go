package actors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/pulse/actors"
	"github.com/plus3/pulse/world"
)

func item(id world.ActorID, ann world.AnnID, slot world.InventorySlot, col, row int) world.RawEntity {
	r := raw(id, world.TypeItem)
	r.AnnID = ann
	r.Placement = world.ItemPlacement{Slot: slot, Column: col, Row: row}
	r.Attributes = world.Attributes{world.AttrStackQuantity: 1}
	return r
}

func TestInventoryTracksContainers(t *testing.T) {
	src := newTestSource()
	ground := item(5, 50, world.SlotNone, 0, 0)
	noAnn := item(6, world.NoAnnID, world.SlotBackpack, 1, 0)
	disposed := item(7, 70, world.SlotBackpack, 2, 0)
	disposed.Disposed = true

	src.Set(
		item(1, 10, world.SlotBackpack, 0, 0),
		item(2, 20, world.SlotStash, 3, 4),
		item(3, 30, world.SlotEquipped, 0, 0),
		item(4, 40, world.SlotMerchant, 0, 0),
		ground,
		noAnn,
		disposed,
		raw(8, world.TypeMonster),
	)

	cache := actors.NewCache(src)
	require.True(t, cache.Update())
	cache.UpdateInventory()
	inv := cache.Inventory()

	assert.Equal(t, 3, inv.Len())
	require.Len(t, inv.Backpack(), 1)
	assert.Equal(t, world.AnnID(10), inv.Backpack()[0].AnnID())
	require.Len(t, inv.Stash(), 1)
	assert.Equal(t, 3, inv.Stash()[0].Column())
	assert.Equal(t, 4, inv.Stash()[0].Row())
	assert.False(t, cache.IsAnnIDValid(40))
	assert.False(t, cache.IsAnnIDValid(50))
	assert.True(t, cache.IsAnnIDValid(30))
}

func TestInventoryKeepsWrapperAcrossContainerMoves(t *testing.T) {
	src := newTestSource()
	src.Set(item(1, 10, world.SlotBackpack, 4, 2))

	cache := actors.NewCache(src)
	require.True(t, cache.Update())
	cache.UpdateInventory()
	before, ok := cache.ItemByAnnID(10)
	require.True(t, ok)

	// The game hands out a new actor id when the item changes container.
	src.Set(item(99, 10, world.SlotStash, 0, 7))
	require.True(t, cache.Update())
	cache.UpdateInventory()
	after, ok := cache.ItemByAnnID(10)
	require.True(t, ok)

	assert.Same(t, before, after)
	assert.Equal(t, world.SlotStash, after.Slot())
	assert.Equal(t, world.ActorID(99), after.ActorID())
	assert.Equal(t, 7, after.Row())
}

func TestInventoryDropsMissingItems(t *testing.T) {
	src := newTestSource()
	src.Set(item(1, 10, world.SlotBackpack, 0, 0), item(2, 20, world.SlotBackpack, 1, 0))

	cache := actors.NewCache(src)
	require.True(t, cache.Update())
	cache.UpdateInventory()
	gone, _ := cache.ItemByAnnID(20)

	src.Set(item(1, 10, world.SlotBackpack, 0, 0))
	require.True(t, cache.Update())
	cache.UpdateInventory()

	assert.Equal(t, 1, cache.Inventory().Len())
	assert.True(t, gone.IsDestroyed())
	_, ok := cache.ItemByAnnID(20)
	assert.False(t, ok)
}

func TestInventoryDuplicateAnnIDKeepsFirst(t *testing.T) {
	src := newTestSource()
	src.Set(item(1, 10, world.SlotBackpack, 0, 0), item(2, 10, world.SlotStash, 5, 5))

	cache := actors.NewCache(src)
	require.True(t, cache.Update())
	cache.UpdateInventory()

	it, ok := cache.ItemByAnnID(10)
	require.True(t, ok)
	assert.Equal(t, world.SlotBackpack, it.Slot())
	assert.Equal(t, 1, cache.Inventory().Len())
}

func TestItemAttributes(t *testing.T) {
	src := newTestSource()
	gem := item(1, 10, world.SlotBackpack, 0, 0)
	gem.Attributes = world.Attributes{
		world.AttrStackQuantity: 12,
		world.AttrMaxStack:      100,
		world.AttrItemBaseType:  float64(world.BaseGem),
		world.AttrItemType:      7,
	}
	sword := item(2, 20, world.SlotBackpack, 1, 0)
	sword.Attributes = world.Attributes{
		world.AttrItemBaseType: float64(world.BaseWeapon),
		world.AttrTwoSquare:    1,
	}
	src.Set(gem, sword)

	cache := actors.NewCache(src)
	require.True(t, cache.Update())
	cache.UpdateInventory()

	g, _ := cache.ItemByAnnID(10)
	assert.Equal(t, 12, g.Quantity())
	assert.True(t, g.IsStackable())
	assert.True(t, g.IsMisc())
	assert.False(t, g.IsEquipment())
	assert.Equal(t, 7, g.ItemType())

	s, _ := cache.ItemByAnnID(20)
	assert.True(t, s.IsEquipment())
	assert.True(t, s.IsTwoSquare())
	assert.False(t, s.IsStackable())
}
