package coroutine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/pulse/actors"
	"github.com/plus3/pulse/coroutine"
	"github.com/plus3/pulse/events"
	"github.com/plus3/pulse/stash"
	"github.com/plus3/pulse/world"
)

const stashGizmo world.ActorID = 60

func armor(id world.ActorID, ann world.AnnID, slot world.InventorySlot, col, row int) world.RawEntity {
	return world.RawEntity{
		ID:        id,
		AnnID:     ann,
		SNO:       world.SNO(700 + ann),
		Type:      world.TypeItem,
		Valid:     true,
		Placement: world.ItemPlacement{Slot: slot, Column: col, Row: row},
		Attributes: world.Attributes{
			world.AttrItemBaseType: float64(world.BaseArmor),
			world.AttrItemType:     3,
		},
	}
}

func gemItem(id world.ActorID, ann world.AnnID, qty int, slot world.InventorySlot, col, row int) world.RawEntity {
	return world.RawEntity{
		ID:        id,
		AnnID:     ann,
		SNO:       500,
		Type:      world.TypeItem,
		Valid:     true,
		Placement: world.ItemPlacement{Slot: slot, Column: col, Row: row},
		Attributes: world.Attributes{
			world.AttrItemBaseType:  float64(world.BaseGem),
			world.AttrItemType:      40,
			world.AttrStackQuantity: float64(qty),
			world.AttrMaxStack:      20,
		},
	}
}

type stashFixture struct {
	*harness
	nav    *scriptedNavigator
	task   *coroutine.StashItems
	events []events.Event
}

func newStashFixture(t *testing.T, cfg coroutine.StashItemsConfig, filter *coroutine.StashFilter, nav ...coroutine.NavResult) *stashFixture {
	t.Helper()
	f := &stashFixture{
		harness: newHarness(),
		nav:     &scriptedNavigator{results: nav},
	}
	f.src.World.InTown = true
	f.src.World.StashPages = 2
	f.src.Upsert(world.RawEntity{
		ID:         stashGizmo,
		Type:       world.TypeGizmo,
		SNO:        130400,
		Valid:      true,
		Position:   world.Vector3{X: 10},
		Attributes: world.Attributes{world.AttrStash: 1},
	})

	sub := f.bus.Subscribe(func(e events.Event) {
		f.events = append(f.events, e)
	}, events.ItemStashed, events.StashFull)
	t.Cleanup(sub.Cancel)

	f.task = coroutine.NewStashItems(cfg, f.nav, stash.NewPlanner(stash.DefaultConfig()), filter)
	return f
}

func (f *stashFixture) step() *stashFixture {
	f.task.Step(f.tick(100 * time.Millisecond))
	f.flush()
	return f
}

func (f *stashFixture) lastCommand(t *testing.T) world.Command {
	t.Helper()
	cmd, ok := f.src.LastCommand()
	require.True(t, ok, "no command issued")
	return cmd
}

func (f *stashFixture) ofType(typ events.Type) []events.Event {
	var out []events.Event
	for _, e := range f.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestStashItemsFilesBackpack(t *testing.T) {
	f := newStashFixture(t, coroutine.StashItemsConfig{}, nil, coroutine.NavMoving, coroutine.NavArrived)
	f.src.Upsert(armor(200, 100, world.SlotBackpack, 0, 0))
	f.src.Upsert(gemItem(201, 101, 3, world.SlotBackpack, 1, 0))

	f.step()
	require.Equal(t, coroutine.StashMovingToStash, f.task.Current())
	assert.Equal(t, world.CommandMove, f.lastCommand(t).Kind)

	// The scripted navigator reports arrival; put the player there.
	f.movePlayer(world.Vector3{X: 8})
	f.step()
	require.Equal(t, coroutine.StashOpening, f.task.Current())
	assert.Equal(t, world.Command{Kind: world.CommandInteract, Target: stashGizmo}, f.lastCommand(t))

	f.src.World.StashOpen = true
	f.step()
	require.Equal(t, coroutine.StashStashing, f.task.Current())

	f.step()
	assert.Equal(t, world.Command{Kind: world.CommandMoveItem, AnnID: 100, Slot: world.SlotStash, Column: 0, Row: 0}, f.lastCommand(t))
	f.src.Upsert(armor(200, 100, world.SlotStash, 0, 0))

	// Gems belong on the last page.
	f.step()
	assert.Equal(t, world.Command{Kind: world.CommandSwitchStashPage, Page: 1}, f.lastCommand(t))
	f.src.World.StashPage = 1

	f.step()
	assert.Equal(t, world.Command{Kind: world.CommandMoveItem, AnnID: 101, Slot: world.SlotStash, Column: 0, Row: 10}, f.lastCommand(t))
	f.src.Upsert(gemItem(201, 101, 3, world.SlotStash, 0, 10))

	f.step()
	assert.Equal(t, coroutine.StashCompleted, f.task.Current())
	assert.True(t, f.task.IsDone())
	assert.Equal(t, 2, f.task.Stashed())
	assert.False(t, f.task.Full())

	stashed := f.ofType(events.ItemStashed)
	require.Len(t, stashed, 2)
	assert.Equal(t, world.AnnID(100), stashed[0].AnnID)
	assert.Equal(t, &events.Location{Slot: world.SlotStash, Page: 1, Column: 0, Row: 10}, stashed[1].Location)
}

func TestStashItemsReportsFullStash(t *testing.T) {
	f := newStashFixture(t, coroutine.StashItemsConfig{}, nil)
	f.src.World.StashPages = 1
	f.src.World.StashOpen = true
	id := world.ActorID(1000)
	for row := range stash.RowsPerPage {
		for col := range stash.Columns {
			f.src.Upsert(armor(id, world.AnnID(id), world.SlotStash, col, row))
			id++
		}
	}
	f.src.Upsert(armor(200, 100, world.SlotBackpack, 0, 0))
	f.src.Upsert(armor(201, 101, world.SlotBackpack, 1, 0))

	f.task.Step(f.tick(0))
	f.task.Step(f.tick(time.Second))

	assert.True(t, f.task.IsDone())
	assert.Equal(t, coroutine.StashCompleted, f.task.Current())
	assert.True(t, f.task.Full())
	assert.Zero(t, f.task.Stashed())

	full := f.ofType(events.StashFull)
	require.Len(t, full, 1)
	assert.Equal(t, world.AnnID(100), full[0].AnnID)
}

func TestStashItemsOutsideTown(t *testing.T) {
	f := newStashFixture(t, coroutine.StashItemsConfig{}, nil)
	f.src.World.InTown = false
	f.src.Upsert(armor(200, 100, world.SlotBackpack, 0, 0))

	done := f.task.Step(f.tick(0))

	assert.True(t, done)
	assert.Equal(t, coroutine.StashFailed, f.task.Current())
	assert.Empty(t, f.src.Commands)
}

func TestStashItemsNothingToStash(t *testing.T) {
	keep := coroutine.NewStashFilter(func(*actors.Item) bool { return false })
	f := newStashFixture(t, coroutine.StashItemsConfig{}, keep)
	f.src.Upsert(armor(200, 100, world.SlotBackpack, 0, 0))

	assert.True(t, f.task.Step(f.tick(0)))
	assert.Equal(t, coroutine.StashCompleted, f.task.Current())
	assert.Equal(t, 0, f.nav.calls)
}

func TestStashItemsNavigationFailure(t *testing.T) {
	f := newStashFixture(t, coroutine.StashItemsConfig{}, nil, coroutine.NavFailed)
	f.src.Upsert(armor(200, 100, world.SlotBackpack, 0, 0))

	assert.True(t, f.task.Step(f.tick(0)))
	assert.Equal(t, coroutine.StashFailed, f.task.Current())
}

func TestStashItemsConsolidatesFirst(t *testing.T) {
	f := newStashFixture(t, coroutine.StashItemsConfig{Consolidate: true}, nil)
	f.src.World.StashOpen = true
	f.src.Upsert(gemItem(300, 30, 4, world.SlotStash, 0, 10))
	f.src.Upsert(gemItem(301, 31, 6, world.SlotStash, 3, 11))
	f.src.Upsert(armor(200, 100, world.SlotBackpack, 0, 0))

	f.step()
	require.Equal(t, coroutine.StashConsolidating, f.task.Current())

	f.step()
	assert.Equal(t, world.Command{Kind: world.CommandMoveItem, AnnID: 30, Slot: world.SlotStash, Column: 3, Row: 11}, f.lastCommand(t))
	f.src.Remove(300)
	f.src.Upsert(gemItem(301, 31, 10, world.SlotStash, 3, 11))

	f.step()
	assert.Equal(t, coroutine.StashStashing, f.task.Current())
	assert.Equal(t, world.Command{Kind: world.CommandMoveItem, AnnID: 100, Slot: world.SlotStash, Column: 0, Row: 0}, f.lastCommand(t))
}

func TestStashItemsTimeout(t *testing.T) {
	f := newStashFixture(t, coroutine.StashItemsConfig{Timeout: 5 * time.Second}, nil, coroutine.NavMoving)
	f.src.Upsert(armor(200, 100, world.SlotBackpack, 0, 0))

	f.task.Step(f.tick(0))
	f.task.Step(f.tick(5 * time.Second))
	assert.False(t, f.task.IsDone())

	f.task.Step(f.tick(time.Second))
	assert.True(t, f.task.IsDone())
	assert.Equal(t, coroutine.StashFailed, f.task.Current())
}

func TestStashItemsReset(t *testing.T) {
	f := newStashFixture(t, coroutine.StashItemsConfig{}, nil)
	f.src.World.StashOpen = true
	f.src.Upsert(armor(200, 100, world.SlotBackpack, 0, 0))

	f.step()
	f.step()
	require.Equal(t, 1, f.task.Stashed())

	f.task.Reset()

	assert.Equal(t, coroutine.StashNotStarted, f.task.Current())
	assert.False(t, f.task.IsDone())
	assert.Zero(t, f.task.Stashed())
	assert.Greater(t, f.nav.resets, 0)
}

func TestStashItemsWaitsForRebuiltCache(t *testing.T) {
	f := newStashFixture(t, coroutine.StashItemsConfig{}, nil)
	f.src.World.StashOpen = true
	f.src.Upsert(armor(200, 100, world.SlotBackpack, 0, 0))
	f.src.Upsert(armor(201, 101, world.SlotBackpack, 1, 0))

	f.step()
	f.step()
	require.Equal(t, 1, f.task.Stashed())
	issued := len(f.src.Commands)

	f.src.World.DynamicID = 2
	f.step()
	require.True(t, f.cache.Invalidated())
	assert.Equal(t, coroutine.StashStashing, f.task.Current())
	assert.False(t, f.task.IsDone())
	assert.Len(t, f.src.Commands, issued, "no command while the cache is empty")

	f.step()
	require.False(t, f.cache.Invalidated())
	assert.Equal(t, 2, f.task.Stashed())
	cmd := f.lastCommand(t)
	assert.Equal(t, world.CommandMoveItem, cmd.Kind)
	assert.Equal(t, world.AnnID(101), cmd.AnnID)
}
