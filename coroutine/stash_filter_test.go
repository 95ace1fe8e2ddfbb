package coroutine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/pulse/actors"
	"github.com/plus3/pulse/coroutine"
	"github.com/plus3/pulse/events"
	"github.com/plus3/pulse/world"
)

func TestStashFilter(t *testing.T) {
	h := newHarness()
	plain := armor(200, 100, world.SlotBackpack, 0, 0)
	unid := armor(201, 101, world.SlotBackpack, 1, 0)
	unid.Attributes[world.AttrUnidentified] = 1
	h.src.Upsert(plain)
	h.src.Upsert(unid)
	h.tick(0)

	calls := 0
	filter := coroutine.NewStashFilter(func(*actors.Item) bool {
		calls++
		return false
	})
	sub := filter.Subscribe(h.bus)
	defer sub.Cancel()

	item, ok := h.cache.ItemByAnnID(100)
	require.True(t, ok)
	unidentified, ok := h.cache.ItemByAnnID(101)
	require.True(t, ok)

	t.Run("decisions are remembered", func(t *testing.T) {
		assert.False(t, filter.ShouldStash(item))
		assert.False(t, filter.ShouldStash(item))
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, filter.Len())
	})

	t.Run("unidentified items are always stashed", func(t *testing.T) {
		assert.True(t, filter.ShouldStash(unidentified))
		assert.Equal(t, 1, calls)
	})

	t.Run("world change forgets decisions", func(t *testing.T) {
		h.bus.Publish(events.Event{Type: events.EntityCreated})
		assert.Equal(t, 1, filter.Len())

		h.bus.Publish(events.Event{Type: events.WorldChanged})
		assert.Zero(t, filter.Len())

		filter.ShouldStash(item)
		assert.Equal(t, 2, calls)
	})
}

func TestStashFilterDefaultStashesEverything(t *testing.T) {
	h := newHarness()
	h.src.Upsert(armor(200, 100, world.SlotBackpack, 0, 0))
	h.tick(0)
	item, ok := h.cache.ItemByAnnID(100)
	require.True(t, ok)

	assert.True(t, coroutine.NewStashFilter(nil).ShouldStash(item))
}
