package coroutine_test

import (
	"time"

	"github.com/plus3/pulse/actors"
	"github.com/plus3/pulse/coroutine"
	"github.com/plus3/pulse/events"
	"github.com/plus3/pulse/tick"
	"github.com/plus3/pulse/world"
)

// scriptedNavigator replays results in order and then repeats the last one.
type scriptedNavigator struct {
	results []coroutine.NavResult
	calls   int
	resets  int
	dests   []world.Vector3
}

func (n *scriptedNavigator) MoveTo(_ *tick.Context, dest world.Vector3, _ float64) (coroutine.NavResult, coroutine.Action) {
	n.dests = append(n.dests, dest)
	result := coroutine.NavMoving
	if len(n.results) > 0 {
		result = n.results[min(n.calls, len(n.results)-1)]
	}
	n.calls++
	if result == coroutine.NavMoving {
		return result, coroutine.MoveAction(dest)
	}
	return result, coroutine.NoAction
}

func (n *scriptedNavigator) Reset() { n.resets++ }

type scriptedPortals struct {
	results []coroutine.PortalResult
	calls   int
}

func (p *scriptedPortals) UsePortal(_ *tick.Context, portal world.ActorID, _ int32) (coroutine.PortalResult, coroutine.Action) {
	result := coroutine.PortalInProgress
	if len(p.results) > 0 {
		result = p.results[min(p.calls, len(p.results)-1)]
	}
	p.calls++
	if result == coroutine.PortalInProgress {
		return result, coroutine.InteractAction(portal)
	}
	return result, coroutine.NoAction
}

func (p *scriptedPortals) Reset() {}

type countingExplorer struct {
	calls int
}

func (e *countingExplorer) Explore(*tick.Context) coroutine.Action {
	e.calls++
	return coroutine.NoAction
}

func (e *countingExplorer) Reset() {}

// harness drives a Memory source by hand with a fake clock.
type harness struct {
	src   *world.Memory
	cache *actors.Cache
	bus   *events.Bus
	now   time.Time
	last  *tick.Context
}

const playerID world.ActorID = 1

func newHarness() *harness {
	src := world.NewMemory(1)
	src.World = world.WorldInfo{SNO: 10, DynamicID: 1}
	src.PlayerID = playerID
	src.Set(world.RawEntity{ID: playerID, Type: world.TypePlayer, Valid: true})
	return &harness{
		src:   src,
		cache: actors.NewCache(src),
		bus:   events.NewBus(),
		now:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (h *harness) movePlayer(pos world.Vector3) {
	h.src.Upsert(world.RawEntity{ID: playerID, Type: world.TypePlayer, Valid: true, Position: pos})
}

// tick advances the clock, re-syncs the cache and returns a fresh context.
func (h *harness) tick(advance time.Duration) *tick.Context {
	h.now = h.now.Add(advance)
	if h.cache.Update() {
		h.cache.UpdateInventory()
	}
	tc := tick.NewContext(h.cache, h.now)
	tc.Events = h.bus
	h.last = tc
	return tc
}

// flush applies the last tick's commands to the source.
func (h *harness) flush() {
	if h.last != nil {
		_ = h.last.Commands.Flush(h.src)
	}
}

func marker(id world.ActorID, hash world.SNO, pos world.Vector3) world.RawEntity {
	return world.RawEntity{ID: id, Type: world.TypeMarker, SNO: hash, Valid: true, Position: pos}
}

func portal(id world.ActorID, sno world.SNO, pos world.Vector3) world.RawEntity {
	return world.RawEntity{
		ID:         id,
		Type:       world.TypeGizmo,
		SNO:        sno,
		Valid:      true,
		Position:   pos,
		Attributes: world.Attributes{world.AttrPortal: 1},
	}
}
