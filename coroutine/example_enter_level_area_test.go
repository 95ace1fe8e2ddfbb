package coroutine_test

import (
	"fmt"
	"time"

	"github.com/plus3/pulse/actors"
	"github.com/plus3/pulse/coroutine"
	"github.com/plus3/pulse/tick"
	"github.com/plus3/pulse/world"
)

// ExampleStepEnterLevelArea drives the step function by hand. The carried
// data is a value, so each call returns the next copy.
func ExampleStepEnterLevelArea() {
	src := world.NewMemory(1)
	src.PlayerID = 1
	src.Set(
		world.RawEntity{ID: 1, Type: world.TypePlayer, Valid: true},
		marker(2, 4242, world.Vector3{X: 20}),
		portal(3, 77, world.Vector3{X: 21}),
	)
	cache := actors.NewCache(src)

	env := coroutine.EnterLevelAreaEnv{
		Config:        coroutine.EnterLevelAreaConfig{PortalMarker: 4242, PortalSNO: 77},
		Collaborators: coroutine.DefaultCollaborators(),
	}
	state := coroutine.EnterNotStarted
	data := coroutine.NewEnterLevelAreaData()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	step := func() {
		cache.Update()
		now = now.Add(100 * time.Millisecond)
		var action coroutine.Action
		state, data, action = coroutine.StepEnterLevelArea(state, data, env, tick.NewContext(cache, now))
		fmt.Println(state, action)
	}

	step()
	step()
	src.Upsert(world.RawEntity{ID: 1, Type: world.TypePlayer, Valid: true, Position: world.Vector3{X: 19}})
	step()
	// Output:
	// Moving none
	// Moving move
	// Entering move
}
