// Package tick drives the core: one cooperative goroutine refreshes the
// world source, re-synchronizes the actor cache and inventory, runs every
// registered system and then flushes the commands they queued.
package tick

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/plus3/pulse/actors"
	"github.com/plus3/pulse/events"
	"github.com/plus3/pulse/world"
)

// Context is everything a system may read or emit during one tick. It is
// only valid for the duration of the tick it was built for.
type Context struct {
	Frame     uint64
	Now       time.Time
	DeltaTime float64

	// Fresh is false when the cache kept the previous snapshot this tick.
	Fresh bool

	Actors    *actors.Cache
	Inventory *actors.Inventory
	Commands  *Commands
	World     world.WorldInfo
	Events    events.Publisher
	Log       logrus.FieldLogger
}

// Me is shorthand for the active player wrapper, which may be nil.
func (c *Context) Me() *actors.Player {
	return c.Actors.Me()
}

// PlayerPosition is the active player's position as of this tick.
func (c *Context) PlayerPosition() world.Vector3 {
	return c.Actors.ActivePlayerPosition()
}

// Publish stamps event with the tick's frame, time and world and emits it.
func (c *Context) Publish(event events.Event) {
	event.Frame = c.Frame
	event.Time = c.Now
	event.World = c.World
	c.Events.Publish(event)
}

// NewContext builds a context around cache outside a Scheduler. Tests and
// tools use it to step tasks by hand.
func NewContext(cache *actors.Cache, now time.Time) *Context {
	return &Context{
		Frame:     cache.LastFrame(),
		Now:       now,
		Fresh:     true,
		Actors:    cache,
		Inventory: cache.Inventory(),
		Commands:  NewCommands(),
		World:     cache.World(),
		Events:    events.Nop(),
		Log:       logrus.StandardLogger(),
	}
}
