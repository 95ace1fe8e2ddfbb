// Package actors mirrors the entities of a world.Source into typed wrappers
// that keep their identity across ticks.
package actors

import (
	"cmp"
	"slices"
	"time"

	"github.com/kamstrup/intmap"
	"github.com/sirupsen/logrus"

	"github.com/plus3/pulse/events"
	"github.com/plus3/pulse/world"
)

// Option configures a Cache.
type Option func(*Cache)

// WithPublisher sets where entity and world events go.
func WithPublisher(p events.Publisher) Option {
	return func(c *Cache) { c.events = p }
}

// WithLogger sets the cache logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Cache) { c.log = l }
}

// WithClock replaces time.Now for LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Cache maintains the current valid set of actors.
// Collections are complete except for bad data and disposed actors; reads
// never fetch, so call Update once per tick before reading.
type Cache struct {
	source world.Source
	events events.Publisher
	log    logrus.FieldLogger
	now    func() time.Time

	actors    *intmap.Map[world.ActorID, Actor]
	byCommon  *intmap.Map[world.CommonDataID, world.ActorID]
	inventory *Inventory
	raw       []world.RawEntity

	hasSession  bool
	session     world.SessionID
	world       world.WorldInfo
	invalidated bool

	activePlayerID  world.ActorID
	activePlayerPos world.Vector3
	me              *Player

	frame       uint64
	lastUpdated time.Time
}

// NewCache creates an empty cache reading from source.
func NewCache(source world.Source, opts ...Option) *Cache {
	c := &Cache{
		source:   source,
		events:   events.Nop(),
		log:      logrus.StandardLogger(),
		now:      time.Now,
		actors:   intmap.New[world.ActorID, Actor](256),
		byCommon: intmap.New[world.CommonDataID, world.ActorID](256),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.inventory = newInventory(c.log)
	return c
}

// Update re-synchronizes the cache against the source. It returns true when a
// fresh snapshot was applied. Nothing happens outside an active session. A
// session or world discontinuity clears the cache and the rebuild happens on
// the next call. A failed fetch keeps the previous snapshot.
func (c *Cache) Update() bool {
	if !c.source.IsSessionActive() {
		return false
	}

	session := c.source.CurrentSessionID()
	current := c.source.CurrentWorld()
	if c.boundaryCrossed(session, current) {
		return false
	}

	raws, err := c.source.SnapshotEntities()
	if err != nil {
		c.log.WithError(err).Debug("actor snapshot unavailable, keeping previous tick")
		return false
	}

	// The world can move underneath us while the snapshot is read.
	if c.boundaryCrossed(c.source.CurrentSessionID(), c.source.CurrentWorld()) {
		return false
	}
	c.world = current

	c.invalidated = false
	c.frame++
	c.activePlayerID = c.source.ActivePlayerID()
	c.updateActors(raws)
	c.raw = raws
	c.lastUpdated = c.now()
	return true
}

// boundaryCrossed records the session and world, clearing the cache when
// either differs from what was last seen.
func (c *Cache) boundaryCrossed(session world.SessionID, current world.WorldInfo) bool {
	if !c.hasSession {
		c.hasSession = true
		c.session = session
		c.world = current
		return false
	}

	switch {
	case session != c.session:
		c.log.WithFields(logrus.Fields{
			"previous": c.session,
			"session":  session,
		}).Info("game change detected")
	case !current.SameInstance(c.world):
		c.log.WithFields(logrus.Fields{
			"previous_world": c.world.SNO,
			"world":          current.SNO,
			"dynamic_id":     current.DynamicID,
		}).Info("world change detected")
	default:
		return false
	}

	c.Clear()
	c.invalidated = true
	c.session = session
	c.world = current
	c.events.Publish(events.Event{
		Type:  events.WorldChanged,
		Frame: c.frame,
		Time:  c.now(),
		World: current,
	})
	return true
}

func (c *Cache) updateActors(raws []world.RawEntity) {
	next := intmap.New[world.ActorID, Actor](len(raws))
	nextCommon := intmap.New[world.CommonDataID, world.ActorID](len(raws))
	c.me = nil

	for _, raw := range raws {
		if next.Has(raw.ID) {
			continue
		}

		actor, ok := c.actors.Get(raw.ID)
		if ok && actor.Type() == raw.Type {
			actor.OnUpdated(raw, c.frame)
			c.publish(events.EntityUpdated, actor)
		} else {
			if ok {
				actor.Destroy()
				c.publish(events.EntityDestroyed, actor)
			}
			actor = NewActor(raw)
			actor.OnCreated(raw, c.frame)
			c.publish(events.EntityCreated, actor)
		}

		next.Put(raw.ID, actor)
		if actor.HasCommonData() {
			nextCommon.Put(actor.CommonDataID(), raw.ID)
		}
		if raw.ID == c.activePlayerID {
			if p, isPlayer := actor.(*Player); isPlayer {
				p.isMe = true
				c.me = p
				c.activePlayerPos = p.Position()
			}
		}
	}

	for id, actor := range c.actors.All() {
		if next.Has(id) {
			continue
		}
		actor.Destroy()
		c.publish(events.EntityDestroyed, actor)
	}

	c.actors = next
	c.byCommon = nextCommon
}

func (c *Cache) publish(t events.Type, actor Actor) {
	c.events.Publish(events.Event{
		Type:    t,
		Frame:   c.frame,
		Time:    c.now(),
		ActorID: actor.ActorID(),
		Kind:    actor.Type(),
		World:   c.world,
	})
}

// Clear releases every wrapper and resets all indices. It must run on world
// and session boundaries; calling it repeatedly is harmless.
func (c *Cache) Clear() {
	if c.actors.Len() > 0 {
		c.log.WithField("actors", c.actors.Len()).Debug("resetting actor cache")
	}
	for _, actor := range c.actors.All() {
		actor.Destroy()
	}
	c.actors.Clear()
	c.byCommon.Clear()
	c.inventory.Clear()
	c.raw = nil
	c.me = nil
	c.activePlayerID = 0
	c.activePlayerPos = world.Vector3{}
}

// Inventory returns the item index fed from this cache's snapshots.
func (c *Cache) Inventory() *Inventory {
	return c.inventory
}

// UpdateInventory rebuilds the inventory index from the last applied snapshot.
func (c *Cache) UpdateInventory() {
	c.inventory.Update(c.raw, c.frame)
}

// Snapshot returns the raw records of the last applied update.
func (c *Cache) Snapshot() []world.RawEntity {
	return c.raw
}

// Invalidated reports whether the cache was cleared at a session or world
// boundary and has not been rebuilt since. Until then it is empty.
func (c *Cache) Invalidated() bool {
	return c.invalidated
}

func (c *Cache) ByID(id world.ActorID) (Actor, bool) {
	return c.actors.Get(id)
}

// ByCommonDataID resolves an actor through the common-data index.
func (c *Cache) ByCommonDataID(id world.CommonDataID) (Actor, bool) {
	if id <= 0 {
		return nil, false
	}
	actorID, ok := c.byCommon.Get(id)
	if !ok {
		return nil, false
	}
	return c.actors.Get(actorID)
}

// IsIDValid reports whether id is present in the current snapshot and valid.
func (c *Cache) IsIDValid(id world.ActorID) bool {
	actor, ok := c.actors.Get(id)
	return ok && actor.IsValid()
}

func (c *Cache) ItemByAnnID(id world.AnnID) (*Item, bool) {
	return c.inventory.ByAnnID(id)
}

func (c *Cache) IsAnnIDValid(id world.AnnID) bool {
	item, ok := c.inventory.ByAnnID(id)
	return ok && item.IsValid()
}

// Actors returns every cached actor ordered by id.
func (c *Cache) Actors() []Actor {
	out := make([]Actor, 0, c.actors.Len())
	for _, actor := range c.actors.All() {
		out = append(out, actor)
	}
	slices.SortFunc(out, func(a, b Actor) int { return cmp.Compare(a.ActorID(), b.ActorID()) })
	return out
}

func (c *Cache) Len() int {
	return c.actors.Len()
}

// Me is the active player, or nil before the first snapshot containing it.
func (c *Cache) Me() *Player {
	return c.me
}

func (c *Cache) ActivePlayerID() world.ActorID {
	return c.activePlayerID
}

func (c *Cache) ActivePlayerPosition() world.Vector3 {
	return c.activePlayerPos
}

// World is the world observed by the last update.
func (c *Cache) World() world.WorldInfo {
	return c.world
}

func (c *Cache) Session() world.SessionID {
	return c.session
}

// LastFrame counts applied snapshots.
func (c *Cache) LastFrame() uint64 {
	return c.frame
}

func (c *Cache) LastUpdated() time.Time {
	return c.lastUpdated
}

// OfType returns the cached actors of concrete type T ordered by id.
func OfType[T Actor](c *Cache) []T {
	var out []T
	for _, actor := range c.actors.All() {
		if typed, ok := actor.(T); ok {
			out = append(out, typed)
		}
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(a.ActorID(), b.ActorID()) })
	return out
}

// Get resolves id to a wrapper of concrete type T.
func Get[T Actor](c *Cache, id world.ActorID) (T, bool) {
	var zero T
	actor, ok := c.actors.Get(id)
	if !ok {
		return zero, false
	}
	typed, ok := actor.(T)
	return typed, ok
}
