package actors

import (
	"fmt"

	"github.com/plus3/pulse/world"
)

// Actor is the typed wrapper the cache keeps for an observed record.
// Wrappers are mutated in place while their record stays in the snapshot,
// so holders of an Actor keep seeing current values.
type Actor interface {
	ActorID() world.ActorID
	CommonDataID() world.CommonDataID
	HasCommonData() bool
	Type() world.ActorType
	SNO() world.SNO
	Name() string
	Position() world.Vector3
	Attributes() world.Attributes
	IsValid() bool
	IsDestroyed() bool
	LastSeen() uint64

	OnCreated(raw world.RawEntity, frame uint64)
	OnUpdated(raw world.RawEntity, frame uint64)
	Destroy()
}

// Entity holds the state shared by every actor kind.
type Entity struct {
	id           world.ActorID
	commonDataID world.CommonDataID
	typ          world.ActorType
	sno          world.SNO
	name         string
	position     world.Vector3
	attributes   world.Attributes
	valid        bool
	destroyed    bool
	firstSeen    uint64
	lastSeen     uint64
}

func (e *Entity) ActorID() world.ActorID           { return e.id }
func (e *Entity) CommonDataID() world.CommonDataID { return e.commonDataID }
func (e *Entity) Type() world.ActorType            { return e.typ }
func (e *Entity) SNO() world.SNO                   { return e.sno }
func (e *Entity) Name() string                     { return e.name }
func (e *Entity) Position() world.Vector3          { return e.position }
func (e *Entity) Attributes() world.Attributes     { return e.attributes }
func (e *Entity) IsValid() bool                    { return e.valid && !e.destroyed }
func (e *Entity) IsDestroyed() bool                { return e.destroyed }
func (e *Entity) FirstSeen() uint64                { return e.firstSeen }
func (e *Entity) LastSeen() uint64                 { return e.lastSeen }

// HasCommonData reports whether the actor links to a common-data record.
func (e *Entity) HasCommonData() bool {
	return e.commonDataID > 0
}

func (e *Entity) Distance(pos world.Vector3) float64 {
	return e.position.Distance(pos)
}

func (e *Entity) OnCreated(raw world.RawEntity, frame uint64) {
	e.firstSeen = frame
	e.load(raw, frame)
}

func (e *Entity) OnUpdated(raw world.RawEntity, frame uint64) {
	e.load(raw, frame)
}

func (e *Entity) load(raw world.RawEntity, frame uint64) {
	e.id = raw.ID
	e.commonDataID = raw.CommonDataID
	e.typ = raw.Type
	e.sno = raw.SNO
	e.name = raw.Name
	e.position = raw.Position
	e.attributes = raw.Attributes
	e.valid = raw.Valid && !raw.Disposed
	e.lastSeen = frame
}

// Destroy releases the attribute table and marks the wrapper dead.
func (e *Entity) Destroy() {
	e.destroyed = true
	e.valid = false
	e.attributes = nil
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s %q id=%d sno=%d %s", e.typ, e.name, e.id, e.sno, e.position)
}

// Player is a player character. IsMe is true for the active player.
type Player struct {
	Entity
	isMe bool
}

func (p *Player) IsMe() bool         { return p.isMe }
func (p *Player) Hitpoints() float64 { return p.attributes.Get(world.AttrHitpoints) }

// Monster is a hostile or neutral creature.
type Monster struct {
	Entity
}

func (m *Monster) Hitpoints() float64 { return m.attributes.Get(world.AttrHitpoints) }
func (m *Monster) IsDead() bool       { return m.attributes.Get(world.AttrHitpoints) <= 0 }

// defaultInteractRange applies when a gizmo reports none.
const defaultInteractRange = 5.0

// Gizmo is an interactable object: portals, stashes, doors, shrines.
type Gizmo struct {
	Entity
}

func (g *Gizmo) IsPortal() bool { return g.attributes.Bool(world.AttrPortal) }
func (g *Gizmo) IsStash() bool  { return g.attributes.Bool(world.AttrStash) }

// Destination is the world SNO a portal leads to, or 0 when unknown.
func (g *Gizmo) Destination() world.SNO {
	return world.SNO(g.attributes.Int(world.AttrPortalDestination))
}

func (g *Gizmo) InteractRange() float64 {
	if r := g.attributes.Get(world.AttrInteractRange); r > 0 {
		return r
	}
	return defaultInteractRange
}

// Marker is an objective marker; its SNO carries the marker hash.
type Marker struct {
	Entity
}

// Other is any actor the core has no specific behavior for.
type Other struct {
	Entity
}
