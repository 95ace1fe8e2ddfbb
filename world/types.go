package world

import (
	"fmt"
	"maps"
	"math"
)

// ActorID is the stable identifier of an observed actor within one session.
type ActorID int32

// CommonDataID links an actor to its item-common-data record. Values <= 0 mean none.
type CommonDataID int32

// AnnID identifies an item across container moves. -1 means none.
type AnnID int32

// SNO is a static numeric id of an actor, world or level area kind.
type SNO int32

// SessionID is an opaque game-instance identifier.
type SessionID uint64

const (
	NoCommonData CommonDataID = -1
	NoAnnID      AnnID        = -1
)

// ActorType tags what kind of wrapper an observed record becomes.
type ActorType uint8

const (
	TypeOther ActorType = iota
	TypePlayer
	TypeMonster
	TypeItem
	TypeGizmo
	TypeMarker
)

func (t ActorType) String() string {
	switch t {
	case TypePlayer:
		return "player"
	case TypeMonster:
		return "monster"
	case TypeItem:
		return "item"
	case TypeGizmo:
		return "gizmo"
	case TypeMarker:
		return "marker"
	default:
		return "other"
	}
}

// InventorySlot is the container an item currently sits in.
type InventorySlot uint8

const (
	SlotNone InventorySlot = iota
	SlotBackpack
	SlotStash
	SlotEquipped
	SlotMerchant
)

func (s InventorySlot) String() string {
	switch s {
	case SlotBackpack:
		return "backpack"
	case SlotStash:
		return "stash"
	case SlotEquipped:
		return "equipped"
	case SlotMerchant:
		return "merchant"
	default:
		return "none"
	}
}

// Tracked reports whether items in the slot belong to the character.
func (s InventorySlot) Tracked() bool {
	return s == SlotBackpack || s == SlotStash || s == SlotEquipped
}

// Vector3 is a world position.
type Vector3 struct {
	X, Y, Z float64
}

func (v Vector3) IsZero() bool {
	return v == Vector3{}
}

func (v Vector3) Distance(o Vector3) float64 {
	return math.Sqrt(v.DistanceSqr(o))
}

func (v Vector3) DistanceSqr(o Vector3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return dx*dx + dy*dy + dz*dz
}

// MoveTowards returns the point at most step units from v on the way to target.
func (v Vector3) MoveTowards(target Vector3, step float64) Vector3 {
	d := v.Distance(target)
	if d <= step || d == 0 {
		return target
	}
	f := step / d
	return Vector3{
		X: v.X + (target.X-v.X)*f,
		Y: v.Y + (target.Y-v.Y)*f,
		Z: v.Z + (target.Z-v.Z)*f,
	}
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f)", v.X, v.Y, v.Z)
}

// Attribute keys numeric actor attributes.
type Attribute uint16

const (
	AttrHitpoints Attribute = iota + 1
	AttrStackQuantity
	AttrMaxStack
	AttrItemType
	AttrItemBaseType
	AttrTwoSquare
	AttrTradeable
	AttrUnidentified
	AttrInteractRange
	AttrPortal
	AttrPortalDestination
	AttrStash
)

// Attributes is a copied attribute table; it never aliases source memory.
type Attributes map[Attribute]float64

func (a Attributes) Get(key Attribute) float64 {
	return a[key]
}

func (a Attributes) Int(key Attribute) int {
	return int(a[key])
}

func (a Attributes) Bool(key Attribute) bool {
	return a[key] != 0
}

// ItemBaseType groups item types. Values at or above BaseMisc are not equipment.
type ItemBaseType uint8

const (
	BaseNone ItemBaseType = iota
	BaseWeapon
	BaseArmor
	BaseJewelry
	BaseMisc
	BaseGem
)

func (b ItemBaseType) IsEquipment() bool {
	return b > BaseNone && b < BaseMisc
}

// ItemPlacement is where an item sits within its container.
type ItemPlacement struct {
	Slot   InventorySlot `json:"slot"`
	Column int           `json:"column"`
	Row    int           `json:"row"`
}

// RawEntity is one record of a world snapshot, copied out of the source.
type RawEntity struct {
	ID           ActorID       `json:"id"`
	CommonDataID CommonDataID  `json:"commonDataId"`
	AnnID        AnnID         `json:"annId"`
	SNO          SNO           `json:"sno"`
	Type         ActorType     `json:"type"`
	Name         string        `json:"name,omitempty"`
	Position     Vector3       `json:"position"`
	Valid        bool          `json:"valid"`
	Disposed     bool          `json:"disposed,omitempty"`
	Placement    ItemPlacement `json:"placement"`
	Attributes   Attributes    `json:"attributes,omitempty"`
}

// Clone returns a deep copy so callers never share attribute tables.
func (r RawEntity) Clone() RawEntity {
	r.Attributes = maps.Clone(r.Attributes)
	return r
}

// WorldInfo describes the world the active player is currently in.
type WorldInfo struct {
	SNO          SNO   `json:"sno"`
	DynamicID    int32 `json:"dynamicId"`
	LevelAreaSNO SNO   `json:"levelAreaSno"`
	InTown       bool  `json:"inTown"`
	StashOpen    bool  `json:"stashOpen"`
	StashPage    int   `json:"stashPage"`
	StashPages   int   `json:"stashPages"`
}

// SameInstance reports whether both values describe the same world instance.
func (w WorldInfo) SameInstance(o WorldInfo) bool {
	return w.SNO == o.SNO && w.DynamicID == o.DynamicID
}
