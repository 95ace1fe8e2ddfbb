package actors

import (
	"github.com/plus3/pulse/world"
)

// Item is an item actor. Items in tracked containers are owned by the
// Inventory and keyed by AnnID, which survives container moves.
type Item struct {
	Entity
	annID     world.AnnID
	placement world.ItemPlacement
}

func (i *Item) AnnID() world.AnnID             { return i.annID }
func (i *Item) Placement() world.ItemPlacement { return i.placement }
func (i *Item) Slot() world.InventorySlot      { return i.placement.Slot }
func (i *Item) Column() int                    { return i.placement.Column }
func (i *Item) Row() int                       { return i.placement.Row }
func (i *Item) Quantity() int                  { return i.attributes.Int(world.AttrStackQuantity) }
func (i *Item) MaxStack() int                  { return i.attributes.Int(world.AttrMaxStack) }
func (i *Item) ItemType() int                  { return i.attributes.Int(world.AttrItemType) }
func (i *Item) IsTwoSquare() bool              { return i.attributes.Bool(world.AttrTwoSquare) }
func (i *Item) IsTradeable() bool              { return i.attributes.Bool(world.AttrTradeable) }
func (i *Item) IsUnidentified() bool           { return i.attributes.Bool(world.AttrUnidentified) }
func (i *Item) BaseType() world.ItemBaseType   { return world.ItemBaseType(i.attributes.Int(world.AttrItemBaseType)) }
func (i *Item) IsEquipment() bool              { return i.BaseType().IsEquipment() }
func (i *Item) IsStackable() bool              { return i.MaxStack() > 0 }

// IsMisc reports whether the item belongs to the bulk (non-equipment) group.
func (i *Item) IsMisc() bool {
	return i.BaseType() >= world.BaseMisc
}

func (i *Item) OnCreated(raw world.RawEntity, frame uint64) {
	i.Entity.OnCreated(raw, frame)
	i.loadItem(raw)
}

func (i *Item) OnUpdated(raw world.RawEntity, frame uint64) {
	i.Entity.OnUpdated(raw, frame)
	i.loadItem(raw)
}

func (i *Item) loadItem(raw world.RawEntity) {
	i.annID = raw.AnnID
	i.placement = raw.Placement
}
