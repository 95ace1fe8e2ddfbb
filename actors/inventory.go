package actors

import (
	"cmp"
	"slices"

	"github.com/kamstrup/intmap"
	"github.com/sirupsen/logrus"

	"github.com/plus3/pulse/world"
)

// Inventory indexes the items of tracked containers by AnnID. Actor and
// common-data ids get recycled when items move between containers; AnnID
// does not.
type Inventory struct {
	items *intmap.Map[world.AnnID, *Item]
	log   logrus.FieldLogger
}

func newInventory(log logrus.FieldLogger) *Inventory {
	return &Inventory{
		items: intmap.New[world.AnnID, *Item](128),
		log:   log,
	}
}

// Update rebuilds the index from a raw snapshot. Wrappers whose AnnID
// persists are reused; the new map replaces the old one only once complete.
func (inv *Inventory) Update(raws []world.RawEntity, frame uint64) {
	next := intmap.New[world.AnnID, *Item](inv.items.Len() + 16)

	for _, raw := range raws {
		if raw.Type != world.TypeItem {
			continue
		}
		if !raw.Placement.Slot.Tracked() {
			continue
		}
		if raw.AnnID == world.NoAnnID {
			continue
		}
		if !raw.Valid || raw.Disposed {
			continue
		}
		if next.Has(raw.AnnID) {
			continue
		}

		if item, ok := inv.items.Get(raw.AnnID); ok {
			item.OnUpdated(raw, frame)
			if !item.IsValid() {
				continue
			}
			next.Put(raw.AnnID, item)
			continue
		}

		item := &Item{}
		item.OnCreated(raw, frame)
		next.Put(raw.AnnID, item)
	}

	dropped := 0
	for ann, item := range inv.items.All() {
		if !next.Has(ann) {
			item.Destroy()
			dropped++
		}
	}
	if dropped > 0 {
		inv.log.WithFields(logrus.Fields{"dropped": dropped, "items": next.Len()}).Trace("inventory rebuilt")
	}
	inv.items = next
}

// Clear drops every item.
func (inv *Inventory) Clear() {
	for _, item := range inv.items.All() {
		item.Destroy()
	}
	inv.items.Clear()
}

func (inv *Inventory) ByAnnID(id world.AnnID) (*Item, bool) {
	return inv.items.Get(id)
}

func (inv *Inventory) Len() int {
	return inv.items.Len()
}

// Items returns every indexed item ordered by AnnID.
func (inv *Inventory) Items() []*Item {
	return inv.filter(func(*Item) bool { return true })
}

// InSlot returns the items of one container ordered by AnnID.
func (inv *Inventory) InSlot(slot world.InventorySlot) []*Item {
	return inv.filter(func(i *Item) bool { return i.Slot() == slot })
}

func (inv *Inventory) Backpack() []*Item {
	return inv.InSlot(world.SlotBackpack)
}

func (inv *Inventory) Stash() []*Item {
	return inv.InSlot(world.SlotStash)
}

func (inv *Inventory) filter(keep func(*Item) bool) []*Item {
	out := make([]*Item, 0, inv.items.Len())
	for _, item := range inv.items.All() {
		if keep(item) {
			out = append(out, item)
		}
	}
	slices.SortFunc(out, func(a, b *Item) int { return cmp.Compare(a.AnnID(), b.AnnID()) })
	return out
}
