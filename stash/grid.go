// Package stash decides where items go in the shared stash. The stash is a
// stack of pages, each Columns wide and RowsPerPage tall; rows are addressed
// absolutely, so row r of page p is p*RowsPerPage + r.
//
// Everything here is pure. Callers issue the moves and rebuild the Grid from
// the next snapshot, since a move invalidates it.
package stash

import (
	"cmp"
	"slices"

	"github.com/kamstrup/intmap"

	"github.com/plus3/pulse/actors"
	"github.com/plus3/pulse/world"
)

const (
	Columns     = 7
	RowsPerPage = 10
)

// PageOf returns the page an absolute row belongs to.
func PageOf(row int) int {
	return row / RowsPerPage
}

// Entry is the planner's view of an item.
type Entry struct {
	AnnID        world.AnnID
	SNO          world.SNO
	Name         string
	ItemType     int
	BaseType     world.ItemBaseType
	Quantity     int
	MaxStack     int
	TwoSquare    bool
	Tradeable    bool
	Unidentified bool
	Column       int
	Row          int
}

// FromItem copies the fields the planner needs out of an item wrapper.
func FromItem(item *actors.Item) Entry {
	return Entry{
		AnnID:        item.AnnID(),
		SNO:          item.SNO(),
		Name:         item.Name(),
		ItemType:     item.ItemType(),
		BaseType:     item.BaseType(),
		Quantity:     item.Quantity(),
		MaxStack:     item.MaxStack(),
		TwoSquare:    item.IsTwoSquare(),
		Tradeable:    item.IsTradeable(),
		Unidentified: item.IsUnidentified(),
		Column:       item.Column(),
		Row:          item.Row(),
	}
}

// FromRaw builds an entry straight from a snapshot record.
func FromRaw(raw world.RawEntity) Entry {
	a := raw.Attributes
	return Entry{
		AnnID:        raw.AnnID,
		SNO:          raw.SNO,
		Name:         raw.Name,
		ItemType:     a.Int(world.AttrItemType),
		BaseType:     world.ItemBaseType(a.Int(world.AttrItemBaseType)),
		Quantity:     a.Int(world.AttrStackQuantity),
		MaxStack:     a.Int(world.AttrMaxStack),
		TwoSquare:    a.Bool(world.AttrTwoSquare),
		Tradeable:    a.Bool(world.AttrTradeable),
		Unidentified: a.Bool(world.AttrUnidentified),
		Column:       raw.Placement.Column,
		Row:          raw.Placement.Row,
	}
}

func (e Entry) IsEquipment() bool { return e.BaseType.IsEquipment() }
func (e Entry) IsMisc() bool      { return e.BaseType >= world.BaseMisc }
func (e Entry) Page() int         { return PageOf(e.Row) }

// Grid maps stash cells to the item whose top cell is there.
type Grid struct {
	cells *intmap.Map[int, Entry]
}

func cellKey(column, row int) int {
	return row*Columns + column
}

// NewGrid builds a grid from entries. When two entries claim the same cell
// the first one wins.
func NewGrid(entries ...Entry) *Grid {
	g := &Grid{cells: intmap.New[int, Entry](len(entries))}
	for _, e := range entries {
		g.cells.PutIfNotExists(cellKey(e.Column, e.Row), e)
	}
	return g
}

// GridFromItems builds a grid from stash item wrappers.
func GridFromItems(items []*actors.Item) *Grid {
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item.Slot() != world.SlotStash {
			continue
		}
		entries = append(entries, FromItem(item))
	}
	return NewGrid(entries...)
}

// At returns the item whose top cell is (column, row).
func (g *Grid) At(column, row int) (Entry, bool) {
	if column < 0 || column >= Columns || row < 0 {
		return Entry{}, false
	}
	return g.cells.Get(cellKey(column, row))
}

// Occupied reports whether an item's top cell is at (column, row).
func (g *Grid) Occupied(column, row int) bool {
	_, ok := g.At(column, row)
	return ok
}

// Covered reports whether (column, row) is taken, either by an item starting
// there or by the lower half of a two-square item starting one row above on
// the same page.
func (g *Grid) Covered(column, row int) bool {
	if g.Occupied(column, row) {
		return true
	}
	if row%RowsPerPage == 0 {
		return false
	}
	above, ok := g.At(column, row-1)
	return ok && above.TwoSquare
}

// Put stores e at its own column and row, replacing anything there.
func (g *Grid) Put(e Entry) {
	g.cells.Put(cellKey(e.Column, e.Row), e)
}

// Remove clears the cell (column, row).
func (g *Grid) Remove(column, row int) {
	g.cells.Del(cellKey(column, row))
}

func (g *Grid) Len() int {
	return g.cells.Len()
}

// Clone returns an independent copy.
func (g *Grid) Clone() *Grid {
	c := &Grid{cells: intmap.New[int, Entry](g.cells.Len())}
	for k, v := range g.cells.All() {
		c.cells.Put(k, v)
	}
	return c
}

// Entries returns every item in row-major order.
func (g *Grid) Entries() []Entry {
	out := make([]Entry, 0, g.cells.Len())
	for _, e := range g.cells.All() {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return cmp.Or(cmp.Compare(a.Row, b.Row), cmp.Compare(a.Column, b.Column))
	})
	return out
}

// OnPage returns the items on one page in row-major order.
func (g *Grid) OnPage(page int) []Entry {
	var out []Entry
	for _, e := range g.Entries() {
		if e.Page() == page {
			out = append(out, e)
		}
	}
	return out
}
