package stash

import (
	"slices"

	"github.com/plus3/pulse/world"
)

// Move relocates one stash item.
type Move struct {
	AnnID  world.AnnID
	Column int
	Row    int
	To     Placement
}

// PlanConsolidation returns the moves that merge partial stacks of the same
// item into each other. Each stack looks for a partner on its ideal page, or
// on its own page when it has none. The moves are planned against a copy of
// grid and are meant to be issued in order.
func (p *Planner) PlanConsolidation(grid *Grid) []Move {
	work := grid.Clone()

	groups := make(map[world.SNO][]Entry)
	for _, e := range work.Entries() {
		if !p.CanStack(e) || e.Quantity >= e.MaxStack {
			continue
		}
		groups[e.SNO] = append(groups[e.SNO], e)
	}

	snos := make([]world.SNO, 0, len(groups))
	for sno, entries := range groups {
		if len(entries) > 1 {
			snos = append(snos, sno)
		}
	}
	slices.Sort(snos)

	var moves []Move
	for _, sno := range snos {
		for _, e := range groups[sno] {
			current, ok := work.At(e.Column, e.Row)
			if !ok || current.AnnID != e.AnnID {
				continue
			}

			page := p.IdealPage(current, work)
			if page == NoPage {
				page = current.Page()
			} else {
				page = p.resolvePage(page)
			}
			if !p.Usable(page) {
				continue
			}

			target, ok := p.stackOnPage(current, page, work)
			if !ok {
				continue
			}

			moves = append(moves, Move{AnnID: current.AnnID, Column: current.Column, Row: current.Row, To: target})

			merged, _ := work.At(target.Column, target.Row)
			merged.Quantity += current.Quantity
			work.Put(merged)
			work.Remove(current.Column, current.Row)
		}
	}

	return moves
}
