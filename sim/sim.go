// Package sim is a small deterministic game world that implements
// world.Source. It moves the player toward the last move target a fixed
// distance per refresh, carries the player through portals and models the
// stash well enough to drive every task end to end without a game client.
package sim

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/plus3/pulse/stash"
	"github.com/plus3/pulse/world"
)

var (
	ErrUnknownActor = errors.New("sim: unknown actor")
	ErrOutOfRange   = errors.New("sim: target out of range")
	ErrStashClosed  = errors.New("sim: stash is closed")
	ErrWrongPage    = errors.New("sim: row is not on the open page")
	ErrCellTaken    = errors.New("sim: stash cell taken")
	ErrNoSession    = errors.New("sim: no active session")
)

// Area is one world the player can be in.
type Area struct {
	SNO       world.SNO
	LevelArea world.SNO
	InTown    bool
	// Spawn is where the player appears when arriving without a portal.
	Spawn  world.Vector3
	Actors []world.RawEntity
}

// Portal links an actor in one area to a position in another.
type Portal struct {
	ID       world.ActorID
	SNO      world.SNO
	From     world.SNO
	Position world.Vector3
	To       world.SNO
	Arrival  world.Vector3
}

func (p Portal) raw() world.RawEntity {
	return world.RawEntity{
		ID:       p.ID,
		SNO:      p.SNO,
		Type:     world.TypeGizmo,
		Name:     "portal",
		Position: p.Position,
		Valid:    true,
		Attributes: world.Attributes{
			world.AttrPortal:            1,
			world.AttrPortalDestination: float64(p.To),
		},
	}
}

// Config tunes the simulation.
type Config struct {
	// Speed is how far the player walks per refresh.
	Speed float64 `yaml:"speed" env:"SPEED"`
	// StashPages is the number of stash pages the character owns.
	StashPages int `yaml:"stash_pages" env:"STASH_PAGES"`
	// PlayerID is the actor id of the simulated player.
	PlayerID world.ActorID `yaml:"player_id" env:"PLAYER_ID"`
}

func DefaultConfig() Config {
	return Config{
		Speed:      6,
		StashPages: 5,
		PlayerID:   1,
	}
}

type Option func(*World)

func WithLogger(l logrus.FieldLogger) Option {
	return func(w *World) { w.log = l }
}

// World is the simulated game. It is driven by a single goroutine; Refresh
// applies movement, everything else takes effect immediately.
type World struct {
	cfg Config
	log logrus.FieldLogger

	active    bool
	session   world.SessionID
	areas     map[world.SNO]*Area
	portals   []Portal
	current   world.SNO
	dynamicID int32

	player   world.RawEntity
	target   world.Vector3
	moving   bool
	items    []world.RawEntity
	nextItem world.ActorID

	stashOpen bool
	stashPage int

	// FetchErr, when set, is returned by the next SnapshotEntities call.
	FetchErr error

	refreshes uint64
	issued    uint64
}

func New(cfg Config, opts ...Option) *World {
	if cfg.Speed <= 0 {
		cfg.Speed = DefaultConfig().Speed
	}
	if cfg.StashPages <= 0 {
		cfg.StashPages = DefaultConfig().StashPages
	}
	if cfg.PlayerID == 0 {
		cfg.PlayerID = DefaultConfig().PlayerID
	}
	w := &World{
		cfg:      cfg,
		log:      logrus.StandardLogger(),
		areas:    make(map[world.SNO]*Area),
		nextItem: 10000,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.player = world.RawEntity{
		ID:    cfg.PlayerID,
		Type:  world.TypePlayer,
		Name:  "player",
		Valid: true,
		Attributes: world.Attributes{
			world.AttrHitpoints: 100,
		},
	}
	return w
}

// AddArea registers an area. Re-adding an SNO replaces it.
func (w *World) AddArea(a Area) {
	w.areas[a.SNO] = &a
}

// AddPortal registers a portal.
func (w *World) AddPortal(p Portal) {
	w.portals = append(w.portals, p)
}

// AddItem gives the character an item. Its actor id is assigned here and
// returned.
func (w *World) AddItem(item world.RawEntity) world.ActorID {
	w.nextItem++
	item.ID = w.nextItem
	item.Type = world.TypeItem
	item.Valid = true
	w.items = append(w.items, item.Clone())
	return item.ID
}

// Start begins a new session with the player at the spawn of area.
func (w *World) Start(area world.SNO) error {
	a, ok := w.areas[area]
	if !ok {
		return fmt.Errorf("start in area %d: %w", area, ErrUnknownActor)
	}
	w.session++
	w.active = true
	w.enter(a, a.Spawn)
	w.log.WithFields(logrus.Fields{"session": w.session, "area": area}).Info("simulation started")
	return nil
}

// Stop ends the session.
func (w *World) Stop() {
	w.active = false
	w.moving = false
}

func (w *World) enter(a *Area, at world.Vector3) {
	w.current = a.SNO
	w.dynamicID++
	w.player.Position = at
	w.moving = false
	w.stashOpen = false
	w.stashPage = 0
}

// Refresh advances the simulation by one step.
func (w *World) Refresh() error {
	if !w.active {
		return nil
	}
	w.refreshes++
	if !w.moving {
		return nil
	}

	w.player.Position = w.player.Position.MoveTowards(w.target, w.cfg.Speed)
	if w.player.Position == w.target {
		w.moving = false
	}
	if w.stashOpen {
		if g, ok := w.stashGizmo(); !ok || w.player.Position.Distance(g.Position) > interactRange(g) {
			w.stashOpen = false
		}
	}
	return nil
}

func (w *World) IsSessionActive() bool             { return w.active }
func (w *World) CurrentSessionID() world.SessionID { return w.session }
func (w *World) ActivePlayerID() world.ActorID     { return w.player.ID }

func (w *World) CurrentWorld() world.WorldInfo {
	info := world.WorldInfo{
		SNO:        w.current,
		DynamicID:  w.dynamicID,
		StashOpen:  w.stashOpen,
		StashPage:  w.stashPage,
		StashPages: w.cfg.StashPages,
	}
	if a, ok := w.areas[w.current]; ok {
		info.LevelAreaSNO = a.LevelArea
		info.InTown = a.InTown
	}
	return info
}

func (w *World) SnapshotEntities() ([]world.RawEntity, error) {
	if err := w.FetchErr; err != nil {
		w.FetchErr = nil
		return nil, err
	}
	if !w.active {
		return nil, ErrNoSession
	}

	out := []world.RawEntity{w.player.Clone()}
	for _, e := range w.visible() {
		out = append(out, e.Clone())
	}
	for _, item := range w.items {
		out = append(out, item.Clone())
	}
	return out, nil
}

// visible returns the area actors and portals of the current area.
func (w *World) visible() []world.RawEntity {
	var out []world.RawEntity
	if a, ok := w.areas[w.current]; ok {
		out = append(out, a.Actors...)
	}
	for _, p := range w.portals {
		if p.From == w.current {
			out = append(out, p.raw())
		}
	}
	return out
}

func (w *World) IssueMove(pos world.Vector3) error {
	if !w.active {
		return ErrNoSession
	}
	w.issued++
	w.target = pos
	w.moving = true
	return nil
}

func (w *World) IssueInteract(id world.ActorID) error {
	if !w.active {
		return ErrNoSession
	}
	w.issued++

	if i := slices.IndexFunc(w.portals, func(p Portal) bool { return p.ID == id && p.From == w.current }); i >= 0 {
		p := w.portals[i]
		if d := w.player.Position.Distance(p.Position); d > interactRange(p.raw()) {
			return fmt.Errorf("portal %d at %.1f: %w", id, d, ErrOutOfRange)
		}
		dest, ok := w.areas[p.To]
		if !ok {
			return fmt.Errorf("portal %d leads to area %d: %w", id, p.To, ErrUnknownActor)
		}
		w.log.WithFields(logrus.Fields{"from": w.current, "to": p.To}).Debug("player took portal")
		w.enter(dest, p.Arrival)
		return nil
	}

	for _, e := range w.visible() {
		if e.ID != id {
			continue
		}
		if d := w.player.Position.Distance(e.Position); d > interactRange(e) {
			return fmt.Errorf("actor %d at %.1f: %w", id, d, ErrOutOfRange)
		}
		if e.Attributes.Bool(world.AttrStash) {
			w.stashOpen = true
		}
		return nil
	}
	return fmt.Errorf("interact with %d: %w", id, ErrUnknownActor)
}

// IssueMoveItem moves an item by AnnID. Stash rows are absolute and must be
// on the open page. A stackable item dropped on a stack of the same kind
// merges into it.
func (w *World) IssueMoveItem(ann world.AnnID, dest world.InventorySlot, column, row int) error {
	if !w.active {
		return ErrNoSession
	}
	w.issued++

	src := slices.IndexFunc(w.items, func(e world.RawEntity) bool { return e.AnnID == ann })
	if src < 0 {
		return fmt.Errorf("move item %d: %w", ann, ErrUnknownActor)
	}
	if dest == world.SlotStash || w.items[src].Placement.Slot == world.SlotStash {
		if !w.stashOpen {
			return ErrStashClosed
		}
	}

	item := w.items[src]
	if dest == world.SlotStash {
		if stash.PageOf(row) != w.stashPage {
			return fmt.Errorf("row %d with page %d open: %w", row, w.stashPage, ErrWrongPage)
		}
		if merged, err := w.mergeInto(item, column, row); merged || err != nil {
			if err == nil {
				w.items = slices.Delete(w.items, src, src+1)
			}
			return err
		}
		if !w.fits(item, column, row) {
			return fmt.Errorf("cell (%d, %d): %w", column, row, ErrCellTaken)
		}
	}

	w.items[src].Placement = world.ItemPlacement{Slot: dest, Column: column, Row: row}
	return nil
}

// mergeInto stacks item onto the stash item at (column, row) if they merge.
func (w *World) mergeInto(item world.RawEntity, column, row int) (bool, error) {
	i := slices.IndexFunc(w.items, func(e world.RawEntity) bool {
		return e.AnnID != item.AnnID && e.Placement == world.ItemPlacement{Slot: world.SlotStash, Column: column, Row: row}
	})
	if i < 0 {
		return false, nil
	}
	target := w.items[i]
	maxStack := target.Attributes.Int(world.AttrMaxStack)
	if target.SNO != item.SNO || maxStack <= 0 {
		return false, fmt.Errorf("cell (%d, %d): %w", column, row, ErrCellTaken)
	}
	total := target.Attributes.Int(world.AttrStackQuantity) + item.Attributes.Int(world.AttrStackQuantity)
	if total > maxStack {
		return false, fmt.Errorf("stack of %d over %d: %w", total, maxStack, ErrCellTaken)
	}
	w.items[i].Attributes[world.AttrStackQuantity] = float64(total)
	return true, nil
}

func (w *World) fits(item world.RawEntity, column, row int) bool {
	if column < 0 || column >= stash.Columns || row < 0 || row >= w.cfg.StashPages*stash.RowsPerPage {
		return false
	}
	var entries []stash.Entry
	for _, e := range w.items {
		if e.AnnID != item.AnnID && e.Placement.Slot == world.SlotStash {
			entries = append(entries, stash.FromRaw(e))
		}
	}
	grid := stash.NewGrid(entries...)
	if grid.Covered(column, row) {
		return false
	}
	if item.Attributes.Bool(world.AttrTwoSquare) {
		below := row + 1
		return below%stash.RowsPerPage != 0 && !grid.Occupied(column, below)
	}
	return true
}

func (w *World) IssueSwitchStashPage(page int) error {
	if !w.active {
		return ErrNoSession
	}
	w.issued++
	if !w.stashOpen {
		return ErrStashClosed
	}
	if page < 0 || page >= w.cfg.StashPages {
		return fmt.Errorf("page %d of %d: %w", page, w.cfg.StashPages, ErrWrongPage)
	}
	w.stashPage = page
	return nil
}

// Items returns copies of the character's items.
func (w *World) Items() []world.RawEntity {
	out := make([]world.RawEntity, len(w.items))
	for i, e := range w.items {
		out[i] = e.Clone()
	}
	return out
}

// Player returns a copy of the player record.
func (w *World) Player() world.RawEntity {
	return w.player.Clone()
}

// Stats is a summary for reports.
type Stats struct {
	Session   world.SessionID
	World     world.WorldInfo
	Refreshes uint64
	Commands  uint64
	Items     int
}

func (w *World) Stats() Stats {
	return Stats{
		Session:   w.session,
		World:     w.CurrentWorld(),
		Refreshes: w.refreshes,
		Commands:  w.issued,
		Items:     len(w.items),
	}
}

func (w *World) stashGizmo() (world.RawEntity, bool) {
	for _, e := range w.visible() {
		if e.Attributes.Bool(world.AttrStash) {
			return e, true
		}
	}
	return world.RawEntity{}, false
}

func interactRange(e world.RawEntity) float64 {
	if r := e.Attributes.Get(world.AttrInteractRange); r > 0 {
		return r
	}
	return 5
}
