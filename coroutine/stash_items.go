package coroutine

import (
	"time"

	"github.com/google/uuid"
	"github.com/kamstrup/intmap"
	"github.com/sirupsen/logrus"

	"github.com/plus3/pulse/actors"
	"github.com/plus3/pulse/events"
	"github.com/plus3/pulse/stash"
	"github.com/plus3/pulse/tick"
	"github.com/plus3/pulse/world"
)

// StashItemsState is the state of a StashItems task.
type StashItemsState uint8

const (
	StashNotStarted StashItemsState = iota
	StashMovingToStash
	StashOpening
	StashConsolidating
	StashStashing
	StashCompleted
	StashFailed
)

func (s StashItemsState) String() string {
	switch s {
	case StashNotStarted:
		return "NotStarted"
	case StashMovingToStash:
		return "MovingToStash"
	case StashOpening:
		return "Opening"
	case StashConsolidating:
		return "Consolidating"
	case StashStashing:
		return "Stashing"
	case StashCompleted:
		return "Completed"
	case StashFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// StashItemsConfig tunes a StashItems task.
type StashItemsConfig struct {
	// StashSNO selects the stash gizmo; 0 takes any gizmo flagged as a stash.
	StashSNO world.SNO `yaml:"stash_sno" env:"STASH_SNO"`
	// OpenInterval spaces out interactions while the stash opens.
	OpenInterval time.Duration `yaml:"open_interval" env:"OPEN_INTERVAL"`
	// Consolidate merges partial stacks already in the stash first.
	Consolidate bool `yaml:"consolidate" env:"CONSOLIDATE"`
	// Timeout fails the task once exceeded; 0 disables it.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// StashItems walks to the stash, opens it and files every backpack item the
// filter accepts, one move per tick.
type StashItems struct {
	id      uuid.UUID
	cfg     StashItemsConfig
	nav     Navigator
	planner *stash.Planner
	filter  *StashFilter

	state        StashItemsState
	deadline     time.Time
	stashID      world.ActorID
	lastInteract time.Time
	moves        []stash.Move
	planned      bool
	attempted    *intmap.Set[world.AnnID]
	full         bool
	stashed      int
	done         bool
}

func NewStashItems(cfg StashItemsConfig, nav Navigator, planner *stash.Planner, filter *StashFilter) *StashItems {
	if cfg.OpenInterval <= 0 {
		cfg.OpenInterval = time.Second
	}
	if filter == nil {
		filter = NewStashFilter(nil)
	}
	return &StashItems{
		id:        uuid.New(),
		cfg:       cfg,
		nav:       nav,
		planner:   planner,
		filter:    filter,
		attempted: intmap.NewSet[world.AnnID](32),
	}
}

func (t *StashItems) ID() uuid.UUID            { return t.id }
func (t *StashItems) Name() string             { return "StashItems" }
func (t *StashItems) State() string            { return t.state.String() }
func (t *StashItems) Current() StashItemsState { return t.state }
func (t *StashItems) IsDone() bool             { return t.done }

// Full reports whether some item found no place in the stash.
func (t *StashItems) Full() bool { return t.full }

// Stashed counts the items moved into the stash.
func (t *StashItems) Stashed() int { return t.stashed }

func (t *StashItems) Step(tc *tick.Context) bool {
	prev := t.state
	action := t.step(tc)
	action.Emit(tc.Commands)

	if t.state != prev {
		tc.Log.WithFields(logrus.Fields{
			"task": t.id,
			"from": prev,
			"to":   t.state,
		}).Info("stash items")
	}
	return t.done
}

func (t *StashItems) step(tc *tick.Context) Action {
	if t.state != StashFailed && !t.deadline.IsZero() && tc.Now.After(t.deadline) {
		tc.Log.WithField("timeout", t.cfg.Timeout).Warn("stashing timed out")
		t.state = StashFailed
	}

	// An empty backpack means nothing until the cache is rebuilt.
	if tc.Actors.Invalidated() && t.state != StashCompleted && t.state != StashFailed {
		return NoAction
	}

	switch t.state {
	case StashNotStarted:
		if !tc.World.InTown {
			tc.Log.Debug("need to be in town to stash items")
			return t.finish(StashFailed)
		}
		if t.cfg.Timeout > 0 {
			t.deadline = tc.Now.Add(t.cfg.Timeout)
		}
		if len(t.candidates(tc)) == 0 {
			tc.Log.Debug("nothing to stash")
			return t.finish(StashCompleted)
		}
		t.nav.Reset()
		t.state = StashMovingToStash
		return t.moveToStash(tc)
	case StashMovingToStash:
		return t.moveToStash(tc)
	case StashOpening:
		return t.open(tc)
	case StashConsolidating:
		return t.consolidate(tc)
	case StashStashing:
		return t.stashNext(tc)
	case StashCompleted, StashFailed:
		return t.finish(t.state)
	}
	return NoAction
}

func (t *StashItems) finish(state StashItemsState) Action {
	t.state = state
	t.done = true
	return NoAction
}

func (t *StashItems) candidates(tc *tick.Context) []*actors.Item {
	var out []*actors.Item
	for _, item := range tc.Inventory.Backpack() {
		if t.attempted.Has(item.AnnID()) {
			continue
		}
		if t.filter.ShouldStash(item) {
			out = append(out, item)
		}
	}
	return out
}

func (t *StashItems) opened() StashItemsState {
	if t.cfg.Consolidate && !t.planned {
		return StashConsolidating
	}
	return StashStashing
}

func (t *StashItems) moveToStash(tc *tick.Context) Action {
	if tc.World.StashOpen {
		t.state = t.opened()
		return NoAction
	}

	gizmo, ok := FindStash(tc, t.cfg.StashSNO)
	if !ok {
		tc.Log.Warn("no stash in sight")
		return t.finish(StashFailed)
	}

	result, action := t.nav.MoveTo(tc, gizmo.Position(), gizmo.InteractRange())
	switch result {
	case NavMoving:
		return action
	case NavFailed:
		tc.Log.WithField("stash", gizmo.ActorID()).Warn("failed to reach the stash")
		return t.finish(StashFailed)
	}

	t.stashID = gizmo.ActorID()
	t.state = StashOpening
	return t.open(tc)
}

func (t *StashItems) open(tc *tick.Context) Action {
	if tc.World.StashOpen {
		t.state = t.opened()
		return NoAction
	}

	gizmo, ok := tc.Actors.ByID(t.stashID)
	if !ok || !gizmo.IsValid() {
		t.nav.Reset()
		t.state = StashMovingToStash
		return NoAction
	}
	if g, isGizmo := gizmo.(*actors.Gizmo); isGizmo && tc.PlayerPosition().Distance(g.Position()) > g.InteractRange() {
		t.nav.Reset()
		t.state = StashMovingToStash
		return NoAction
	}

	if !t.lastInteract.IsZero() && tc.Now.Sub(t.lastInteract) < t.cfg.OpenInterval {
		return NoAction
	}
	t.lastInteract = tc.Now
	return InteractAction(t.stashID)
}

func (t *StashItems) consolidate(tc *tick.Context) Action {
	if !tc.World.StashOpen {
		t.state = StashOpening
		return NoAction
	}

	if !t.planned {
		t.planner.SetPages(tc.World.StashPages)
		t.moves = t.planner.PlanConsolidation(stash.GridFromItems(tc.Inventory.Stash()))
		t.planned = true
		if len(t.moves) > 0 {
			tc.Log.WithField("moves", len(t.moves)).Debug("consolidating stash stacks")
		}
	}

	for len(t.moves) > 0 {
		move := t.moves[0]
		t.moves = t.moves[1:]
		if !tc.Actors.IsAnnIDValid(move.AnnID) {
			continue
		}
		return MoveItemAction(move.AnnID, world.SlotStash, move.To.Column, move.To.Row)
	}

	t.state = StashStashing
	return t.stashNext(tc)
}

func (t *StashItems) stashNext(tc *tick.Context) Action {
	if !tc.World.StashOpen {
		t.state = StashOpening
		return NoAction
	}

	t.planner.SetPages(tc.World.StashPages)
	grid := stash.GridFromItems(tc.Inventory.Stash())

	for _, item := range t.candidates(tc) {
		placement := t.planner.Place(stash.FromItem(item), grid)
		if !placement.Found() {
			t.attempted.Add(item.AnnID())
			tc.Log.WithFields(logrus.Fields{
				"item": item.Name(),
				"ann":  item.AnnID(),
			}).Warn("no place to put item, stash is full")
			if !t.full {
				t.full = true
				tc.Publish(events.Event{Type: events.StashFull, AnnID: item.AnnID(), Task: t.Name()})
			}
			continue
		}

		if placement.Page != tc.World.StashPage {
			tc.Log.WithField("page", placement.Page).Debug("changing stash page")
			return SwitchStashPageAction(placement.Page)
		}

		t.attempted.Add(item.AnnID())
		t.stashed++
		tc.Log.WithFields(logrus.Fields{
			"item":   item.Name(),
			"ann":    item.AnnID(),
			"page":   placement.Page,
			"column": placement.Column,
			"row":    placement.Row,
			"stack":  placement.Stack,
		}).Debug("stashing item")
		tc.Publish(events.Event{
			Type:    events.ItemStashed,
			ActorID: item.ActorID(),
			AnnID:   item.AnnID(),
			Kind:    world.TypeItem,
			Task:    t.Name(),
			Location: &events.Location{
				Slot:   world.SlotStash,
				Page:   placement.Page,
				Column: placement.Column,
				Row:    placement.Row,
			},
		})
		return MoveItemAction(item.AnnID(), world.SlotStash, placement.Column, placement.Row)
	}

	return t.finish(StashCompleted)
}

// Reset prepares the task for another run. Remembered stash decisions are
// kept; they belong to the filter.
func (t *StashItems) Reset() {
	t.state = StashNotStarted
	t.deadline = time.Time{}
	t.stashID = 0
	t.lastInteract = time.Time{}
	t.moves = nil
	t.planned = false
	t.attempted.Clear()
	t.full = false
	t.stashed = 0
	t.done = false
	t.nav.Reset()
}
