package coroutine

import (
	"github.com/kamstrup/intmap"

	"github.com/plus3/pulse/actors"
	"github.com/plus3/pulse/events"
	"github.com/plus3/pulse/world"
)

// StashFilter decides which backpack items go to the stash. Decisions are
// remembered per AnnID until the world changes; unidentified items are
// always stashed.
type StashFilter struct {
	decide    func(*actors.Item) bool
	decisions *intmap.Map[world.AnnID, bool]
}

// NewStashFilter wraps decide. A nil decide stashes everything.
func NewStashFilter(decide func(*actors.Item) bool) *StashFilter {
	if decide == nil {
		decide = func(*actors.Item) bool { return true }
	}
	return &StashFilter{
		decide:    decide,
		decisions: intmap.New[world.AnnID, bool](64),
	}
}

func (f *StashFilter) ShouldStash(item *actors.Item) bool {
	if item.IsUnidentified() {
		return true
	}
	if decision, ok := f.decisions.Get(item.AnnID()); ok {
		return decision
	}
	decision := f.decide(item)
	f.decisions.Put(item.AnnID(), decision)
	return decision
}

// Clear forgets every remembered decision.
func (f *StashFilter) Clear() {
	f.decisions.Clear()
}

func (f *StashFilter) Len() int {
	return f.decisions.Len()
}

// HandleEvent clears the decisions on WorldChanged.
func (f *StashFilter) HandleEvent(e events.Event) {
	if e.Type == events.WorldChanged {
		f.Clear()
	}
}

// Subscribe attaches the filter to bus.
func (f *StashFilter) Subscribe(bus *events.Bus) events.Subscription {
	return bus.Subscribe(f.HandleEvent, events.WorldChanged)
}
