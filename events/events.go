// Package events carries the notifications the core emits while it mirrors
// the world and runs tasks. Delivery is synchronous and in-process; there is
// no queueing and no delivery guarantee beyond the call returning.
package events

import (
	"time"

	"github.com/plus3/pulse/world"
)

type Type string

const (
	EntityCreated   Type = "entity_created"
	EntityUpdated   Type = "entity_updated"
	EntityDestroyed Type = "entity_destroyed"
	ItemStashed     Type = "item_stashed"
	StashFull       Type = "stash_full"
	WorldChanged    Type = "world_changed"
	TaskState       Type = "task_state"
)

// Event is a single notification. Only the fields relevant to Type are set.
type Event struct {
	Type     Type            `json:"type"`
	Frame    uint64          `json:"frame"`
	Time     time.Time       `json:"time"`
	ActorID  world.ActorID   `json:"actorId,omitempty"`
	AnnID    world.AnnID     `json:"annId,omitempty"`
	Kind     world.ActorType `json:"kind,omitempty"`
	World    world.WorldInfo `json:"world"`
	Task     string          `json:"task,omitempty"`
	State    string          `json:"state,omitempty"`
	Location *Location       `json:"location,omitempty"`
}

// Location is where an item was sent.
type Location struct {
	Slot   world.InventorySlot `json:"slot"`
	Page   int                 `json:"page"`
	Column int                 `json:"column"`
	Row    int                 `json:"row"`
}

type Publisher interface {
	Publish(event Event)
}

type PublisherFunc func(event Event)

func (f PublisherFunc) Publish(event Event) {
	if f == nil {
		return
	}
	f(event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}

// Nop returns a publisher that drops everything.
func Nop() Publisher {
	return nopPublisher{}
}
