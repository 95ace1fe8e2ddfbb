// Package coroutine holds the resumable multi-tick tasks of the core. A task
// is stepped once per tick by the Coordinator, reads the actor cache as
// ground truth and emits at most one action per step.
package coroutine

import (
	"github.com/google/uuid"

	"github.com/plus3/pulse/tick"
	"github.com/plus3/pulse/world"
)

// Task is a resumable procedure advanced one step per tick.
type Task interface {
	ID() uuid.UUID
	Name() string
	// State names the current state for logs and events.
	State() string
	// Step advances the task and reports whether it is done.
	Step(tc *tick.Context) bool
	IsDone() bool
	// Reset returns the task to its initial state so it can run again.
	Reset()
}

// Action is the externally observable effect of a single step. The zero
// Action does nothing.
type Action world.Command

// NoAction is the explicit form of the zero Action.
var NoAction = Action{}

func MoveAction(pos world.Vector3) Action {
	return Action{Kind: world.CommandMove, Position: pos}
}

func InteractAction(id world.ActorID) Action {
	return Action{Kind: world.CommandInteract, Target: id}
}

func MoveItemAction(ann world.AnnID, dest world.InventorySlot, column, row int) Action {
	return Action{Kind: world.CommandMoveItem, AnnID: ann, Slot: dest, Column: column, Row: row}
}

func SwitchStashPageAction(page int) Action {
	return Action{Kind: world.CommandSwitchStashPage, Page: page}
}

func (a Action) IsNone() bool {
	return a.Kind == 0
}

// Emit queues the action on cmds. The zero Action queues nothing.
func (a Action) Emit(cmds *tick.Commands) {
	switch a.Kind {
	case world.CommandMove:
		cmds.Move(a.Position)
	case world.CommandInteract:
		cmds.Interact(a.Target)
	case world.CommandMoveItem:
		cmds.MoveItem(a.AnnID, a.Slot, a.Column, a.Row)
	case world.CommandSwitchStashPage:
		cmds.SwitchStashPage(a.Page)
	}
}

func (a Action) String() string {
	if a.IsNone() {
		return "none"
	}
	return a.Kind.String()
}
