package tick

import (
	"errors"
	"fmt"

	"github.com/plus3/pulse/world"
)

// Commands buffers the actions systems emit during a tick. They reach the
// world source only when the scheduler flushes the buffer after every system
// ran, so nothing observes a half-applied tick.
type Commands struct {
	pending []world.Command
	defers  []func()
}

func NewCommands() *Commands {
	return &Commands{}
}

// Move queues a move of the active player towards pos.
func (c *Commands) Move(pos world.Vector3) {
	c.pending = append(c.pending, world.Command{Kind: world.CommandMove, Position: pos})
}

// Interact queues an interaction with the actor id.
func (c *Commands) Interact(id world.ActorID) {
	c.pending = append(c.pending, world.Command{Kind: world.CommandInteract, Target: id})
}

// MoveItem queues moving an item into a container cell.
func (c *Commands) MoveItem(ann world.AnnID, dest world.InventorySlot, column, row int) {
	c.pending = append(c.pending, world.Command{
		Kind:   world.CommandMoveItem,
		AnnID:  ann,
		Slot:   dest,
		Column: column,
		Row:    row,
	})
}

// SwitchStashPage queues a stash page change.
func (c *Commands) SwitchStashPage(page int) {
	c.pending = append(c.pending, world.Command{Kind: world.CommandSwitchStashPage, Page: page})
}

// Defer queues fn to run after the commands were issued.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Len is the number of queued world commands.
func (c *Commands) Len() int {
	return len(c.pending)
}

// Pending returns the queued commands in issue order.
func (c *Commands) Pending() []world.Command {
	return c.pending
}

// Flush issues every queued command to dst in order, runs deferred
// functions and resets the buffer. A failing command does not stop the
// others; all failures are returned joined.
func (c *Commands) Flush(dst world.Commander) error {
	var errs []error
	for _, cmd := range c.pending {
		if err := issue(dst, cmd); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", cmd.Kind, err))
		}
	}

	for _, fn := range c.defers {
		fn()
	}

	c.pending = c.pending[:0]
	c.defers = c.defers[:0]
	return errors.Join(errs...)
}

func issue(dst world.Commander, cmd world.Command) error {
	switch cmd.Kind {
	case world.CommandMove:
		return dst.IssueMove(cmd.Position)
	case world.CommandInteract:
		return dst.IssueInteract(cmd.Target)
	case world.CommandMoveItem:
		return dst.IssueMoveItem(cmd.AnnID, cmd.Slot, cmd.Column, cmd.Row)
	case world.CommandSwitchStashPage:
		return dst.IssueSwitchStashPage(cmd.Page)
	default:
		return fmt.Errorf("unknown command kind %d", cmd.Kind)
	}
}
