package tick_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/pulse/tick"
	"github.com/plus3/pulse/world"
)

var errBlocked = errors.New("blocked")

type failingMoves struct {
	*world.Memory
}

func (f failingMoves) IssueMove(world.Vector3) error {
	return errBlocked
}

func TestCommandsFlush(t *testing.T) {
	t.Run("issues in queue order", func(t *testing.T) {
		dst := world.NewMemory(1)
		cmds := tick.NewCommands()

		cmds.Move(world.Vector3{X: 1})
		cmds.Interact(42)
		cmds.SwitchStashPage(3)
		cmds.MoveItem(7, world.SlotStash, 2, 14)
		require.Equal(t, 4, cmds.Len())

		require.NoError(t, cmds.Flush(dst))
		require.Len(t, dst.Commands, 4)

		assert.Equal(t, world.CommandMove, dst.Commands[0].Kind)
		assert.Equal(t, world.ActorID(42), dst.Commands[1].Target)
		assert.Equal(t, 3, dst.Commands[2].Page)
		assert.Equal(t, world.Command{
			Kind:   world.CommandMoveItem,
			AnnID:  7,
			Slot:   world.SlotStash,
			Column: 2,
			Row:    14,
		}, dst.Commands[3])
		assert.Equal(t, 0, cmds.Len())
	})

	t.Run("errors are joined and do not stop later commands", func(t *testing.T) {
		mem := world.NewMemory(1)
		cmds := tick.NewCommands()

		cmds.Move(world.Vector3{})
		cmds.Interact(1)
		cmds.Move(world.Vector3{})

		err := cmds.Flush(failingMoves{mem})
		require.Error(t, err)
		assert.ErrorIs(t, err, errBlocked)
		assert.Len(t, mem.Commands, 1)
	})

	t.Run("defers run after commands", func(t *testing.T) {
		dst := world.NewMemory(1)
		cmds := tick.NewCommands()

		var seen int
		cmds.Interact(5)
		cmds.Defer(func() { seen = len(dst.Commands) })

		require.NoError(t, cmds.Flush(dst))
		assert.Equal(t, 1, seen)

		seen = -1
		require.NoError(t, cmds.Flush(dst))
		assert.Equal(t, -1, seen)
	})
}
