package world

import "errors"

// ErrSnapshotUnavailable is returned by Memory when a fetch failure is staged.
var ErrSnapshotUnavailable = errors.New("world: snapshot unavailable")

// CommandKind identifies an issued command.
type CommandKind uint8

const (
	CommandMove CommandKind = iota + 1
	CommandInteract
	CommandMoveItem
	CommandSwitchStashPage
)

func (k CommandKind) String() string {
	switch k {
	case CommandMove:
		return "move"
	case CommandInteract:
		return "interact"
	case CommandMoveItem:
		return "move item"
	case CommandSwitchStashPage:
		return "switch stash page"
	default:
		return "unknown"
	}
}

// Command is the recorded form of one Commander call.
type Command struct {
	Kind     CommandKind   `json:"kind"`
	Position Vector3       `json:"position,omitzero"`
	Target   ActorID       `json:"target,omitempty"`
	AnnID    AnnID         `json:"annId,omitempty"`
	Slot     InventorySlot `json:"slot,omitempty"`
	Column   int           `json:"column,omitempty"`
	Row      int           `json:"row,omitempty"`
	Page     int           `json:"page,omitempty"`
}

// Memory is a Source backed by plain fields. Tests stage snapshots on it and
// inspect the commands the core issued.
type Memory struct {
	Active   bool
	Session  SessionID
	World    WorldInfo
	PlayerID ActorID
	Entities []RawEntity
	FetchErr error

	Commands []Command
}

// NewMemory creates an active in-memory source for the given session.
func NewMemory(session SessionID) *Memory {
	return &Memory{Active: true, Session: session}
}

func (m *Memory) IsSessionActive() bool       { return m.Active }
func (m *Memory) CurrentSessionID() SessionID { return m.Session }
func (m *Memory) CurrentWorld() WorldInfo     { return m.World }
func (m *Memory) ActivePlayerID() ActorID     { return m.PlayerID }

// SnapshotEntities returns copies of the staged entities.
func (m *Memory) SnapshotEntities() ([]RawEntity, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	out := make([]RawEntity, len(m.Entities))
	for i, e := range m.Entities {
		out[i] = e.Clone()
	}
	return out, nil
}

// Set replaces the staged snapshot.
func (m *Memory) Set(entities ...RawEntity) {
	m.Entities = entities
}

// Upsert replaces the entity with the same id or appends it.
func (m *Memory) Upsert(e RawEntity) {
	for i := range m.Entities {
		if m.Entities[i].ID == e.ID {
			m.Entities[i] = e
			return
		}
	}
	m.Entities = append(m.Entities, e)
}

// Remove drops the entity with the given id if staged.
func (m *Memory) Remove(id ActorID) {
	for i := range m.Entities {
		if m.Entities[i].ID == id {
			m.Entities = append(m.Entities[:i], m.Entities[i+1:]...)
			return
		}
	}
}

// LastCommand returns the most recent command, if any.
func (m *Memory) LastCommand() (Command, bool) {
	if len(m.Commands) == 0 {
		return Command{}, false
	}
	return m.Commands[len(m.Commands)-1], true
}

func (m *Memory) IssueMove(pos Vector3) error {
	m.Commands = append(m.Commands, Command{Kind: CommandMove, Position: pos})
	return nil
}

func (m *Memory) IssueInteract(id ActorID) error {
	m.Commands = append(m.Commands, Command{Kind: CommandInteract, Target: id})
	return nil
}

func (m *Memory) IssueMoveItem(ann AnnID, dest InventorySlot, column, row int) error {
	m.Commands = append(m.Commands, Command{Kind: CommandMoveItem, AnnID: ann, Slot: dest, Column: column, Row: row})
	return nil
}

func (m *Memory) IssueSwitchStashPage(page int) error {
	m.Commands = append(m.Commands, Command{Kind: CommandSwitchStashPage, Page: page})
	return nil
}
