// Package world defines the contract between the core and the external game
// client it mirrors. Everything crossing this boundary is a value copy.
package world

// Source is the pull-based view of the external game client.
// Implementations are synchronous and must not block for long.
type Source interface {
	IsSessionActive() bool
	CurrentSessionID() SessionID
	CurrentWorld() WorldInfo
	ActivePlayerID() ActorID
	SnapshotEntities() ([]RawEntity, error)
	Commander
}

// Commander receives the actions emitted by tasks.
type Commander interface {
	IssueMove(pos Vector3) error
	IssueInteract(id ActorID) error
	IssueMoveItem(ann AnnID, dest InventorySlot, column, row int) error
	IssueSwitchStashPage(page int) error
}

// Refresher is implemented by sources that need an explicit per-tick refresh
// before they can be read.
type Refresher interface {
	Refresh() error
}
