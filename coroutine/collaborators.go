package coroutine

import (
	"github.com/plus3/pulse/tick"
	"github.com/plus3/pulse/world"
)

// NavResult is the outcome of one navigation step.
type NavResult uint8

const (
	NavMoving NavResult = iota
	NavArrived
	NavFailed
)

func (r NavResult) String() string {
	switch r {
	case NavArrived:
		return "arrived"
	case NavFailed:
		return "failed"
	default:
		return "moving"
	}
}

// Navigator moves the active player towards a destination over many ticks.
type Navigator interface {
	// MoveTo returns NavArrived once the player is within the given
	// distance of dest and NavFailed when no further progress is possible.
	MoveTo(tc *tick.Context, dest world.Vector3, within float64) (NavResult, Action)
	Reset()
}

// Explorer wanders the current world when nothing better is known.
type Explorer interface {
	Explore(tc *tick.Context) Action
	Reset()
}

// PortalResult is the outcome of one portal use step.
type PortalResult uint8

const (
	PortalInProgress PortalResult = iota
	PortalSucceeded
	PortalFailed
)

func (r PortalResult) String() string {
	switch r {
	case PortalSucceeded:
		return "succeeded"
	case PortalFailed:
		return "failed"
	default:
		return "in progress"
	}
}

// PortalUser interacts with a portal until the world instance changes.
type PortalUser interface {
	UsePortal(tc *tick.Context, portal world.ActorID, fromDynamicID int32) (PortalResult, Action)
	Reset()
}

// MarkerScanner locates objective markers.
type MarkerScanner interface {
	// FindMarker returns the position of the nearest marker with the given
	// hash within radius of the player.
	FindMarker(tc *tick.Context, hash world.SNO, radius float64) (world.Vector3, bool)
}

// Collaborators bundles the primitives tasks delegate to.
type Collaborators struct {
	Navigator Navigator
	Explorer  Explorer
	Portals   PortalUser
	Scanner   MarkerScanner
}

// DefaultCollaborators returns the cache-backed implementations.
func DefaultCollaborators(waypoints ...world.Vector3) Collaborators {
	return Collaborators{
		Navigator: NewStraightNavigator(),
		Explorer:  NewWaypointExplorer(waypoints...),
		Portals:   NewPortalInteractor(),
		Scanner:   CacheScanner{},
	}
}

func (c Collaborators) reset() {
	if c.Navigator != nil {
		c.Navigator.Reset()
	}
	if c.Explorer != nil {
		c.Explorer.Reset()
	}
	if c.Portals != nil {
		c.Portals.Reset()
	}
}
