package coroutine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/plus3/pulse/tick"
	"github.com/plus3/pulse/world"
)

// StraightNavigator walks straight at the destination and gives up when the
// distance has not shrunk by MinProgress within StuckTimeout.
type StraightNavigator struct {
	StuckTimeout time.Duration
	MinProgress  float64

	active bool
	dest   world.Vector3
	best   float64
	bestAt time.Time
}

func NewStraightNavigator() *StraightNavigator {
	return &StraightNavigator{
		StuckTimeout: 3 * time.Second,
		MinProgress:  1,
	}
}

func (n *StraightNavigator) MoveTo(tc *tick.Context, dest world.Vector3, within float64) (NavResult, Action) {
	me := tc.Me()
	if me == nil {
		return NavMoving, NoAction
	}

	d := me.Position().Distance(dest)
	if !n.active || dest != n.dest {
		n.active = true
		n.dest = dest
		n.best = d
		n.bestAt = tc.Now
	}

	if d <= within {
		n.active = false
		return NavArrived, NoAction
	}

	if d < n.best-n.MinProgress {
		n.best = d
		n.bestAt = tc.Now
	} else if tc.Now.Sub(n.bestAt) > n.StuckTimeout {
		tc.Log.WithFields(logrus.Fields{
			"destination": dest,
			"distance":    d,
		}).Debug("navigation stuck")
		n.active = false
		return NavFailed, NoAction
	}

	return NavMoving, MoveAction(dest)
}

func (n *StraightNavigator) Reset() {
	n.active = false
}

// WaypointExplorer cycles through a fixed route.
type WaypointExplorer struct {
	Waypoints []world.Vector3
	// Reach is how close the player must get before the next waypoint.
	Reach float64

	next int
}

func NewWaypointExplorer(waypoints ...world.Vector3) *WaypointExplorer {
	return &WaypointExplorer{Waypoints: waypoints, Reach: 10}
}

func (e *WaypointExplorer) Explore(tc *tick.Context) Action {
	if len(e.Waypoints) == 0 {
		return NoAction
	}
	me := tc.Me()
	if me == nil {
		return NoAction
	}

	wp := e.Waypoints[e.next%len(e.Waypoints)]
	if me.Position().Distance(wp) <= e.Reach {
		e.next++
		wp = e.Waypoints[e.next%len(e.Waypoints)]
	}
	return MoveAction(wp)
}

func (e *WaypointExplorer) Reset() {
	e.next = 0
}
