package coroutine

import (
	"time"

	"github.com/plus3/pulse/tick"
	"github.com/plus3/pulse/world"
)

// PortalInteractor clicks a portal every Interval until the world instance
// changes, and fails after Timeout or when the portal disappears.
type PortalInteractor struct {
	Interval time.Duration
	Timeout  time.Duration

	started      time.Time
	lastInteract time.Time
}

func NewPortalInteractor() *PortalInteractor {
	return &PortalInteractor{
		Interval: time.Second,
		Timeout:  10 * time.Second,
	}
}

func (p *PortalInteractor) UsePortal(tc *tick.Context, portal world.ActorID, fromDynamicID int32) (PortalResult, Action) {
	if tc.World.DynamicID != fromDynamicID {
		p.Reset()
		return PortalSucceeded, NoAction
	}

	if p.started.IsZero() {
		p.started = tc.Now
	}
	if tc.Now.Sub(p.started) > p.Timeout {
		tc.Log.WithField("portal", portal).Debug("portal use timed out")
		p.Reset()
		return PortalFailed, NoAction
	}
	if !tc.Actors.IsIDValid(portal) {
		p.Reset()
		return PortalFailed, NoAction
	}

	if !p.lastInteract.IsZero() && tc.Now.Sub(p.lastInteract) < p.Interval {
		return PortalInProgress, NoAction
	}
	p.lastInteract = tc.Now
	return PortalInProgress, InteractAction(portal)
}

func (p *PortalInteractor) Reset() {
	p.started = time.Time{}
	p.lastInteract = time.Time{}
}
