package coroutine

import (
	"github.com/plus3/pulse/actors"
	"github.com/plus3/pulse/tick"
	"github.com/plus3/pulse/world"
)

const (
	// portalNearRadius bounds how far a portal may sit from an objective
	// marker and still be taken as the marker's portal.
	portalNearRadius = 30.0

	// minSearchRadius is the floor LowerSearchRadius never goes below.
	minSearchRadius = 50.0
)

// LowerSearchRadius halves a scan radius, never below 50.
func LowerSearchRadius(radius float64) float64 {
	return max(radius/2, minSearchRadius)
}

// CacheScanner finds markers among the cached Marker actors.
type CacheScanner struct{}

func (CacheScanner) FindMarker(tc *tick.Context, hash world.SNO, radius float64) (world.Vector3, bool) {
	origin := tc.PlayerPosition()
	marker, ok := nearest(actors.OfType[*actors.Marker](tc.Actors), origin, func(m *actors.Marker) bool {
		return m.SNO() == hash && (radius <= 0 || m.Distance(origin) <= radius)
	})
	if !ok {
		return world.Vector3{}, false
	}
	return marker.Position(), true
}

// FindGizmo returns the valid gizmo with the given SNO nearest the player.
func FindGizmo(tc *tick.Context, sno world.SNO) (*actors.Gizmo, bool) {
	return nearest(actors.OfType[*actors.Gizmo](tc.Actors), tc.PlayerPosition(), func(g *actors.Gizmo) bool {
		return g.SNO() == sno
	})
}

// PortalNearPosition returns the portal closest to pos, if one is near it.
// Portals known to lead somewhere other than dest are skipped; a zero dest
// accepts any.
func PortalNearPosition(tc *tick.Context, pos world.Vector3, dest world.SNO) (*actors.Gizmo, bool) {
	return nearest(actors.OfType[*actors.Gizmo](tc.Actors), pos, func(g *actors.Gizmo) bool {
		return g.IsPortal() && g.Distance(pos) <= portalNearRadius && leadsTo(g, dest)
	})
}

// NearestPortal returns the portal closest to the player that may lead to
// dest.
func NearestPortal(tc *tick.Context, dest world.SNO) (*actors.Gizmo, bool) {
	return nearest(actors.OfType[*actors.Gizmo](tc.Actors), tc.PlayerPosition(), func(g *actors.Gizmo) bool {
		return g.IsPortal() && leadsTo(g, dest)
	})
}

// leadsTo is false only when both dest and the portal's destination are
// known and differ.
func leadsTo(g *actors.Gizmo, dest world.SNO) bool {
	to := g.Destination()
	return dest == 0 || to == 0 || to == dest
}

// FindStash returns the stash gizmo nearest the player. A zero sno matches
// any gizmo flagged as a stash.
func FindStash(tc *tick.Context, sno world.SNO) (*actors.Gizmo, bool) {
	return nearest(actors.OfType[*actors.Gizmo](tc.Actors), tc.PlayerPosition(), func(g *actors.Gizmo) bool {
		if sno != 0 {
			return g.SNO() == sno
		}
		return g.IsStash()
	})
}

type positioned interface {
	IsValid() bool
	Distance(world.Vector3) float64
}

func nearest[T positioned](candidates []T, origin world.Vector3, keep func(T) bool) (T, bool) {
	var (
		best  T
		bestD float64
		found bool
	)
	for _, c := range candidates {
		if !c.IsValid() || !keep(c) {
			continue
		}
		if d := c.Distance(origin); !found || d < bestD {
			best, bestD, found = c, d, true
		}
	}
	return best, found
}
