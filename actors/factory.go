package actors

import "github.com/plus3/pulse/world"

// NewActor builds the wrapper for raw's type. The caller runs OnCreated.
func NewActor(raw world.RawEntity) Actor {
	switch raw.Type {
	case world.TypePlayer:
		return &Player{}
	case world.TypeMonster:
		return &Monster{}
	case world.TypeItem:
		return &Item{}
	case world.TypeGizmo:
		return &Gizmo{}
	case world.TypeMarker:
		return &Marker{}
	default:
		return &Other{}
	}
}
