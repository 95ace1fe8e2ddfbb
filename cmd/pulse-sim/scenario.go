package main

import (
	"github.com/sirupsen/logrus"

	"github.com/plus3/pulse/config"
	"github.com/plus3/pulse/sim"
	"github.com/plus3/pulse/world"
)

// The built in scenario: a town with a stash and a marked portal into a
// dungeon, and a backpack worth filing.
const (
	townSNO    world.SNO = 71150
	dungeonSNO world.SNO = 71151

	stashSNO   world.SNO = 130400
	markerHash world.SNO = 4242
	portalSNO  world.SNO = 176002
)

var (
	stashPos  = world.Vector3{X: 30, Y: 10}
	markerPos = world.Vector3{X: 90, Y: 40}
	portalPos = world.Vector3{X: 92, Y: 40}
)

func newScenario(cfg sim.Config, log logrus.FieldLogger) (*sim.World, error) {
	w := sim.New(cfg, sim.WithLogger(log))
	w.AddArea(sim.Area{
		SNO:       townSNO,
		LevelArea: 19947,
		InTown:    true,
		Actors: []world.RawEntity{
			{
				ID:         100,
				SNO:        stashSNO,
				Type:       world.TypeGizmo,
				Name:       "stash",
				Position:   stashPos,
				Valid:      true,
				Attributes: world.Attributes{world.AttrStash: 1},
			},
			{ID: 101, SNO: markerHash, Type: world.TypeMarker, Position: markerPos, Valid: true},
		},
	})
	w.AddArea(sim.Area{SNO: dungeonSNO, LevelArea: 19954, Spawn: world.Vector3{X: 5, Y: 5}})
	w.AddPortal(sim.Portal{
		ID:       500,
		SNO:      portalSNO,
		From:     townSNO,
		Position: portalPos,
		To:       dungeonSNO,
		Arrival:  world.Vector3{X: 1, Y: 1},
	})

	for i, typ := range []int{3, 3, 17} {
		w.AddItem(world.RawEntity{
			AnnID:     world.AnnID(1 + i),
			SNO:       world.SNO(700 + i),
			Name:      "armor",
			Placement: world.ItemPlacement{Slot: world.SlotBackpack, Column: i},
			Attributes: world.Attributes{
				world.AttrItemBaseType: float64(world.BaseArmor),
				world.AttrItemType:     float64(typ),
			},
		})
	}
	w.AddItem(world.RawEntity{
		AnnID:     10,
		SNO:       500,
		Name:      "gem",
		Placement: world.ItemPlacement{Slot: world.SlotBackpack, Column: 4},
		Attributes: world.Attributes{
			world.AttrItemBaseType:  float64(world.BaseGem),
			world.AttrItemType:      40,
			world.AttrStackQuantity: 7,
			world.AttrMaxStack:      20,
		},
	})

	if err := w.Start(townSNO); err != nil {
		return nil, err
	}
	return w, nil
}

// scenarioDefaults fills the task settings the scenario depends on when the
// configuration leaves them unset.
func scenarioDefaults(cfg *config.Config) {
	enter := &cfg.EnterLevelArea
	if enter.DestinationWorld == 0 {
		enter.DestinationWorld = dungeonSNO
	}
	if enter.PortalMarker == 0 {
		enter.PortalMarker = markerHash
	}
	if enter.PortalSNO == 0 {
		enter.PortalSNO = portalSNO
	}
}
