package coroutine

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/plus3/pulse/actors"
	"github.com/plus3/pulse/tick"
	"github.com/plus3/pulse/world"
)

// EnterLevelAreaState is the state of an EnterLevelArea task.
type EnterLevelAreaState uint8

const (
	EnterNotStarted EnterLevelAreaState = iota
	EnterSearching
	EnterMoving
	EnterMovingToNearestScene
	EnterEntering
	EnterCompleted
	EnterFailed
)

func (s EnterLevelAreaState) String() string {
	switch s {
	case EnterNotStarted:
		return "NotStarted"
	case EnterSearching:
		return "Searching"
	case EnterMoving:
		return "Moving"
	case EnterMovingToNearestScene:
		return "MovingToNearestScene"
	case EnterEntering:
		return "Entering"
	case EnterCompleted:
		return "Completed"
	case EnterFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

const (
	initialScanRange      = 5000.0
	defaultInteractRange  = 5.0
	objectiveReach        = 5.0
	sceneReach            = 12.0
	farFromObjective      = 50.0
	scanThrottle          = 250 * time.Millisecond
	previousLocationRetry = 60 * time.Second
	nearestSceneCooldown  = 60 * time.Second
)

// EnterLevelAreaConfig describes which portal to take.
type EnterLevelAreaConfig struct {
	// DestinationWorld is the world SNO the portal must lead to; 0 accepts
	// any new world instance.
	DestinationWorld world.SNO `yaml:"destination_world" env:"DESTINATION_WORLD"`
	// PortalMarker is the hash of the objective marker over the portal.
	PortalMarker world.SNO `yaml:"portal_marker" env:"PORTAL_MARKER"`
	// PortalSNO is the portal gizmo SNO; 0 when unknown.
	PortalSNO world.SNO `yaml:"portal_sno" env:"PORTAL_SNO"`
	// NearestScene is a point to walk to before exploring when no objective
	// is visible yet. Zero disables it.
	NearestScene world.Vector3 `yaml:"nearest_scene"`
	// Timeout fails the task once exceeded; 0 disables it.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// EnterLevelAreaData is the state carried across ticks.
type EnterLevelAreaData struct {
	Deadline  time.Time
	Objective world.Vector3
	ScanRange float64
	LastScan  time.Time

	// PreviousLocation is an objective given up on, retried after a while.
	PreviousLocation   world.Vector3
	PreviousLocationAt time.Time

	SceneCooldownUntil time.Time

	PortalID           world.ActorID
	DiscoveredPortal   world.SNO
	InteractRange      float64
	PrePortalDynamicID int32

	Done bool
}

// NewEnterLevelAreaData returns the initial carried state.
func NewEnterLevelAreaData() EnterLevelAreaData {
	return EnterLevelAreaData{
		ScanRange:     initialScanRange,
		InteractRange: defaultInteractRange,
	}
}

// EnterLevelAreaEnv is the read-only input of StepEnterLevelArea.
type EnterLevelAreaEnv struct {
	Config EnterLevelAreaConfig
	Collaborators
}

// StepEnterLevelArea advances the portal traversal by one tick. It returns
// the next state, the next carried data and the action to emit.
func StepEnterLevelArea(state EnterLevelAreaState, data EnterLevelAreaData, env EnterLevelAreaEnv, tc *tick.Context) (EnterLevelAreaState, EnterLevelAreaData, Action) {
	if state != EnterFailed && env.Config.Timeout > 0 && !data.Deadline.IsZero() && tc.Now.After(data.Deadline) {
		tc.Log.WithField("timeout", env.Config.Timeout).Debug("enter level area timed out")
		state = EnterFailed
	}

	switch state {
	case EnterNotStarted:
		if env.Config.Timeout > 0 {
			data.Deadline = tc.Now.Add(env.Config.Timeout)
		}
		return enterSearching(data, env, tc)
	case EnterSearching:
		return enterSearching(data, env, tc)
	case EnterMoving:
		return enterMoving(data, env, tc)
	case EnterMovingToNearestScene:
		return enterMovingToNearestScene(data, env, tc)
	case EnterEntering:
		return enterEntering(data, env, tc)
	case EnterCompleted, EnterFailed:
		data.Done = true
		return state, data, NoAction
	}
	return state, data, NoAction
}

func enterSearching(data EnterLevelAreaData, env EnterLevelAreaEnv, tc *tick.Context) (EnterLevelAreaState, EnterLevelAreaData, Action) {
	if data.Objective.IsZero() {
		data = scanForObjective(data, env, tc)
	}

	if !data.Objective.IsZero() {
		env.Navigator.Reset()
		return EnterMoving, data, NoAction
	}

	if !env.Config.NearestScene.IsZero() && !tc.Now.Before(data.SceneCooldownUntil) {
		env.Navigator.Reset()
		return EnterMovingToNearestScene, data, NoAction
	}

	if env.Explorer == nil {
		return EnterSearching, data, NoAction
	}
	return EnterSearching, data, env.Explorer.Explore(tc)
}

func scanForObjective(data EnterLevelAreaData, env EnterLevelAreaEnv, tc *tick.Context) EnterLevelAreaData {
	if !data.PreviousLocation.IsZero() && tc.Now.Sub(data.PreviousLocationAt) >= previousLocationRetry {
		tc.Log.WithField("objective", data.PreviousLocation).Debug("returning to previous objective location")
		data.Objective = data.PreviousLocation
		data.PreviousLocation = world.Vector3{}
		data.PreviousLocationAt = tc.Now
		return data
	}

	if !data.LastScan.IsZero() && tc.Now.Sub(data.LastScan) < scanThrottle {
		return data
	}
	data.LastScan = tc.Now

	if env.Config.PortalMarker != 0 {
		if pos, ok := env.Scanner.FindMarker(tc, env.Config.PortalMarker, data.ScanRange); ok {
			data.Objective = pos
		}
	}
	if data.Objective.IsZero() && env.Config.PortalSNO != 0 {
		if g, ok := FindGizmo(tc, env.Config.PortalSNO); ok && g.Distance(tc.PlayerPosition()) <= data.ScanRange {
			data.Objective = g.Position()
		}
	}

	if !data.Objective.IsZero() {
		tc.Log.WithFields(logrus.Fields{
			"objective": data.Objective,
			"distance":  tc.PlayerPosition().Distance(data.Objective),
		}).Debug("found objective")
	}
	return data
}

func enterMoving(data EnterLevelAreaData, env EnterLevelAreaEnv, tc *tick.Context) (EnterLevelAreaState, EnterLevelAreaData, Action) {
	result, action := env.Navigator.MoveTo(tc, data.Objective, objectiveReach)
	if result == NavMoving {
		return EnterMoving, data, action
	}

	if result == NavFailed && tc.PlayerPosition().Distance(data.Objective) > farFromObjective {
		env.Navigator.Reset()
		data.PreviousLocation = data.Objective
		data.PreviousLocationAt = tc.Now
		data.Objective = world.Vector3{}
		data.ScanRange = LowerSearchRadius(data.ScanRange)
		tc.Log.WithField("scan_range", data.ScanRange).Debug("objective unreachable, narrowing search")
		return EnterSearching, data, NoAction
	}

	portal, ok := findPortal(&data, env, tc)
	if !ok {
		return EnterSearching, data, NoAction
	}

	data.InteractRange = portal.InteractRange()
	if portal.Position().Distance(data.Objective) > data.InteractRange {
		tc.Log.WithField("portal", portal.ActorID()).Debug("portal too far from objective")
		return EnterSearching, data, MoveAction(portal.Position())
	}

	data.Objective = portal.Position()
	data.PortalID = portal.ActorID()
	data.PrePortalDynamicID = tc.World.DynamicID
	return EnterEntering, data, MoveAction(portal.Position())
}

func findPortal(data *EnterLevelAreaData, env EnterLevelAreaEnv, tc *tick.Context) (*actors.Gizmo, bool) {
	dest := env.Config.DestinationWorld
	if env.Config.PortalSNO != 0 {
		if g, ok := FindGizmo(tc, env.Config.PortalSNO); ok && leadsTo(g, dest) {
			return g, true
		}
	}
	if g, ok := PortalNearPosition(tc, data.Objective, dest); ok {
		data.DiscoveredPortal = g.SNO()
		return g, true
	}
	if env.Config.PortalSNO == 0 {
		if g, ok := NearestPortal(tc, dest); ok {
			data.DiscoveredPortal = g.SNO()
			tc.Log.WithField("portal_sno", g.SNO()).Info("expected portal not found, using nearest portal")
			return g, true
		}
	}
	return nil, false
}

func enterMovingToNearestScene(data EnterLevelAreaData, env EnterLevelAreaEnv, tc *tick.Context) (EnterLevelAreaState, EnterLevelAreaData, Action) {
	result, action := env.Navigator.MoveTo(tc, env.Config.NearestScene, sceneReach)
	if result == NavMoving {
		return EnterMovingToNearestScene, data, action
	}
	if result == NavFailed {
		tc.Log.Debug("nearest scene unreachable")
	}
	data.SceneCooldownUntil = tc.Now.Add(nearestSceneCooldown)
	env.Navigator.Reset()
	return EnterSearching, data, NoAction
}

func enterEntering(data EnterLevelAreaData, env EnterLevelAreaEnv, tc *tick.Context) (EnterLevelAreaState, EnterLevelAreaData, Action) {
	// Once the world instance changed the old position means nothing.
	sameWorld := tc.World.DynamicID == data.PrePortalDynamicID
	if sameWorld && tc.PlayerPosition().Distance(data.Objective) > data.InteractRange {
		return EnterMoving, data, NoAction
	}

	result, action := env.Portals.UsePortal(tc, data.PortalID, data.PrePortalDynamicID)
	switch result {
	case PortalInProgress:
		return EnterEntering, data, action
	case PortalFailed:
		return EnterSearching, data, NoAction
	}

	if env.Config.DestinationWorld != 0 && tc.World.SNO != env.Config.DestinationWorld {
		tc.Log.WithFields(logrus.Fields{
			"world":    tc.World.SNO,
			"expected": env.Config.DestinationWorld,
		}).Info("portal led to the wrong world")
		data.Objective = world.Vector3{}
		data.PortalID = 0
		return EnterSearching, data, NoAction
	}

	data.DiscoveredPortal = 0
	data.Done = true
	return EnterCompleted, data, NoAction
}

// EnterLevelArea finds a portal by its marker or SNO, walks to it and takes
// it, completing once the destination world is reached.
type EnterLevelArea struct {
	id    uuid.UUID
	env   EnterLevelAreaEnv
	state EnterLevelAreaState
	data  EnterLevelAreaData
}

func NewEnterLevelArea(cfg EnterLevelAreaConfig, collab Collaborators) *EnterLevelArea {
	return &EnterLevelArea{
		id:   uuid.New(),
		env:  EnterLevelAreaEnv{Config: cfg, Collaborators: collab},
		data: NewEnterLevelAreaData(),
	}
}

func (t *EnterLevelArea) ID() uuid.UUID                { return t.id }
func (t *EnterLevelArea) Name() string                 { return "EnterLevelArea" }
func (t *EnterLevelArea) State() string                { return t.state.String() }
func (t *EnterLevelArea) Current() EnterLevelAreaState { return t.state }
func (t *EnterLevelArea) Data() EnterLevelAreaData     { return t.data }
func (t *EnterLevelArea) Config() EnterLevelAreaConfig { return t.env.Config }
func (t *EnterLevelArea) IsDone() bool                 { return t.data.Done }
func (t *EnterLevelArea) Collaborators() Collaborators { return t.env.Collaborators }

func (t *EnterLevelArea) Step(tc *tick.Context) bool {
	prev := t.state
	var action Action
	t.state, t.data, action = StepEnterLevelArea(t.state, t.data, t.env, tc)
	action.Emit(tc.Commands)

	if t.state != prev {
		tc.Log.WithFields(logrus.Fields{
			"task": t.id,
			"from": prev,
			"to":   t.state,
		}).Info("enter level area")
	}
	return t.data.Done
}

// Reset clears every carried field, including the timeout window.
func (t *EnterLevelArea) Reset() {
	t.state = EnterNotStarted
	t.data = NewEnterLevelAreaData()
	t.env.reset()
}
