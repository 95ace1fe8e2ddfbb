package replay

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/plus3/pulse/world"
)

// Frame is one recorded snapshot along with the commands issued since the
// previous one.
type Frame struct {
	Tick     uint64            `json:"tick"`
	Time     time.Time         `json:"time"`
	Session  world.SessionID   `json:"session"`
	World    world.WorldInfo   `json:"world"`
	PlayerID world.ActorID     `json:"playerId"`
	Entities []world.RawEntity `json:"entities"`
	Commands []world.Command   `json:"commands,omitempty"`
	// Boundary marks a frame written when the session or world changed. It
	// carries no entities: the cache clears on such a tick instead of reading.
	Boundary bool              `json:"boundary,omitempty"`
}

type FrameWriter interface {
	Write(frame Frame) error
}

// Recorder is a world.Source that forwards to another source and writes a
// Frame for every successful snapshot.
type Recorder struct {
	world.Source
	out FrameWriter
	log logrus.FieldLogger
	now func() time.Time

	tick    uint64
	pending []world.Command
	err     error

	written bool
	session world.SessionID
	world   world.WorldInfo
}

func NewRecorder(src world.Source, out FrameWriter, log logrus.FieldLogger) *Recorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recorder{Source: src, out: out, log: log, now: time.Now}
}

// Refresh forwards to the wrapped source when it needs refreshing, then
// writes a boundary frame if the session or world moved since the last
// frame.
func (r *Recorder) Refresh() error {
	if rf, ok := r.Source.(world.Refresher); ok {
		if err := rf.Refresh(); err != nil {
			return err
		}
	}

	if !r.written || !r.Source.IsSessionActive() {
		return nil
	}
	session, current := r.Source.CurrentSessionID(), r.Source.CurrentWorld()
	if session != r.session || !current.SameInstance(r.world) {
		r.write(nil, true)
	}
	return nil
}

func (r *Recorder) SnapshotEntities() ([]world.RawEntity, error) {
	raws, err := r.Source.SnapshotEntities()
	if err != nil {
		return nil, err
	}
	r.write(raws, false)
	return raws, nil
}

func (r *Recorder) write(raws []world.RawEntity, boundary bool) {
	r.tick++
	frame := Frame{
		Tick:     r.tick,
		Time:     r.now(),
		Session:  r.Source.CurrentSessionID(),
		World:    r.Source.CurrentWorld(),
		PlayerID: r.Source.ActivePlayerID(),
		Entities: raws,
		Commands: r.pending,
		Boundary: boundary,
	}
	r.pending = nil
	r.written = true
	r.session = frame.Session
	r.world = frame.World

	// Recording is best effort; the session keeps going without it.
	if err := r.out.Write(frame); err != nil && r.err == nil {
		r.err = err
		r.log.WithError(err).WithField("tick", r.tick).Warn("recording stopped")
	}
}

// Err returns the first write error, if any.
func (r *Recorder) Err() error {
	return r.err
}

func (r *Recorder) IssueMove(pos world.Vector3) error {
	r.pending = append(r.pending, world.Command{Kind: world.CommandMove, Position: pos})
	return r.Source.IssueMove(pos)
}

func (r *Recorder) IssueInteract(id world.ActorID) error {
	r.pending = append(r.pending, world.Command{Kind: world.CommandInteract, Target: id})
	return r.Source.IssueInteract(id)
}

func (r *Recorder) IssueMoveItem(ann world.AnnID, dest world.InventorySlot, column, row int) error {
	r.pending = append(r.pending, world.Command{Kind: world.CommandMoveItem, AnnID: ann, Slot: dest, Column: column, Row: row})
	return r.Source.IssueMoveItem(ann, dest, column, row)
}

func (r *Recorder) IssueSwitchStashPage(page int) error {
	r.pending = append(r.pending, world.Command{Kind: world.CommandSwitchStashPage, Page: page})
	return r.Source.IssueSwitchStashPage(page)
}

// Player is a world.Source that replays a recording. Refresh moves to the
// next frame once the current one has been snapshotted, so a frame exposed on
// a world change tick, where the cache clears instead of reading, is served
// again on the following tick just as it was recorded. Boundary frames are
// never snapshotted and last one tick. The session ends with the recording.
// Commands are counted and dropped.
type Player struct {
	r   *Reader
	log logrus.FieldLogger

	frame  Frame
	loaded bool
	served bool
	ended  bool
	frames int

	issued   int
	recorded int
}

func NewPlayer(r *Reader, log logrus.FieldLogger) *Player {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Player{r: r, log: log}
}

// Refresh advances to the next frame.
func (p *Player) Refresh() error {
	if p.ended || (p.loaded && !p.served && !p.frame.Boundary) {
		return nil
	}
	frame, err := p.r.Next()
	if errors.Is(err, ErrEndOfRecording) {
		p.ended = true
		p.log.WithField("frames", p.frames).Info("recording finished")
		return nil
	}
	if err != nil {
		p.ended = true
		return err
	}
	p.frame = frame
	p.loaded = true
	p.served = false
	p.frames++
	p.recorded += len(frame.Commands)
	return nil
}

// Frame is the frame currently exposed.
func (p *Player) Frame() Frame { return p.frame }

// Done reports whether the recording is exhausted.
func (p *Player) Done() bool { return p.ended }

// Frames counts the frames played so far.
func (p *Player) Frames() int { return p.frames }

// Issued counts the commands the replayed session issued.
func (p *Player) Issued() int { return p.issued }

// Recorded counts the commands the original session issued.
func (p *Player) Recorded() int { return p.recorded }

func (p *Player) IsSessionActive() bool {
	return p.loaded && !p.ended
}

func (p *Player) CurrentSessionID() world.SessionID { return p.frame.Session }
func (p *Player) CurrentWorld() world.WorldInfo     { return p.frame.World }
func (p *Player) ActivePlayerID() world.ActorID     { return p.frame.PlayerID }

func (p *Player) SnapshotEntities() ([]world.RawEntity, error) {
	p.served = true
	out := make([]world.RawEntity, len(p.frame.Entities))
	for i, e := range p.frame.Entities {
		out[i] = e.Clone()
	}
	return out, nil
}

func (p *Player) IssueMove(world.Vector3) error {
	p.issued++
	return nil
}

func (p *Player) IssueInteract(world.ActorID) error {
	p.issued++
	return nil
}

func (p *Player) IssueMoveItem(world.AnnID, world.InventorySlot, int, int) error {
	p.issued++
	return nil
}

func (p *Player) IssueSwitchStashPage(int) error {
	p.issued++
	return nil
}
