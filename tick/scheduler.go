package tick

import (
	"context"
	"reflect"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/plus3/pulse/actors"
	"github.com/plus3/pulse/events"
	"github.com/plus3/pulse/world"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Ticks           int64
	IdleTicks       int64
	StaleTicks      int64
	CommandsIssued  int64
	CommandErrors   int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithPublisher(p events.Publisher) Option {
	return func(s *Scheduler) { s.events = p }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithClock replaces time.Now as the source of Context.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler advances ticks. Each tick refreshes the source when it
// implements world.Refresher, updates the cache and inventory, executes the
// registered systems in order and flushes their commands into the source.
type Scheduler struct {
	source world.Source
	cache  *actors.Cache
	events events.Publisher
	log    logrus.FieldLogger
	now    func() time.Time

	systems     []System
	systemStats []*systemStatsInternal
	commands    *Commands

	ticks          int64
	idleTicks      int64
	staleTicks     int64
	commandsIssued int64
	commandErrors  int64
}

// NewScheduler creates a scheduler driving cache, which must read from source.
func NewScheduler(source world.Source, cache *actors.Cache, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:   source,
		cache:    cache,
		events:   events.Nop(),
		log:      logrus.StandardLogger(),
		now:      time.Now,
		systems:  make([]System, 0),
		commands: NewCommands(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a system to the end of the execution order.
func (s *Scheduler) Register(system System) {
	s.systems = append(s.systems, system)
	s.systemStats = append(s.systemStats, &systemStatsInternal{
		name:        systemName(system),
		minDuration: time.Duration(1<<63 - 1),
	})
}

func systemName(system System) string {
	if named, ok := system.(Named); ok {
		return named.Name()
	}
	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	return systemType.Name()
}

// Once runs a single tick with the given delta time in seconds. Systems do
// not run while the source reports no active session.
func (s *Scheduler) Once(dt float64) {
	s.ticks++

	if r, ok := s.source.(world.Refresher); ok {
		if err := r.Refresh(); err != nil {
			s.log.WithError(err).Debug("world refresh failed")
		}
	}

	if !s.source.IsSessionActive() {
		s.idleTicks++
		return
	}

	fresh := s.cache.Update()
	if fresh {
		s.cache.UpdateInventory()
	} else {
		s.staleTicks++
	}

	tc := &Context{
		Frame:     s.cache.LastFrame(),
		Now:       s.now(),
		DeltaTime: dt,
		Fresh:     fresh,
		Actors:    s.cache,
		Inventory: s.cache.Inventory(),
		Commands:  s.commands,
		World:     s.cache.World(),
		Events:    s.events,
		Log:       s.log,
	}

	for i, system := range s.systems {
		start := time.Now()
		system.Execute(tc)
		duration := time.Since(start)

		stats := s.systemStats[i]
		stats.executionCount++
		stats.lastDuration = duration
		stats.totalDuration += duration

		if duration < stats.minDuration {
			stats.minDuration = duration
		}
		if duration > stats.maxDuration {
			stats.maxDuration = duration
		}
	}

	s.commandsIssued += int64(s.commands.Len())
	if err := s.commands.Flush(s.source); err != nil {
		s.commandErrors++
		s.log.WithError(err).WithField("frame", tc.Frame).Warn("command flush failed")
	}
}

// Run executes ticks at the given interval until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			s.Once(dt)
		}
	}
}

// GetStats returns statistics about tick and system execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount:    len(s.systems),
		Ticks:          s.ticks,
		IdleTicks:      s.idleTicks,
		StaleTicks:     s.staleTicks,
		CommandsIssued: s.commandsIssued,
		CommandErrors:  s.commandErrors,
		Systems:        make([]SystemStats, len(s.systemStats)),
	}

	var totalExecs int64
	for i, internal := range s.systemStats {
		avgDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		}

		stats.Systems[i] = SystemStats{
			Name:           internal.name,
			ExecutionCount: internal.executionCount,
			MinDuration:    internal.minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
