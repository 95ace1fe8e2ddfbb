// Command pulse-sim drives the stash and portal tasks against the built in
// simulation, or against a recording, and prints a report when done.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/plus3/pulse/actors"
	"github.com/plus3/pulse/config"
	"github.com/plus3/pulse/coroutine"
	"github.com/plus3/pulse/events"
	"github.com/plus3/pulse/logger"
	"github.com/plus3/pulse/observer"
	"github.com/plus3/pulse/replay"
	"github.com/plus3/pulse/sim"
	"github.com/plus3/pulse/stash"
	"github.com/plus3/pulse/tick"
	"github.com/plus3/pulse/world"
)

type options struct {
	record string
	replay string
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file.")
	duration := flag.Duration("duration", 0, "Stop after this long; overrides tick.duration.")
	observe := flag.String("observe", "", "Serve the event stream on this address; overrides observer.addr.")
	var opts options
	flag.StringVar(&opts.record, "record", "", "Record the session to this file.")
	flag.StringVar(&opts.replay, "replay", "", "Replay a recorded session instead of simulating one.")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *duration > 0 {
		cfg.Tick.Duration = *duration
	}
	if *observe != "" {
		cfg.Observer.Addr = *observe
	}

	log, err := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := run(ctx, cfg, opts, log)
	if err != nil {
		log.WithError(err).Fatal("session failed")
	}

	fmt.Println("\n--- Session Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.WithError(err).Fatal("failed to generate report")
	}
	fmt.Println("--- End of Report ---")
}

// run wires a source, the tick scheduler and the task coordinator, then
// ticks until both tasks are done, the recording ends, the configured
// duration passes or ctx is cancelled.
func run(ctx context.Context, cfg config.Config, opts options, log logrus.FieldLogger) (*Report, error) {
	scenarioDefaults(&cfg)

	report := &Report{
		Interval: cfg.Tick.Interval,
		Duration: cfg.Tick.Duration,
		Events:   make(map[events.Type]int),
	}

	var (
		source   world.Source
		simWorld *sim.World
		player   *replay.Player
		recorder *replay.Recorder
	)
	switch {
	case opts.replay != "":
		r, err := replay.Open(opts.replay)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		player = replay.NewPlayer(r, log)
		source = player
		report.Mode = "replay " + opts.replay

	default:
		w, err := newScenario(cfg.Sim, log)
		if err != nil {
			return nil, err
		}
		simWorld = w
		source = w
		report.Mode = "simulation"

		if opts.record != "" {
			out, err := replay.Create(opts.record)
			if err != nil {
				return nil, err
			}
			defer func() {
				if err := out.Close(); err != nil {
					log.WithError(err).Warn("failed to close recording")
				}
			}()
			recorder = replay.NewRecorder(w, out, log)
			source = recorder
			report.Mode += ", recording to " + opts.record
		}
	}

	bus := events.NewBus()
	defer bus.Subscribe(func(e events.Event) { report.Events[e.Type]++ }).Cancel()

	cache := actors.NewCache(source, actors.WithPublisher(bus), actors.WithLogger(log))
	scheduler := tick.NewScheduler(source, cache, tick.WithPublisher(bus), tick.WithLogger(log))

	filter := coroutine.NewStashFilter(nil)
	defer filter.Subscribe(bus).Cancel()

	coordinator := coroutine.NewCoordinator(log)
	scheduler.Register(coordinator)

	stashTask := coroutine.NewStashItems(cfg.StashItems, coroutine.NewStraightNavigator(), stash.NewPlanner(cfg.Stash), filter)
	coordinator.Enqueue(stashTask)
	coordinator.Enqueue(coroutine.NewEnterLevelArea(cfg.EnterLevelArea, coroutine.DefaultCollaborators()))

	finished := coordinator.Idle
	if player != nil {
		finished = player.Done
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var hub *observer.Hub
	if cfg.Observer.Addr != "" {
		hub = observer.NewHub(log)
		defer hub.Subscribe(bus).Cancel()

		srv := &http.Server{
			Addr:              cfg.Observer.Addr,
			Handler:           hub.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.WithField("addr", srv.Addr).Info("observer listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("observer: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			hub.Close()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		tickLoop(gctx, scheduler, cfg.Tick, finished, report, log)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Scheduler = scheduler.GetStats()
	report.Tasks = coordinator.History()
	report.Stashed = stashTask.Stashed()
	report.StashFull = stashTask.Full()
	if simWorld != nil {
		stats := simWorld.Stats()
		report.Sim = &stats
	}
	if player != nil {
		report.Frames = player.Frames()
		report.RecordedCommands = player.Recorded()
		report.ReplayedCommands = player.Issued()
	}
	if recorder != nil {
		if err := recorder.Err(); err != nil {
			report.RecordingError = err.Error()
		}
	}
	if hub != nil {
		report.ObserverSent, report.ObserverDropped = hub.Stats()
	}
	return report, nil
}

func tickLoop(ctx context.Context, scheduler *tick.Scheduler, cfg config.Tick, finished func() bool, report *Report, log logrus.FieldLogger) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if cfg.Duration > 0 {
		timer := time.NewTimer(cfg.Duration)
		defer timer.Stop()
		deadline = timer.C
	}

	log.WithField("interval", cfg.Interval).Info("session started")
	startTime := time.Now()
	lastTick := startTime
	defer func() {
		report.TotalTime = time.Since(startTime)
		report.TickTime.Finalize()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("session interrupted")
			return
		case <-deadline:
			log.Info("duration reached")
			return
		case now := <-ticker.C:
			tickStart := time.Now()
			scheduler.Once(now.Sub(lastTick).Seconds())
			report.TickTime.Samples = append(report.TickTime.Samples, time.Since(tickStart))
			lastTick = now

			if finished() {
				log.Info("session finished")
				return
			}
		}
	}
}
