package main

import (
	"io"
	"text/template"
	"time"

	"github.com/plus3/pulse/coroutine"
	"github.com/plus3/pulse/events"
	"github.com/plus3/pulse/sim"
	"github.com/plus3/pulse/tick"
)

type Report struct {
	// Configuration
	Mode     string
	Interval time.Duration
	Duration time.Duration

	// Results
	TotalTime time.Duration
	TickTime  Stats
	Scheduler *tick.SchedulerStats
	Tasks     []coroutine.Outcome
	Events    map[events.Type]int

	Stashed   int
	StashFull bool

	Sim              *sim.Stats
	Frames           int
	RecordedCommands int
	ReplayedCommands int
	RecordingError   string

	ObserverSent    int64
	ObserverDropped int64
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Pulse Session Report

## Run
- **Mode:** {{.Mode}}
- **Tick Interval:** {{.Interval}}
- **Duration Limit:** {{if .Duration}}{{.Duration}}{{else}}none{{end}}
- **Wall Time:** {{.TotalTime}}

## Ticks
- **Total:** {{.Scheduler.Ticks}} (idle {{.Scheduler.IdleTicks}}, stale {{.Scheduler.StaleTicks}})
- **Commands:** {{.Scheduler.CommandsIssued}} issued, {{.Scheduler.CommandErrors}} failed
- **Tick Time:**
  - **Avg:** {{.TickTime.Avg}}
  - **Min:** {{.TickTime.Min}}
  - **Max:** {{.TickTime.Max}}
{{range .Scheduler.Systems}}- **{{.Name}}:** {{.ExecutionCount}} runs, avg {{.AvgDuration}}, max {{.MaxDuration}}
{{end}}
## Tasks
{{range .Tasks}}- {{.Name}} {{.State}} at tick {{.Frame}}{{if .Cancelled}} (cancelled){{end}}
{{else}}- none finished
{{end}}- **Items Stashed:** {{.Stashed}}{{if .StashFull}} (stash full){{end}}

## Events
{{range $type, $n := .Events}}- {{$type}}: {{$n}}
{{end}}
{{- with .Sim}}
## Simulation
- **Session:** {{.Session}}
- **World:** {{.World.SNO}}{{if .World.InTown}} (town){{end}}
- **Refreshes:** {{.Refreshes}}
- **Commands Applied:** {{.Commands}}
- **Items:** {{.Items}}
{{end}}
{{- if .Frames}}
## Replay
- **Frames:** {{.Frames}}
- **Commands:** {{.RecordedCommands}} recorded, {{.ReplayedCommands}} replayed
{{end}}
{{- if .RecordingError}}
## Recording
- **Error:** {{.RecordingError}}
{{end}}
{{- if or .ObserverSent .ObserverDropped}}
## Observer
- **Messages:** {{.ObserverSent}} sent, {{.ObserverDropped}} dropped
{{end}}`

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
