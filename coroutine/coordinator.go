package coroutine

import (
	"slices"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/plus3/pulse/events"
	"github.com/plus3/pulse/tick"
)

// Outcome records how a task left the coordinator.
type Outcome struct {
	ID    uuid.UUID
	Name  string
	State string
	Frame uint64
	// Cancelled is true when the task was removed before finishing.
	Cancelled bool
}

// Coordinator owns the single current-task slot. Tasks live on an explicit
// stack; only the top one is stepped, once per tick. A task may push a child
// while stepping, which then runs until done and hands control back. Queued
// tasks start when the stack is empty.
type Coordinator struct {
	log     logrus.FieldLogger
	stack   []Task
	queue   []Task
	states  map[uuid.UUID]string
	history []Outcome
}

func NewCoordinator(log logrus.FieldLogger) *Coordinator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Coordinator{
		log:    log,
		states: make(map[uuid.UUID]string),
	}
}

func (c *Coordinator) Name() string {
	return "Coordinator"
}

// Push makes t the current task. The previous current task resumes once t
// is done.
func (c *Coordinator) Push(t Task) {
	c.stack = append(c.stack, t)
	c.log.WithFields(logrus.Fields{"task": t.Name(), "id": t.ID(), "depth": len(c.stack)}).Debug("task pushed")
}

// Enqueue schedules t to start after every task before it finished.
func (c *Coordinator) Enqueue(t Task) {
	c.queue = append(c.queue, t)
}

// Current is the task holding control, or nil.
func (c *Coordinator) Current() Task {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

// Idle reports whether no task is running or waiting.
func (c *Coordinator) Idle() bool {
	return len(c.stack) == 0 && len(c.queue) == 0
}

// Len counts running and queued tasks.
func (c *Coordinator) Len() int {
	return len(c.stack) + len(c.queue)
}

// History returns the outcome of every task that left the coordinator.
func (c *Coordinator) History() []Outcome {
	return c.history
}

// Cancel resets and drops the task with the given id, along with any
// children it pushed.
func (c *Coordinator) Cancel(id uuid.UUID) bool {
	if i := slices.IndexFunc(c.stack, func(t Task) bool { return t.ID() == id }); i >= 0 {
		for j := len(c.stack) - 1; j >= i; j-- {
			c.drop(c.stack[j], 0, true)
		}
		c.stack = c.stack[:i]
		return true
	}
	if i := slices.IndexFunc(c.queue, func(t Task) bool { return t.ID() == id }); i >= 0 {
		c.drop(c.queue[i], 0, true)
		c.queue = slices.Delete(c.queue, i, i+1)
		return true
	}
	return false
}

// Clear cancels everything.
func (c *Coordinator) Clear() {
	for i := len(c.stack) - 1; i >= 0; i-- {
		c.drop(c.stack[i], 0, true)
	}
	for _, t := range c.queue {
		c.drop(t, 0, true)
	}
	c.stack = nil
	c.queue = nil
}

// Execute steps the current task once. Tasks that report done are removed
// and their parent resumes on the next tick.
func (c *Coordinator) Execute(tc *tick.Context) {
	if len(c.stack) == 0 {
		if len(c.queue) == 0 {
			return
		}
		next := c.queue[0]
		c.queue = c.queue[1:]
		c.Push(next)
	}

	current := c.stack[len(c.stack)-1]
	current.Step(tc)
	c.observe(current, tc)

	if !current.IsDone() {
		return
	}

	if i := slices.Index(c.stack, current); i >= 0 {
		c.stack = slices.Delete(c.stack, i, i+1)
	}
	c.log.WithFields(logrus.Fields{
		"task":  current.Name(),
		"id":    current.ID(),
		"state": current.State(),
		"frame": tc.Frame,
	}).Info("task finished")
	c.drop(current, tc.Frame, false)
}

func (c *Coordinator) observe(t Task, tc *tick.Context) {
	state := t.State()
	if prev, ok := c.states[t.ID()]; ok && prev == state {
		return
	}
	c.states[t.ID()] = state
	tc.Publish(events.Event{Type: events.TaskState, Task: t.Name(), State: state})
}

func (c *Coordinator) drop(t Task, frame uint64, cancelled bool) {
	c.history = append(c.history, Outcome{
		ID:        t.ID(),
		Name:      t.Name(),
		State:     t.State(),
		Frame:     frame,
		Cancelled: cancelled,
	})
	delete(c.states, t.ID())
	if cancelled {
		t.Reset()
	}
}
