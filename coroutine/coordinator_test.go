package coroutine_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/pulse/coroutine"
	"github.com/plus3/pulse/events"
	"github.com/plus3/pulse/tick"
)

// countdown finishes after a fixed number of steps. onFirst runs on its
// first step, which lets a task push a child.
type countdown struct {
	id      uuid.UUID
	name    string
	total   int
	steps   int
	resets  int
	onFirst func()
}

func newCountdown(name string, steps int) *countdown {
	return &countdown{id: uuid.New(), name: name, total: steps}
}

func (c *countdown) ID() uuid.UUID { return c.id }
func (c *countdown) Name() string  { return c.name }
func (c *countdown) IsDone() bool  { return c.steps >= c.total }

func (c *countdown) State() string {
	if c.IsDone() {
		return "Completed"
	}
	return fmt.Sprintf("Step%d", c.steps)
}

func (c *countdown) Step(*tick.Context) bool {
	if c.steps == 0 && c.onFirst != nil {
		c.onFirst()
	}
	c.steps++
	return c.IsDone()
}

func (c *countdown) Reset() {
	c.steps = 0
	c.resets++
}

func newCoordinator() (*coroutine.Coordinator, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return coroutine.NewCoordinator(log), hook
}

func TestCoordinatorRunsOneStepPerTick(t *testing.T) {
	c, hook := newCoordinator()
	h := newHarness()
	task := newCountdown("walk", 3)
	c.Push(task)

	for range 2 {
		c.Execute(h.tick(time.Second))
		assert.Same(t, task, c.Current())
	}
	c.Execute(h.tick(time.Second))

	assert.Nil(t, c.Current())
	assert.True(t, c.Idle())
	assert.Equal(t, 3, task.steps)

	history := c.History()
	require.Len(t, history, 1)
	assert.Equal(t, "walk", history[0].Name)
	assert.Equal(t, "Completed", history[0].State)
	assert.False(t, history[0].Cancelled)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "task finished", hook.LastEntry().Message)
}

func TestCoordinatorChildResumesParent(t *testing.T) {
	c, _ := newCoordinator()
	h := newHarness()
	parent := newCountdown("parent", 2)
	child := newCountdown("child", 2)
	parent.onFirst = func() { c.Push(child) }
	c.Push(parent)

	c.Execute(h.tick(time.Second))
	assert.Same(t, child, c.Current())
	assert.Equal(t, 1, parent.steps)

	c.Execute(h.tick(time.Second))
	c.Execute(h.tick(time.Second))
	assert.Equal(t, 2, child.steps)
	assert.Same(t, parent, c.Current(), "parent resumes after the child")

	c.Execute(h.tick(time.Second))
	assert.True(t, c.Idle())

	names := make([]string, 0, 2)
	for _, o := range c.History() {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"child", "parent"}, names)
}

func TestCoordinatorQueue(t *testing.T) {
	c, _ := newCoordinator()
	h := newHarness()
	first := newCountdown("first", 1)
	second := newCountdown("second", 1)
	c.Enqueue(first)
	c.Enqueue(second)
	require.Equal(t, 2, c.Len())

	c.Execute(h.tick(time.Second))
	assert.Equal(t, 1, first.steps)
	assert.Equal(t, 0, second.steps)
	assert.Equal(t, 1, c.Len())

	c.Execute(h.tick(time.Second))
	assert.Equal(t, 1, second.steps)
	assert.True(t, c.Idle())

	// Nothing left to run.
	c.Execute(h.tick(time.Second))
	assert.Len(t, c.History(), 2)
}

func TestCoordinatorCancel(t *testing.T) {
	c, _ := newCoordinator()
	h := newHarness()
	parent := newCountdown("parent", 5)
	child := newCountdown("child", 5)
	queued := newCountdown("queued", 1)
	parent.onFirst = func() { c.Push(child) }
	c.Push(parent)
	c.Enqueue(queued)

	c.Execute(h.tick(time.Second))
	c.Execute(h.tick(time.Second))

	assert.True(t, c.Cancel(parent.ID()))
	assert.Nil(t, c.Current())
	assert.Equal(t, 1, parent.resets)
	assert.Equal(t, 1, child.resets)

	history := c.History()
	require.Len(t, history, 2)
	assert.Equal(t, "child", history[0].Name)
	assert.True(t, history[0].Cancelled)
	assert.Equal(t, "Step1", history[0].State)

	assert.False(t, c.Cancel(uuid.New()))
	assert.True(t, c.Cancel(queued.ID()))
	assert.True(t, c.Idle())
}

func TestCoordinatorClear(t *testing.T) {
	c, _ := newCoordinator()
	a := newCountdown("a", 3)
	b := newCountdown("b", 3)
	c.Push(a)
	c.Enqueue(b)

	c.Clear()

	assert.True(t, c.Idle())
	assert.Len(t, c.History(), 2)
	assert.Equal(t, 1, a.resets)
	assert.Equal(t, 1, b.resets)
}

func TestCoordinatorPublishesStateChanges(t *testing.T) {
	c, _ := newCoordinator()
	h := newHarness()
	var states []string
	sub := h.bus.Subscribe(func(e events.Event) {
		states = append(states, e.Task+":"+e.State)
	}, events.TaskState)
	defer sub.Cancel()

	c.Push(newCountdown("walk", 2))
	c.Execute(h.tick(time.Second))
	c.Execute(h.tick(time.Second))

	assert.Equal(t, []string{"walk:Step1", "walk:Completed"}, states)
}

func TestCoordinatorRunsEnterLevelArea(t *testing.T) {
	f := newEnterFixture(defaultEnterConfig(), coroutine.NavArrived)
	f.stageObjective()
	c, _ := newCoordinator()
	c.Push(f.task)

	var states []string
	sub := f.bus.Subscribe(func(e events.Event) { states = append(states, e.State) }, events.TaskState)
	defer sub.Cancel()

	c.Execute(f.tick(0))
	c.Execute(f.tick(time.Second))
	f.enterDestination(destination)
	c.Execute(f.tick(time.Second))

	assert.True(t, c.Idle())
	assert.Equal(t, []string{"Moving", "Entering", "Completed"}, states)
	require.Len(t, c.History(), 1)
	assert.Equal(t, "EnterLevelArea", c.History()[0].Name)
}
