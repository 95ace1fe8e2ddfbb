package tick

// System is a behavior executed once per tick in registration order.
// Systems may keep their own state between ticks.
type System interface {
	Execute(tc *Context)
}

// SystemFunc adapts a function to System.
type SystemFunc func(tc *Context)

func (f SystemFunc) Execute(tc *Context) {
	f(tc)
}

// Named lets a system report its own name in scheduler stats.
type Named interface {
	Name() string
}
