package reactive

import (
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
)

// Runtime owns one reactive graph. It replaces the implicit global "current
// node" of a single-threaded host with an explicit value that every primitive
// receives. A Runtime must only be used from one goroutine at a time, the one
// driving its Host.
type Runtime struct {
	host   Host
	hooks  Hooks
	logger *slog.Logger

	// The node currently executing, if any. It owns nodes created while it runs
	// and, when it is an effect, records every source read as a dependency.
	current *Node

	// Nodes waiting for the next flush. A nil set means no batch is open.
	pending mapset.Set[*Node]
	// Same entries as pending, in scheduling order.
	queue []*Node
}

type Option func(*Runtime)

// WithHost sets the host that runs flushes and receives uncaught errors.
// Defaults to a Microtasks queue drained through Runtime.Drain.
func WithHost(host Host) Option {
	return func(rt *Runtime) {
		rt.host = host
	}
}

func WithHooks(hooks Hooks) Option {
	return func(rt *Runtime) {
		if hooks != nil {
			rt.hooks = hooks
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		hooks:  NopHooks{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.host == nil {
		rt.host = NewMicrotasks(rt.logger)
	}
	return rt
}

func (rt *Runtime) Host() Host {
	return rt.host
}

// Drain runs every queued microtask when the host is the built-in Microtasks
// queue and returns the uncaught errors they produced. With any other host it
// does nothing, the host drives flushes on its own.
func (rt *Runtime) Drain() error {
	d, ok := rt.host.(interface{ Drain() error })
	if !ok {
		return nil
	}
	return d.Drain()
}

// run executes fn with n as the active node. Failures are routed while n is
// still active so handler lookup starts from it; the previous node is restored
// on every exit path, panics included.
func (rt *Runtime) run(n *Node, fn func() error) {
	prev := rt.current
	rt.current = n
	defer func() {
		rt.current = prev
	}()

	if err := capture(fn); err != nil {
		rt.handleError(n, err)
	}
}

// Untrack runs fn with no active node, so reads inside it record no
// dependencies. Nodes created inside fn have no owner.
func Untrack[T any](rt *Runtime, fn func() T) T {
	prev := rt.current
	rt.current = nil
	defer func() {
		rt.current = prev
	}()
	return fn()
}
