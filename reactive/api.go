package reactive

// Scope runs fn inside a new plain scope owned by the active node, or a new
// root when there is none. fn receives the scope's disposer, which is also
// returned. Disposing releases the scope and everything it owns, running their
// cleanups once; calling it again does nothing.
func (rt *Runtime) Scope(fn func(dispose func()) error) (dispose func()) {
	return rt.openScope(nil, fn)
}

func (rt *Runtime) openScope(injections map[uint64]any, fn func(dispose func()) error) func() {
	n := rt.newNode(KindScope, nil)
	n.injections = injections

	dispose := func() {
		rt.disposeNode(n)
	}
	if fn != nil {
		rt.hooks.NodeUpdated(n.kind)
		rt.run(n, func() error {
			return fn(dispose)
		})
	}
	return dispose
}

// OnCleanup registers fn on the active node. It runs before that node's next
// run or when it is disposed. Without an active node the call does nothing.
func (rt *Runtime) OnCleanup(fn func()) {
	n := rt.current
	if n == nil || n.disposed || fn == nil {
		return
	}
	n.cleanups = append(n.cleanups, fn)
}

// Computation is the handle of an effect node.
type Computation[T any] struct {
	rt   *Runtime
	node *Node
}

// Compute creates an effect that runs fn right away and again after every
// change to a signal it read. fn receives its own previous result, seed on the
// first run. A failed run keeps the previous result.
func Compute[T any](rt *Runtime, seed T, fn func(prev T) (T, error)) *Computation[T] {
	n := rt.newNode(KindEffect, func(prev any) (any, error) {
		p, _ := prev.(T)
		return fn(p)
	})
	n.value = seed
	rt.updateNode(n, false)
	return &Computation[T]{rt: rt, node: n}
}

// Effect is a Compute without a value.
func Effect(rt *Runtime, fn func() error) *Computation[struct{}] {
	return Compute(rt, struct{}{}, func(struct{}) (struct{}, error) {
		return struct{}{}, fn()
	})
}

// Memo keeps the result of fn in a signal. Dependents of the returned getter
// rerun whenever fn reruns, in the same flush.
func Memo[T any](rt *Runtime, fn func() (T, error)) Getter[T] {
	var zero T
	s := NewSignal(rt, zero)
	Compute(rt, zero, func(T) (T, error) {
		v, err := fn()
		if err != nil {
			return v, err
		}
		s.Set(v)
		return v, nil
	})
	return s.Get
}

// Value is the result of the last successful run.
func (c *Computation[T]) Value() T {
	v, _ := c.node.value.(T)
	return v
}

func (c *Computation[T]) Node() *Node {
	return c.node
}

func (c *Computation[T]) Dispose() {
	c.rt.disposeNode(c.node)
}

func (c *Computation[T]) Disposed() bool {
	return c.node.disposed
}
