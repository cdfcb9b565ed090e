package reactive

// Kind tells scopes from effects. Scopes own children, cleanups and context
// bindings but never rerun and never track; effects carry a callback that is
// rerun whenever a source it read changes.
type Kind uint8

const (
	KindScope Kind = iota
	KindEffect
)

func (k Kind) String() string {
	switch k {
	case KindScope:
		return "scope"
	case KindEffect:
		return "effect"
	default:
		return "unknown"
	}
}

type callback func(prev any) (any, error)

// Node is one unit of the ownership tree.
type Node struct {
	kind Kind

	// Last value returned by the callback, handed back to it on the next run
	value any
	// Node that was active when this one was created
	parent *Node
	// Nodes created while this one was active, owned exclusively by it
	children []*Node
	// Reverse half of the edges stored on each source, rebuilt on every run
	sources     []*subscribers
	sourceSlots []int
	// Run before the next run or on disposal, last registered first
	cleanups []func()
	// Context bindings installed directly on this node, see Inject
	injections map[uint64]any
	// nil for scopes and for disposed nodes
	callback callback

	disposed bool
}

func (n *Node) Kind() Kind {
	return n.kind
}

func (n *Node) Disposed() bool {
	return n.disposed
}

func (rt *Runtime) newNode(kind Kind, cb callback) *Node {
	n := &Node{kind: kind, callback: cb}
	if p := rt.current; p != nil && !p.disposed {
		n.parent = p
		p.children = append(p.children, n)
	}
	return n
}

// lookup walks the ancestry for a context binding; the nearest one wins.
func (n *Node) lookup(id uint64) (any, bool) {
	for ; n != nil; n = n.parent {
		if v, ok := n.injections[id]; ok {
			return v, true
		}
	}
	return nil, false
}

func (n *Node) removeChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// updateNode cleans n and, if it is still an effect afterwards, reruns its
// callback with the previous value. On failure the value is left as it was.
func (rt *Runtime) updateNode(n *Node, complete bool) {
	rt.cleanNode(n, complete)
	cb := n.callback
	if cb == nil {
		return
	}

	rt.hooks.NodeUpdated(n.kind)
	rt.run(n, func() error {
		value, err := cb(n.value)
		if err != nil {
			return err
		}
		if !n.disposed {
			n.value = value
		}
		return nil
	})
}

// cleanNode severs n from its sources, cleans its children, runs its cleanups
// and drops its context bindings. With complete set the node is also released
// for good and any pending flush entry for it becomes a no-op.
func (rt *Runtime) cleanNode(n *Node, complete bool) {
	for len(n.sources) > 0 {
		last := len(n.sources) - 1
		source, slot := n.sources[last], n.sourceSlots[last]
		n.sources[last] = nil
		n.sources = n.sources[:last]
		n.sourceSlots = n.sourceSlots[:last]
		source.unlink(slot)
	}

	if len(n.children) > 0 {
		children := n.children
		n.children = nil
		for _, child := range children {
			// An effect boundary completes child effects, which its next run
			// recreates. Plain scopes in between do not force it on their own.
			rt.cleanNode(child, complete || (n.callback != nil && child.callback != nil))
		}
	}

	if len(n.cleanups) > 0 {
		cleanups := n.cleanups
		n.cleanups = nil
		for i := len(cleanups) - 1; i >= 0; i-- {
			fn := cleanups[i]
			if err := capture(func() error { fn(); return nil }); err != nil {
				rt.handleError(n, err)
			}
		}
	}

	n.injections = nil

	if complete && !n.disposed {
		n.value = nil
		n.parent = nil
		n.children = nil
		n.cleanups = nil
		n.callback = nil
		n.sources = nil
		n.sourceSlots = nil
		n.disposed = true
		rt.hooks.NodeDisposed(n.kind)
	}
}

// disposeNode releases n and its whole subtree and detaches it from its owner.
func (rt *Runtime) disposeNode(n *Node) {
	if n.disposed {
		return
	}
	if p := n.parent; p != nil {
		p.removeChild(n)
	}
	rt.cleanNode(n, true)
}
