package reactive

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Batch runs fn and defers the updates its writes cause to one flush on the
// host's microtask queue. While a batch is open, including during the flush
// itself, further writes only join the pending set.
func (rt *Runtime) Batch(fn func()) {
	if rt.pending != nil {
		fn()
		return
	}

	rt.pending = mapset.NewThreadUnsafeSet[*Node]()
	defer rt.host.QueueMicrotask(rt.flush)
	fn()
}

func (rt *Runtime) schedule(n *Node) {
	if rt.pending.Add(n) {
		rt.queue = append(rt.queue, n)
	}
}

// flush updates pending nodes oldest first until none are left. A node that is
// scheduled again while the flush runs, by its own run or a later one, runs
// again in this same flush. If a panic cuts the flush short, the nodes still
// queued are left pending and another flush is queued for them.
func (rt *Runtime) flush() {
	if rt.pending == nil {
		return
	}

	done := false
	defer func() {
		if done {
			return
		}
		if len(rt.queue) == 0 {
			rt.pending = nil
			rt.queue = nil
			return
		}
		rt.host.QueueMicrotask(rt.flush)
	}()

	start := time.Now()
	updates := 0
	for len(rt.queue) > 0 {
		n := rt.queue[0]
		rt.queue[0] = nil
		rt.queue = rt.queue[1:]
		rt.pending.Remove(n)

		rt.updateNode(n, false)
		updates++
	}
	rt.pending = nil
	rt.queue = nil
	done = true

	elapsed := time.Since(start)
	rt.hooks.Flushed(updates, elapsed)
	rt.logger.Debug("reactive flush", "updates", updates, "elapsed", elapsed)
}
