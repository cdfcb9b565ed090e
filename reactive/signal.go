package reactive

// subscribers is the source half of the dependency edges. nodes[i] reads this
// source and nodeSlots[i] is the index of the matching entry in that node's
// sources, so either side can drop an edge without scanning.
type subscribers struct {
	nodes     []*Node
	nodeSlots []int
}

// unlink drops the edge at slot with a swap-remove, patching the reverse slot
// of the edge that moves into its place.
func (s *subscribers) unlink(slot int) {
	last := len(s.nodes) - 1
	if slot < last {
		moved, movedSlot := s.nodes[last], s.nodeSlots[last]
		s.nodes[slot] = moved
		s.nodeSlots[slot] = movedSlot
		moved.sourceSlots[movedSlot] = slot
	}
	s.nodes[last] = nil
	s.nodes = s.nodes[:last]
	s.nodeSlots = s.nodeSlots[:last]
}

// Signal is a reactive cell. Reading it from a running effect subscribes the
// effect; writing it schedules every subscriber for the next flush.
type Signal[T any] struct {
	subscribers

	rt    *Runtime
	value T
}

type Getter[T any] func() T
type Setter[T any] func(value T)

func NewSignal[T any](rt *Runtime, value T) *Signal[T] {
	return &Signal[T]{rt: rt, value: value}
}

// CreateSignal returns accessor functions for a new signal.
func CreateSignal[T any](rt *Runtime, value T) (Getter[T], Setter[T]) {
	s := NewSignal(rt, value)
	return s.Get, s.Set
}

func (s *Signal[T]) Get() T {
	s.rt.track(&s.subscribers)
	return s.value
}

// Peek reads the value without subscribing the active node.
func (s *Signal[T]) Peek() T {
	return s.value
}

// Set stores value and marks every subscriber dirty. There is no equality
// check: writing the current value again still reruns dependents.
func (s *Signal[T]) Set(value T) {
	s.value = value
	s.rt.notify(&s.subscribers)
}

func (s *Signal[T]) Update(fn func(prev T) T) {
	s.Set(fn(s.value))
}

// Subscribers is the number of live edges into this signal. Reading the same
// signal twice in one run counts twice.
func (s *Signal[T]) Subscribers() int {
	return len(s.nodes)
}

func (rt *Runtime) track(s *subscribers) {
	n := rt.current
	if n == nil || n.callback == nil {
		return
	}
	n.sources = append(n.sources, s)
	n.sourceSlots = append(n.sourceSlots, len(s.nodes))
	s.nodes = append(s.nodes, n)
	s.nodeSlots = append(s.nodeSlots, len(n.sources)-1)
}

func (rt *Runtime) notify(s *subscribers) {
	if len(s.nodes) == 0 {
		return
	}
	rt.Batch(func() {
		for _, n := range s.nodes {
			rt.schedule(n)
		}
	})
}
