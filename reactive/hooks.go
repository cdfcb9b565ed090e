package reactive

import "time"

// Hooks observes the scheduler. Implementations run synchronously on the
// runtime's goroutine and must not touch the graph.
type Hooks interface {
	// Flushed is called once per flush with the number of node updates it ran.
	Flushed(updates int, elapsed time.Duration)
	// NodeUpdated is called every time an effect callback runs and once for
	// each scope body.
	NodeUpdated(kind Kind)
	// ErrorRouted is called for every callback failure; handled reports whether
	// an error handler received it.
	ErrorRouted(err error, handled bool)
	// NodeDisposed is called when a node is permanently released.
	NodeDisposed(kind Kind)
}

type NopHooks struct{}

func (NopHooks) Flushed(int, time.Duration) {}
func (NopHooks) NodeUpdated(Kind)           {}
func (NopHooks) ErrorRouted(error, bool)    {}
func (NopHooks) NodeDisposed(Kind)          {}
