package reactive

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/cespare/xxhash/v2"
)

// Error handlers live in the same injection maps as context values, under a
// token no Injection id can take.
var errorHandlersID = xxhash.Sum64String("tendril.reactive.errors") | 1<<63

type ErrorHandler func(err error)

// PanicError wraps a value recovered from a panicking callback.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("reactive: callback panicked: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// capture runs fn, turning a panic into a *PanicError.
func capture(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// OnError registers handler for failures of the active node and every node it
// owns. Without an active node the call does nothing.
func (rt *Runtime) OnError(handler ErrorHandler) {
	n := rt.current
	if n == nil || n.disposed || handler == nil {
		return
	}

	// copy so a slice shared with another node is never appended to in place
	prev, _ := n.injections[errorHandlersID].([]ErrorHandler)
	handlers := make([]ErrorHandler, 0, len(prev)+1)
	handlers = append(handlers, prev...)
	handlers = append(handlers, handler)

	if n.injections == nil {
		n.injections = map[uint64]any{}
	}
	n.injections[errorHandlersID] = handlers
}

// CatchError runs fn in a new scope whose failures, and those of everything
// created under it, go to handler.
func (rt *Runtime) CatchError(fn func() error, handler ErrorHandler) (dispose func()) {
	injections := map[uint64]any{}
	if handler != nil {
		injections[errorHandlersID] = []ErrorHandler{handler}
	}
	return rt.openScope(injections, func(func()) error {
		if fn == nil {
			return nil
		}
		return fn()
	})
}

// handleError hands err to the nearest handlers above from, or to the host
// when there are none. A handler that panics is reported to the host and the
// remaining handlers still run.
func (rt *Runtime) handleError(from *Node, err error) {
	v, _ := from.lookup(errorHandlersID)
	handlers, _ := v.([]ErrorHandler)

	rt.hooks.ErrorRouted(err, len(handlers) > 0)
	if len(handlers) == 0 {
		rt.host.ReportError(err)
		return
	}
	for _, handler := range handlers {
		if herr := capture(func() error { handler(err); return nil }); herr != nil {
			rt.host.ReportError(herr)
		}
	}
}

// IsPanic reports whether err came from a recovered panic.
func IsPanic(err error) bool {
	var p *PanicError
	return errors.As(err, &p)
}
