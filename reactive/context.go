package reactive

import "sync/atomic"

var injectionIDs atomic.Uint64

// Injection is a context key: a unique id plus the value Inject returns when
// no ancestor provides one.
type Injection[T any] struct {
	id           uint64
	name         string
	defaultValue T
}

func NewInjection[T any](name string, defaultValue T) *Injection[T] {
	return &Injection[T]{
		id:           injectionIDs.Add(1),
		name:         name,
		defaultValue: defaultValue,
	}
}

func (i *Injection[T]) Name() string {
	return i.name
}

func (i *Injection[T]) Default() T {
	return i.defaultValue
}

// Provide runs fn in a new scope that binds inj to value for everything
// created inside it.
func Provide[T any](rt *Runtime, inj *Injection[T], value T, fn func() error) (dispose func()) {
	return rt.openScope(map[uint64]any{inj.id: value}, func(func()) error {
		if fn == nil {
			return nil
		}
		return fn()
	})
}

// Inject resolves inj against the active node's ancestry once, at call time.
// The result is not tracked; providing a new value later does not rerun the
// caller.
func Inject[T any](rt *Runtime, inj *Injection[T]) T {
	if v, ok := rt.current.lookup(inj.id); ok {
		if t, ok := v.(T); ok {
			return t
		}
	}
	return inj.defaultValue
}
