package reactive_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/tendril/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeDisposal(t *testing.T) {
	t.Run("cleanups run once in reverse registration order", func(t *testing.T) {
		rt := reactive.NewRuntime()

		var order []string
		dispose := rt.Scope(func(func()) error {
			for _, name := range []string{"a", "b", "c", "d"} {
				name := name
				rt.OnCleanup(func() { order = append(order, name) })
			}
			return nil
		})
		assert.Empty(t, order)

		dispose()
		assert.Equal(t, []string{"d", "c", "b", "a"}, order)

		dispose()
		assert.Equal(t, []string{"d", "c", "b", "a"}, order, "second dispose is a no-op")
	})

	/*
	   root scope
	   ├── cleanup "root"
	   ├── child scope
	   │   ├── cleanup "child"
	   │   └── grandchild scope
	   │       └── cleanup "grandchild"
	   └── effect
	       └── cleanup "effect"
	*/
	t.Run("descendants are released before their owner", func(t *testing.T) {
		hooks := &recordingHooks{}
		rt := reactive.NewRuntime(reactive.WithHooks(hooks))
		s := reactive.NewSignal(rt, 0)

		var order []string
		var effect *reactive.Computation[struct{}]
		dispose := rt.Scope(func(func()) error {
			rt.OnCleanup(func() { order = append(order, "root") })
			rt.Scope(func(func()) error {
				rt.OnCleanup(func() { order = append(order, "child") })
				rt.Scope(func(func()) error {
					rt.OnCleanup(func() { order = append(order, "grandchild") })
					return nil
				})
				return nil
			})
			effect = reactive.Effect(rt, func() error {
				s.Get()
				rt.OnCleanup(func() { order = append(order, "effect") })
				return nil
			})
			return nil
		})
		require.Equal(t, 1, s.Subscribers())

		dispose()
		assert.Equal(t, []string{"grandchild", "child", "effect", "root"}, order)
		assert.True(t, effect.Disposed())
		assert.Equal(t, 0, s.Subscribers())
		assert.Equal(t, 3, hooks.disposals[reactive.KindScope])
		assert.Equal(t, 1, hooks.disposals[reactive.KindEffect])

		s.Set(1)
		require.NoError(t, rt.Drain())
		assert.Len(t, order, 4)
	})

	t.Run("dispose from inside the scope", func(t *testing.T) {
		rt := reactive.NewRuntime()
		s := reactive.NewSignal(rt, 0)

		runs := 0
		rt.Scope(func(dispose func()) error {
			reactive.Effect(rt, func() error {
				runs++
				if s.Get() > 0 {
					dispose()
				}
				return nil
			})
			return nil
		})

		s.Set(1)
		require.NoError(t, rt.Drain())
		assert.Equal(t, 2, runs)
		assert.Equal(t, 0, s.Subscribers())

		s.Set(2)
		require.NoError(t, rt.Drain())
		assert.Equal(t, 2, runs)
	})

	t.Run("disposed pending effect is skipped", func(t *testing.T) {
		rt := reactive.NewRuntime()
		s := reactive.NewSignal(rt, 0)

		runs := 0
		c := reactive.Effect(rt, func() error {
			s.Get()
			runs++
			return nil
		})

		s.Set(1)
		c.Dispose()
		require.NoError(t, rt.Drain())
		assert.Equal(t, 1, runs)
		assert.True(t, c.Disposed())
	})

	t.Run("effect under a plain scope is cleaned but kept on owner rerun", func(t *testing.T) {
		rt := reactive.NewRuntime()
		outer := reactive.NewSignal(rt, 0)
		inner := reactive.NewSignal(rt, 0)

		cleanups := 0
		var first *reactive.Computation[struct{}]
		reactive.Effect(rt, func() error {
			outer.Get()
			rt.Scope(func(func()) error {
				c := reactive.Effect(rt, func() error {
					inner.Get()
					rt.OnCleanup(func() { cleanups++ })
					return nil
				})
				if first == nil {
					first = c
				}
				return nil
			})
			return nil
		})

		outer.Set(1)
		require.NoError(t, rt.Drain())
		assert.Equal(t, 1, cleanups)
		assert.False(t, first.Disposed())
		assert.Equal(t, 1, inner.Subscribers(), "only the recreated effect is subscribed")
	})
}

func TestContext(t *testing.T) {
	theme := reactive.NewInjection("theme", "light")

	t.Run("nearest provider wins", func(t *testing.T) {
		rt := reactive.NewRuntime()

		var outer, inner, nested string
		reactive.Provide(rt, theme, "dark", func() error {
			outer = reactive.Inject(rt, theme)
			reactive.Provide(rt, theme, "solarized", func() error {
				rt.Scope(func(func()) error {
					nested = reactive.Inject(rt, theme)
					return nil
				})
				inner = reactive.Inject(rt, theme)
				return nil
			})
			return nil
		})

		assert.Equal(t, "dark", outer)
		assert.Equal(t, "solarized", inner)
		assert.Equal(t, "solarized", nested)
	})

	t.Run("default without a provider", func(t *testing.T) {
		rt := reactive.NewRuntime()
		assert.Equal(t, "light", reactive.Inject(rt, theme))

		var got string
		rt.Scope(func(func()) error {
			got = reactive.Inject(rt, theme)
			return nil
		})
		assert.Equal(t, "light", got)
		assert.Equal(t, "theme", theme.Name())
	})

	t.Run("effects resolve through their owner on every run", func(t *testing.T) {
		rt := reactive.NewRuntime()
		s := reactive.NewSignal(rt, 0)

		var seen []string
		reactive.Provide(rt, theme, "dark", func() error {
			reactive.Effect(rt, func() error {
				s.Get()
				seen = append(seen, reactive.Inject(rt, theme))
				return nil
			})
			return nil
		})

		s.Set(1)
		require.NoError(t, rt.Drain())
		assert.Equal(t, []string{"dark", "dark"}, seen)
	})

	t.Run("injections are distinct per key", func(t *testing.T) {
		rt := reactive.NewRuntime()
		other := reactive.NewInjection("theme", "none")

		var got string
		reactive.Provide(rt, theme, "dark", func() error {
			got = reactive.Inject(rt, other)
			return nil
		})
		assert.Equal(t, "none", got)
	})
}

func TestErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("sibling effect still runs", func(t *testing.T) {
		hooks := &recordingHooks{}
		rt := reactive.NewRuntime(reactive.WithHooks(hooks))
		s := reactive.NewSignal(rt, 0)

		siblingRuns := 0
		reactive.Effect(rt, func() error {
			if s.Get() > 0 {
				return boom
			}
			return nil
		})
		reactive.Effect(rt, func() error {
			s.Get()
			siblingRuns++
			return nil
		})

		s.Set(1)
		err := rt.Drain()
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 2, siblingRuns)
		assert.Equal(t, 1, hooks.uncaught)
	})

	t.Run("catch error handles the subtree", func(t *testing.T) {
		hooks := &recordingHooks{}
		rt := reactive.NewRuntime(reactive.WithHooks(hooks))
		s := reactive.NewSignal(rt, 0)

		var caught []error
		rt.CatchError(func() error {
			reactive.Effect(rt, func() error {
				if s.Get() > 0 {
					return boom
				}
				return nil
			})
			return nil
		}, func(err error) {
			caught = append(caught, err)
		})

		s.Set(1)
		require.NoError(t, rt.Drain())
		require.Len(t, caught, 1)
		assert.ErrorIs(t, caught[0], boom)
		assert.Equal(t, 1, hooks.handled)
		assert.Equal(t, 0, hooks.uncaught)
	})

	t.Run("on error registered by the failing effect", func(t *testing.T) {
		rt := reactive.NewRuntime()
		s := reactive.NewSignal(rt, 0)

		caught := 0
		reactive.Effect(rt, func() error {
			rt.OnError(func(error) { caught++ })
			if s.Get() > 0 {
				return boom
			}
			return nil
		})

		s.Set(1)
		require.NoError(t, rt.Drain())
		s.Set(2)
		require.NoError(t, rt.Drain())
		assert.Equal(t, 2, caught, "handlers are re-registered on each run, not stacked")
	})

	t.Run("handlers run in registration order", func(t *testing.T) {
		rt := reactive.NewRuntime()

		var order []string
		rt.CatchError(func() error {
			rt.OnError(func(error) { order = append(order, "second") })
			return boom
		}, func(error) {
			order = append(order, "first")
		})
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("panics are recovered", func(t *testing.T) {
		rt := reactive.NewRuntime()

		var caught error
		rt.CatchError(func() error {
			reactive.Effect(rt, func() error {
				panic("kaboom")
			})
			return nil
		}, func(err error) {
			caught = err
		})

		require.Error(t, caught)
		assert.True(t, reactive.IsPanic(caught))
		var p *reactive.PanicError
		require.ErrorAs(t, caught, &p)
		assert.Equal(t, "kaboom", p.Value)
		assert.NotEmpty(t, p.Stack)
	})

	t.Run("panicking cleanup does not stop the others", func(t *testing.T) {
		rt := reactive.NewRuntime()

		ran := 0
		dispose := rt.Scope(func(func()) error {
			rt.OnCleanup(func() { ran++ })
			rt.OnCleanup(func() { panic(boom) })
			rt.OnCleanup(func() { ran++ })
			return nil
		})
		dispose()

		assert.Equal(t, 2, ran)
		err := rt.Drain()
		require.ErrorIs(t, err, boom)
		assert.True(t, reactive.IsPanic(err))
	})

	t.Run("uncaught errors are forgotten after drain", func(t *testing.T) {
		rt := reactive.NewRuntime()
		rt.Scope(func(func()) error { return boom })

		require.ErrorIs(t, rt.Drain(), boom)
		require.NoError(t, rt.Drain())
	})
}

// panickingHooks panics from NodeUpdated on the given call, counting from 1.
type panickingHooks struct {
	reactive.NopHooks
	calls   int
	panicOn int
}

func (h *panickingHooks) NodeUpdated(reactive.Kind) {
	h.calls++
	if h.calls == h.panicOn {
		panic("hook failed")
	}
}

func TestSchedulingSurvivesPanics(t *testing.T) {
	boom := errors.New("boom")

	t.Run("panicking error handler", func(t *testing.T) {
		rt := reactive.NewRuntime()
		a := reactive.NewSignal(rt, 0)
		b := reactive.NewSignal(rt, 0)

		handled := 0
		rt.CatchError(func() error {
			reactive.Effect(rt, func() error {
				if a.Get() > 0 {
					return boom
				}
				return nil
			})
			return nil
		}, func(error) {
			handled++
			panic("handler failed")
		})

		runsB := 0
		reactive.Effect(rt, func() error {
			b.Get()
			runsB++
			return nil
		})

		a.Set(1)
		err := rt.Drain()
		require.Error(t, err)
		assert.True(t, reactive.IsPanic(err))
		assert.Equal(t, 1, handled)

		b.Set(1)
		require.NoError(t, rt.Drain())
		b.Set(2)
		require.NoError(t, rt.Drain())
		assert.Equal(t, 3, runsB)
	})

	t.Run("flush cut short by a panic finishes later", func(t *testing.T) {
		hooks := &panickingHooks{}
		rt := reactive.NewRuntime(reactive.WithHooks(hooks))
		s := reactive.NewSignal(rt, 0)

		runs := make([]int, 3)
		for i := range runs {
			reactive.Effect(rt, func() error {
				s.Get()
				runs[i]++
				return nil
			})
		}
		require.Equal(t, []int{1, 1, 1}, runs)

		hooks.panicOn = hooks.calls + 2
		s.Set(1)
		assert.Panics(t, func() { _ = rt.Drain() })
		assert.Equal(t, []int{2, 1, 1}, runs, "the second effect was dropped when the hook panicked")

		require.NoError(t, rt.Drain())
		assert.Equal(t, []int{2, 1, 2}, runs, "the rest of the queue ran in a new flush")

		assert.Equal(t, 2, s.Subscribers(), "the dropped effect was cleaned before the hook ran")
		s.Set(2)
		require.NoError(t, rt.Drain())
		assert.Equal(t, []int{3, 1, 3}, runs)
	})
}
