package metrics

import (
	"errors"
	"testing"

	"github.com/delaneyj/tendril/reactive"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(WithRegistry(reg))
	rt := reactive.NewRuntime(reactive.WithHooks(collector))
	boom := errors.New("boom")

	s := reactive.NewSignal(rt, 0)
	var effect *reactive.Computation[struct{}]
	rt.CatchError(func() error {
		effect = reactive.Effect(rt, func() error {
			if s.Get() == 1 {
				return boom
			}
			return nil
		})
		return nil
	}, func(error) {})
	reactive.Effect(rt, func() error {
		if s.Get() == 2 {
			return boom
		}
		return nil
	})

	s.Set(1)
	require.NoError(t, rt.Drain())
	s.Set(2)
	require.ErrorIs(t, rt.Drain(), boom)
	effect.Dispose()

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.flushes))
	assert.Equal(t, 6.0, testutil.ToFloat64(collector.updates.WithLabelValues("effect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.updates.WithLabelValues("scope")), "the catch scope body ran once")
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.errors.WithLabelValues("handled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.errors.WithLabelValues("uncaught")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.disposals.WithLabelValues("effect")))

	count, err := testutil.GatherAndCount(reg, "tendril_reactive_flush_updates")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCollectorOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(
		WithRegistry(reg),
		WithNamespace("app"),
		WithSubsystem("ui"),
		WithConstLabels(prometheus.Labels{"instance": "test"}),
	)
	collector.Flushed(3, 0)

	count, err := testutil.GatherAndCount(reg, "app_ui_flushes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
