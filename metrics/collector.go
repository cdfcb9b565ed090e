// Package metrics exports reactive scheduler activity to Prometheus.
package metrics

import (
	"time"

	"github.com/delaneyj/tendril/reactive"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Config struct {
	Namespace   string
	Subsystem   string
	ConstLabels prometheus.Labels
	// Buckets for the flush duration histogram, in seconds.
	Buckets []float64
	// Defaults to prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

type Option func(*Config)

func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "tendril",
		Subsystem: "reactive",
		Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector is a reactive.Hooks that records into Prometheus metrics.
type Collector struct {
	flushes       prometheus.Counter
	flushSize     prometheus.Histogram
	flushDuration prometheus.Histogram
	updates       *prometheus.CounterVec
	errors        *prometheus.CounterVec
	disposals     *prometheus.CounterVec
}

var _ reactive.Hooks = (*Collector)(nil)

// NewCollector registers the collector's metrics. Registering twice on the same
// registry panics, as promauto does.
func NewCollector(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of scheduler flushes",
			ConstLabels: config.ConstLabels,
		}),

		flushSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_updates",
			Help:        "Node updates run per flush",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 4, 8),
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		updates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "node_updates_total",
			Help:        "Total number of node callback runs",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of callback failures by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		disposals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "node_disposals_total",
			Help:        "Total number of nodes released",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
	}
}

func (c *Collector) Flushed(updates int, elapsed time.Duration) {
	c.flushes.Inc()
	c.flushSize.Observe(float64(updates))
	c.flushDuration.Observe(elapsed.Seconds())
}

func (c *Collector) NodeUpdated(kind reactive.Kind) {
	c.updates.WithLabelValues(kind.String()).Inc()
}

func (c *Collector) ErrorRouted(_ error, handled bool) {
	outcome := "uncaught"
	if handled {
		outcome = "handled"
	}
	c.errors.WithLabelValues(outcome).Inc()
}

func (c *Collector) NodeDisposed(kind reactive.Kind) {
	c.disposals.WithLabelValues(kind.String()).Inc()
}
