// Package prometheus exports relay delivery metrics to Prometheus.
package prometheus

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/fwojciec/relay"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relay"

// Delivery outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
	OutcomeCanceled = "canceled"
)

// Interface compliance check.
var _ relay.Observer = (*Metrics)(nil)

// Metrics holds relay collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	deliveries   *prometheus.CounterVec
	duration     prometheus.Histogram
	fragments    prometheus.Histogram
	sessionsOpen prometheus.Gauge
}

// New creates Metrics registered on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deliveries_total",
				Help:      "Total number of deliveries by outcome",
			},
			[]string{"outcome"}, // success, error, timeout, canceled
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "delivery_duration_seconds",
				Help:      "Duration of deliveries in seconds, session open to close",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		fragments: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fragments_per_delivery",
				Help:      "Number of text fragments received per delivery",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		sessionsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_open",
				Help:      "Number of currently open remote sessions",
			},
		),
	}
	m.registry.MustRegister(m.deliveries, m.duration, m.fragments, m.sessionsOpen)
	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler serving the registry in the exposition
// format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Observe records one finished delivery.
func (m *Metrics) Observe(r relay.Report) {
	m.deliveries.WithLabelValues(Outcome(r.Err)).Inc()
	m.duration.Observe(r.Elapsed.Seconds())
	if r.Err == nil {
		m.fragments.Observe(float64(r.Fragments))
	}
}

// Outcome classifies a delivery error into an outcome label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}

// Instrument wraps c so that the sessions it opens are counted in the
// sessions_open gauge until they are closed.
func (m *Metrics) Instrument(c relay.Connector) relay.Connector {
	return &connector{next: c, gauge: m.sessionsOpen}
}

type connector struct {
	next  relay.Connector
	gauge prometheus.Gauge
}

func (c *connector) Connect(ctx context.Context, cfg relay.ModelConfig) (relay.Session, error) {
	s, err := c.next.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.gauge.Inc()
	return &session{Session: s, gauge: c.gauge}, nil
}

type session struct {
	relay.Session
	gauge prometheus.Gauge
	once  sync.Once
}

func (s *session) Close() error {
	s.once.Do(s.gauge.Dec)
	return s.Session.Close()
}
