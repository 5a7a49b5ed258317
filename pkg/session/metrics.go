package session

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "sessionkit"

// Metrics holds Prometheus collectors for the session lifecycle.
// All methods are nil-safe: calls on a nil *Metrics are no-ops.
type Metrics struct {
	// FinalizeTotal counts finalized requests by action and result ("ok", "error").
	FinalizeTotal *prometheus.CounterVec

	// StoreDuration observes store call latency by store and operation.
	StoreDuration *prometheus.HistogramVec

	// StoreErrors counts failed store calls by store and operation.
	StoreErrors *prometheus.CounterVec

	// SweepRemoved counts records removed by cleanup sweeps.
	SweepRemoved *prometheus.CounterVec

	// SweepErrors counts failed cleanup sweeps.
	SweepErrors *prometheus.CounterVec
}

// NewMetrics creates session metrics and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FinalizeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "session",
			Name:      "finalize_total",
			Help:      "Total number of finalized sessions, by action and result.",
		}, []string{"action", "result"}),
		StoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Latency of session store operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"store", "op"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Total number of failed session store operations.",
		}, []string{"store", "op"}),
		SweepRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cleanup",
			Name:      "removed_total",
			Help:      "Total number of expired sessions removed by sweeps.",
		}, []string{"store"}),
		SweepErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cleanup",
			Name:      "errors_total",
			Help:      "Total number of failed cleanup sweeps.",
		}, []string{"store"}),
	}

	if reg != nil {
		reg.MustRegister(m.FinalizeTotal, m.StoreDuration, m.StoreErrors, m.SweepRemoved, m.SweepErrors)
	}
	return m
}

func (m *Metrics) observeFinalize(action Action, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.FinalizeTotal.WithLabelValues(action.String(), result).Inc()
}

func (m *Metrics) observeStore(store, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.StoreDuration.WithLabelValues(store, op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(store, op).Inc()
	}
}

func (m *Metrics) observeSweep(store string, removed int64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SweepErrors.WithLabelValues(store).Inc()
		return
	}
	m.SweepRemoved.WithLabelValues(store).Add(float64(removed))
}

// InstrumentedStore decorates a Store with latency and error metrics.
type InstrumentedStore struct {
	next    Store
	name    string
	metrics *Metrics
}

// Instrument wraps store. name becomes the "store" label.
func Instrument(store Store, name string, metrics *Metrics) *InstrumentedStore {
	return &InstrumentedStore{next: store, name: name, metrics: metrics}
}

func (s *InstrumentedStore) Get(ctx context.Context, id string) (Values, error) {
	start := time.Now()
	data, err := s.next.Get(ctx, id)
	s.metrics.observeStore(s.name, "get", start, err)
	return data, err
}

func (s *InstrumentedStore) Set(ctx context.Context, id string, data Values, expiresAt time.Time) error {
	start := time.Now()
	err := s.next.Set(ctx, id, data, expiresAt)
	s.metrics.observeStore(s.name, "set", start, err)
	return err
}

func (s *InstrumentedStore) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	start := time.Now()
	err := s.next.Touch(ctx, id, expiresAt)
	s.metrics.observeStore(s.name, "touch", start, err)
	return err
}

func (s *InstrumentedStore) Destroy(ctx context.Context, id string) error {
	start := time.Now()
	err := s.next.Destroy(ctx, id)
	s.metrics.observeStore(s.name, "destroy", start, err)
	return err
}

// Unwrap returns the decorated store.
func (s *InstrumentedStore) Unwrap() Store {
	return s.next
}
