package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records engine telemetry in Prometheus metrics.
type PromSink struct {
	ingests       prometheus.Counter
	entities      *prometheus.GaugeVec
	derivations   prometheus.Histogram
	assignments   *prometheus.CounterVec
	notifyFailure prometheus.Counter
}

// NewPromSink registers the engine collectors on the provided registerer.
// If reg is nil, the default registerer is used. Collectors that are
// already registered are reused, so repeated construction is safe.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	s := &PromSink{
		ingests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workforce_snapshot_ingests_total",
			Help: "Feed documents accepted into the store",
		}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "workforce_snapshot_entities",
			Help: "Entity counts of the latest ingested snapshot",
		}, []string{"kind"}),
		derivations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "workforce_derivation_duration_seconds",
			Help:    "Time spent recomputing the derived aggregates",
			Buckets: prometheus.DefBuckets,
		}),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workforce_assignments_total",
			Help: "Assignment attempts by outcome",
		}, []string{"outcome"}),
		notifyFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workforce_notification_failures_total",
			Help: "Notifications that failed after a committed assignment",
		}),
	}

	if err := reg.Register(s.ingests); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.ingests = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(s.entities); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.entities = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(s.derivations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.derivations = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(s.assignments); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.assignments = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(s.notifyFailure); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.notifyFailure = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}

	return s, nil
}

func (s *PromSink) SnapshotIngested(tasks, employees int) {
	s.ingests.Inc()
	s.entities.WithLabelValues("tasks").Set(float64(tasks))
	s.entities.WithLabelValues("employees").Set(float64(employees))
}

func (s *PromSink) DerivationCompleted(d time.Duration) {
	s.derivations.Observe(d.Seconds())
}

func (s *PromSink) AssignmentCommitted() {
	s.assignments.WithLabelValues("committed").Inc()
}

func (s *PromSink) AssignmentFailed() {
	s.assignments.WithLabelValues("store_failed").Inc()
}

func (s *PromSink) NotificationFailed() {
	s.notifyFailure.Inc()
}
