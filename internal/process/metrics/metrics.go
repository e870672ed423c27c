package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the process engine.
// All methods are nil-safe so services can run without metrics wired in.
type Metrics struct {
	ProcessesCreated    prometheus.Counter
	ProcessesDeleted    prometheus.Counter
	ValidationsRun      prometheus.Counter
	ReadinessScore      prometheus.Histogram
	PersistenceWrites   *prometheus.CounterVec
	PersistenceDuration prometheus.Histogram
	PersistenceDropped  prometheus.Counter
}

// New registers the process metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProcessesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "clarity_processes_created_total",
			Help: "Total number of processes created",
		}),
		ProcessesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "clarity_processes_deleted_total",
			Help: "Total number of processes deleted",
		}),
		ValidationsRun: factory.NewCounter(prometheus.CounterOpts{
			Name: "clarity_validations_total",
			Help: "Total number of full validation passes",
		}),
		ReadinessScore: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "clarity_readiness_score",
			Help:    "Readiness score produced by full validation",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		PersistenceWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clarity_persistence_writes_total",
			Help: "Snapshot writes to the backing store by result",
		}, []string{"result"}),
		PersistenceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "clarity_persistence_write_duration_seconds",
			Help:    "Duration of snapshot writes to the backing store",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		PersistenceDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "clarity_persistence_superseded_total",
			Help: "Snapshots replaced by a newer one before they were written",
		}),
	}
}

// IncrementProcessCreated records a created process.
func (m *Metrics) IncrementProcessCreated() {
	if m == nil {
		return
	}
	m.ProcessesCreated.Inc()
}

// IncrementProcessDeleted records a deleted process.
func (m *Metrics) IncrementProcessDeleted() {
	if m == nil {
		return
	}
	m.ProcessesDeleted.Inc()
}

// ObserveValidation records a validation pass and the score it produced.
func (m *Metrics) ObserveValidation(score int) {
	if m == nil {
		return
	}
	m.ValidationsRun.Inc()
	m.ReadinessScore.Observe(float64(score))
}

// ObservePersistenceWrite records a write attempt.
// Call with time.Now() at the start of the write.
func (m *Metrics) ObservePersistenceWrite(start time.Time, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.PersistenceWrites.WithLabelValues(result).Inc()
	m.PersistenceDuration.Observe(time.Since(start).Seconds())
}

// IncrementSnapshotSuperseded records a pending snapshot replaced before write.
func (m *Metrics) IncrementSnapshotSuperseded() {
	if m == nil {
		return
	}
	m.PersistenceDropped.Inc()
}
