package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by every operation counter.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	CacheLookups      *prometheus.CounterVec
	EventsAppended    *prometheus.CounterVec
	EventsRelayed     prometheus.Counter
	RelayFailures     prometheus.Counter
	SaleVolume        prometheus.Counter
}

// New creates and registers all metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_operations_total",
			Help: "Mutating operations by module, operation and outcome",
		}, []string{"module", "operation", "outcome"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_operation_duration_seconds",
			Help:    "Latency of mutating operations including lock wait",
			Buckets: prometheus.DefBuckets,
		}, []string{"module", "operation"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_resolver_cache_lookups_total",
			Help: "Resolution cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		EventsAppended: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_events_appended_total",
			Help: "Events appended to the log by type",
		}, []string{"type"}),
		EventsRelayed: f.NewCounter(prometheus.CounterOpts{
			Name: "registrar_events_relayed_total",
			Help: "Events published to Kafka by the relay",
		}),
		RelayFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "registrar_event_relay_failures_total",
			Help: "Relay batches that failed to publish",
		}),
		SaleVolume: f.NewCounter(prometheus.CounterOpts{
			Name: "registrar_marketplace_sale_volume_total",
			Help: "Sum of settled sale prices",
		}),
	}
}

// ObserveOperation records one finished operation.
func (m *Metrics) ObserveOperation(module, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.Operations.WithLabelValues(module, operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(module, operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) IncEventAppended(eventType string) {
	if m == nil {
		return
	}
	m.EventsAppended.WithLabelValues(eventType).Inc()
}

func (m *Metrics) AddEventsRelayed(n int) {
	if m == nil {
		return
	}
	m.EventsRelayed.Add(float64(n))
}

func (m *Metrics) IncRelayFailure() {
	if m == nil {
		return
	}
	m.RelayFailures.Inc()
}

func (m *Metrics) AddSaleVolume(v float64) {
	if m == nil {
		return
	}
	m.SaleVolume.Add(v)
}
