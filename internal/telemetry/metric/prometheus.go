package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "zumi"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Privacy operations
	OperationsCreated *prometheus.CounterVec // type
	OperationsFailed  *prometheus.CounterVec // type, code
	StatusUpdates     *prometheus.CounterVec // status
	VersionRetries    prometheus.Counter
	WebhooksReceived  *prometheus.CounterVec // source

	// Proofs and balances
	ProofVerifications *prometheus.CounterVec // result
	BalanceLookups     *prometheus.CounterVec // source

	// Maintenance
	SweepRuns     prometheus.Counter
	SessionsSwept prometheus.Counter
	SweepErrors   prometheus.Counter
	SweepDuration prometheus.Histogram

	// HTTP
	RequestsTotal   *prometheus.CounterVec   // method, route, status
	RequestDuration *prometheus.HistogramVec // method, route
}

// NewRegistry creates a registry with the Go runtime and process collectors
// already registered.
func NewRegistry() *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}

	r.OperationsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "privacy",
		Name:      "operations_created_total",
		Help:      "Privacy operations accepted, by type",
	}, []string{"type"})
	r.OperationsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "privacy",
		Name:      "operations_failed_total",
		Help:      "Privacy operations rejected, by type and error code",
	}, []string{"type", "code"})
	r.StatusUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "privacy",
		Name:      "status_updates_total",
		Help:      "Session status updates applied, by target status",
	}, []string{"status"})
	r.VersionRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "privacy",
		Name:      "version_conflict_retries_total",
		Help:      "Status updates retried after an optimistic version conflict",
	})
	r.WebhooksReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "privacy",
		Name:      "webhooks_received_total",
		Help:      "Chain notifications ingested, by source",
	}, []string{"source"})

	r.ProofVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "proof",
		Name:      "verifications_total",
		Help:      "Proof verifications, by result",
	}, []string{"result"})
	r.BalanceLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "balance",
		Name:      "lookups_total",
		Help:      "Balance lookups, by source (cache or chain)",
	}, []string{"source"})

	r.SweepRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sweeper",
		Name:      "runs_total",
		Help:      "Completed expired-session sweeps",
	})
	r.SessionsSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sweeper",
		Name:      "sessions_deleted_total",
		Help:      "Sessions deleted by the sweeper",
	})
	r.SweepErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sweeper",
		Name:      "errors_total",
		Help:      "Sweeps that failed",
	})
	r.SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sweeper",
		Name:      "duration_seconds",
		Help:      "Sweep duration in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	r.RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests, by method, route and status",
	}, []string{"method", "route", "status"})
	r.RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"method", "route"})

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.OperationsCreated,
		r.OperationsFailed,
		r.StatusUpdates,
		r.VersionRetries,
		r.WebhooksReceived,
		r.ProofVerifications,
		r.BalanceLookups,
		r.SweepRuns,
		r.SessionsSwept,
		r.SweepErrors,
		r.SweepDuration,
		r.RequestsTotal,
		r.RequestDuration,
	)
	return r
}

// Registerer lets other components (storage backends, collectors) attach
// their own metrics.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.reg
}

// Gatherer returns the underlying gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns the /metrics HTTP handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
