// Package metrics exposes the Prometheus instruments the submitter,
// watcher, and queue update, grounded on the teacher's direct
// prometheus/client_golang dependency.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles per-direction counters and gauges. One instance is
// registered per process and shared by every direction; each series is
// labelled by direction name so E2S and S2E stay distinguishable on one
// /metrics endpoint.
type Metrics struct {
	EventsWatched      *prometheus.CounterVec
	SignaturesProduced *prometheus.CounterVec
	SubmissionsSent    *prometheus.CounterVec
	SubmissionsRetried *prometheus.CounterVec
	SubmissionsDropped *prometheus.CounterVec
	SubmissionsStuck   *prometheus.GaugeVec
	QueueDepth         *prometheus.GaugeVec
}

// New registers the relayer's metric families on reg and returns the
// handle used by the watcher/submitter/direction glue.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsWatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge_relayer",
			Name:      "events_watched_total",
			Help:      "StakeEvents decoded by the chain watcher.",
		}, []string{"direction"}),
		SignaturesProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge_relayer",
			Name:      "signatures_produced_total",
			Help:      "Signatures produced by the relayer signer.",
		}, []string{"direction"}),
		SubmissionsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge_relayer",
			Name:      "submissions_sent_total",
			Help:      "Destination-chain submitSignature calls that were sent.",
		}, []string{"direction"}),
		SubmissionsRetried: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge_relayer",
			Name:      "submissions_retried_total",
			Help:      "Queue entries kept after a retryable submission failure.",
		}, []string{"direction"}),
		SubmissionsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bridge_relayer",
			Name:      "submissions_dropped_total",
			Help:      "Queue entries removed after a non-retryable submission failure.",
		}, []string{"direction"}),
		SubmissionsStuck: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "bridge_relayer",
			Name:      "submissions_stuck",
			Help:      "Queue entries past QUEUE__RETRY_LIMIT that are still queued and retrying (observability only; never auto-dropped).",
		}, []string{"direction"}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "bridge_relayer",
			Name:      "queue_depth",
			Help:      "Pending entries in the durable event queue.",
		}, []string{"direction"}),
	}

	reg.MustRegister(
		m.EventsWatched,
		m.SignaturesProduced,
		m.SubmissionsSent,
		m.SubmissionsRetried,
		m.SubmissionsDropped,
		m.SubmissionsStuck,
		m.QueueDepth,
	)
	return m
}
