// Package metrics provides Prometheus metrics for the FunnelForge service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CloneOperationsTotal tracks workspace clone attempts by outcome
	CloneOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "funnelforge",
			Subsystem: "clone",
			Name:      "operations_total",
			Help:      "Total number of workspace clone operations by outcome",
		},
		[]string{"outcome"},
	)

	// CloneDuration tracks end-to-end clone duration in seconds
	CloneDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "funnelforge",
			Subsystem: "clone",
			Name:      "duration_seconds",
			Help:      "Duration of workspace clone operations in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// CloneEntitiesCopied tracks rows written per clone by entity kind
	CloneEntitiesCopied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "funnelforge",
			Subsystem: "clone",
			Name:      "entities_copied_total",
			Help:      "Total number of entity rows written by clone operations",
		},
		[]string{"entity"},
	)

	// SlugProbeAttempts tracks how many candidates the slug allocator tried
	SlugProbeAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "funnelforge",
			Subsystem: "clone",
			Name:      "slug_probe_attempts",
			Help:      "Number of candidate slugs probed before one was free",
			Buckets:   []float64{1, 2, 3, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	// CacheOperationsTotal tracks cache hits and misses per key family
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "funnelforge",
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Total number of cache operations by key family and result",
		},
		[]string{"key_family", "result"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "funnelforge",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// ProvisionerRunsTotal tracks post-clone provisioning outcomes
	ProvisionerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "funnelforge",
			Subsystem: "provisioner",
			Name:      "runs_total",
			Help:      "Total number of post-clone provisioning runs by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordClone records a clone operation outcome and its duration
func RecordClone(outcome string, durationSeconds float64) {
	CloneOperationsTotal.WithLabelValues(outcome).Inc()
	CloneDuration.Observe(durationSeconds)
}

// RecordCacheOperation records a cache lookup result
func RecordCacheOperation(keyFamily, result string) {
	CacheOperationsTotal.WithLabelValues(keyFamily, result).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}
