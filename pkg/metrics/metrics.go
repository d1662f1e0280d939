// Package metrics provides Prometheus metrics for the dedupe engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal tracks registry duplicate scans
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prestadores",
			Subsystem: "dedupe",
			Name:      "scans_total",
			Help:      "Total number of duplicate scans by status",
		},
		[]string{"status"},
	)

	// ScanDuration tracks scan duration in seconds
	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "prestadores",
			Subsystem: "dedupe",
			Name:      "scan_duration_seconds",
			Help:      "Duration of duplicate scans in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	// DuplicateGroupsFound tracks duplicate groups found per scan by match type
	DuplicateGroupsFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prestadores",
			Subsystem: "dedupe",
			Name:      "duplicate_groups_total",
			Help:      "Total number of duplicate groups found by match type",
		},
		[]string{"match_type"},
	)

	// MergesTotal tracks merge operations by mode and status
	MergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prestadores",
			Subsystem: "dedupe",
			Name:      "merges_total",
			Help:      "Total number of merge operations by mode and status",
		},
		[]string{"mode", "status"},
	)

	// MergeDuration tracks merge operation duration in seconds
	MergeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prestadores",
			Subsystem: "dedupe",
			Name:      "merge_duration_seconds",
			Help:      "Duration of merge operations in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"mode"},
	)

	// KafkaMessagesPublished tracks merge events published to Kafka
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prestadores",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)
)

// RecordScan records one duplicate scan
func RecordScan(status string, durationSeconds float64) {
	ScansTotal.WithLabelValues(status).Inc()
	ScanDuration.Observe(durationSeconds)
}

// RecordMerge records one merge operation
func RecordMerge(mode, status string, durationSeconds float64) {
	MergesTotal.WithLabelValues(mode, status).Inc()
	MergeDuration.WithLabelValues(mode).Observe(durationSeconds)
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}
