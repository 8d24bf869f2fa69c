// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track API request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Ingestion metrics track feed crawling and entry creation
var (
	// EntriesTotal tracks total number of entries in the database
	EntriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "entries_total",
			Help: "Total number of entries in the database",
		},
	)

	// EntriesIngestedTotal counts ingestion outcomes by result
	// (created, duplicate, invalid).
	EntriesIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entries_ingested_total",
			Help: "Total number of ingestion attempts by outcome",
		},
		[]string{"outcome"},
	)

	// FeedCrawlDuration measures time to crawl a feed
	FeedCrawlDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_crawl_duration_seconds",
			Help:    "Time taken to crawl a feed",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"feed_id"},
	)

	// FeedCrawlErrors counts errors during feed crawling
	FeedCrawlErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_crawl_errors_total",
			Help: "Total number of feed crawl errors",
		},
		[]string{"feed_id", "error_type"},
	)
)

// Enrichment metrics track the annotation/sentiment pipeline
var (
	// EntriesEnrichedTotal counts enrichment attempts by status
	EntriesEnrichedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entries_enriched_total",
			Help: "Total number of entry enrichment attempts",
		},
		[]string{"status"},
	)

	// EnrichmentDuration measures time to enrich a single entry
	EnrichmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "enrichment_duration_seconds",
			Help:    "Time taken to enrich an entry",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// AnnotatorRequestDuration measures the external NLP call latency by operation
	AnnotatorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "annotator_request_duration_seconds",
			Help:    "External NLP service request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)
)

// Search metrics track index size and query performance
var (
	// SearchQueryDuration measures search query duration
	SearchQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_query_duration_seconds",
			Help:    "Search query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SearchIndexDocuments tracks the number of documents in the search index
	SearchIndexDocuments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_index_documents",
			Help: "Number of documents currently in the search index",
		},
	)
)

// Notification metrics track webhook/queue dispatching
var (
	// NotificationsDispatchedTotal counts dispatch attempts per channel
	NotificationsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of notification dispatch attempts",
		},
		[]string{"channel"},
	)

	// NotificationsDeliveredTotal counts deliveries per channel and status
	NotificationsDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Total number of notification deliveries by status",
		},
		[]string{"channel", "status"},
	)

	// NotificationsDroppedTotal counts notifications dropped before delivery
	NotificationsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Total number of notifications dropped before delivery",
		},
		[]string{"channel", "reason"},
	)

	// NotificationDeliveryDuration measures delivery duration per channel
	NotificationDeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_delivery_duration_seconds",
			Help:    "Notification delivery duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)

	// NotificationGoroutinesActive tracks in-flight notification goroutines
	NotificationGoroutinesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_goroutines_active",
			Help: "Number of active notification goroutines",
		},
	)
)
