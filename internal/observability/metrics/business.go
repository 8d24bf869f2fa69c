package metrics

import (
	"fmt"
	"time"
)

// RecordEntryIngested records one ingestion attempt. Outcome should be
// "created", "duplicate", or "invalid".
func RecordEntryIngested(outcome string) {
	EntriesIngestedTotal.WithLabelValues(outcome).Inc()
}

// RecordFeedCrawl records the duration of a single feed crawl.
func RecordFeedCrawl(feedID int64, duration time.Duration) {
	FeedCrawlDuration.WithLabelValues(fmt.Sprintf("%d", feedID)).Observe(duration.Seconds())
}

// RecordFeedCrawlError records an error during feed crawling.
func RecordFeedCrawlError(feedID int64, errorType string) {
	FeedCrawlErrors.WithLabelValues(fmt.Sprintf("%d", feedID), errorType).Inc()
}

// RecordEntryEnriched records the result of an enrichment attempt.
// Status should be "success" or "failure".
func RecordEntryEnriched(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	EntriesEnrichedTotal.WithLabelValues(status).Inc()
}

// RecordEnrichmentDuration records the time taken to enrich an entry,
// including both external calls and the persistence write.
func RecordEnrichmentDuration(duration time.Duration) {
	EnrichmentDuration.Observe(duration.Seconds())
}

// RecordAnnotatorRequest records an external NLP service call.
// Operation is "annotate" or "sentiment".
func RecordAnnotatorRequest(provider, operation string, duration time.Duration) {
	AnnotatorRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordSearchQuery records the duration of a search query.
func RecordSearchQuery(duration time.Duration) {
	SearchQueryDuration.Observe(duration.Seconds())
}

// UpdateSearchIndexSize updates the indexed-document gauge.
func UpdateSearchIndexSize(count int) {
	SearchIndexDocuments.Set(float64(count))
}

// UpdateEntriesTotal updates the total count of entries in the database.
// This gauge should be refreshed periodically to reflect the current state.
func UpdateEntriesTotal(count int64) {
	EntriesTotal.Set(float64(count))
}

// RecordNotificationDispatch records a dispatch attempt for a channel.
func RecordNotificationDispatch(channel string) {
	NotificationsDispatchedTotal.WithLabelValues(channel).Inc()
}

// RecordNotificationSuccess records a successful delivery.
func RecordNotificationSuccess(channel string, duration time.Duration) {
	NotificationsDeliveredTotal.WithLabelValues(channel, "success").Inc()
	NotificationDeliveryDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordNotificationFailure records a failed delivery.
func RecordNotificationFailure(channel string, duration time.Duration) {
	NotificationsDeliveredTotal.WithLabelValues(channel, "failure").Inc()
	NotificationDeliveryDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordNotificationDropped records a notification dropped before delivery
// (worker pool saturation or an open circuit breaker).
func RecordNotificationDropped(channel, reason string) {
	NotificationsDroppedTotal.WithLabelValues(channel, reason).Inc()
}

// IncrementNotificationGoroutines tracks the start of a delivery goroutine.
func IncrementNotificationGoroutines() {
	NotificationGoroutinesActive.Inc()
}

// DecrementNotificationGoroutines tracks the end of a delivery goroutine.
func DecrementNotificationGoroutines() {
	NotificationGoroutinesActive.Dec()
}
