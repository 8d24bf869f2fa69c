// Package enrich runs the asynchronous NLP pipeline: annotations and
// sentiment are computed off the ingestion path and persisted in a single
// write together with the completion timestamp.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"entryhub/internal/domain/entity"
	"entryhub/internal/observability/metrics"
	"entryhub/internal/repository"
	"entryhub/internal/usecase/notify"
	"entryhub/internal/utils/text"
)

// ErrEnrichmentInProgress is returned when another worker already holds the
// lease for the entry.
var ErrEnrichmentInProgress = errors.New("enrichment already in progress for entry")

// Annotator is the external NLP service the pipeline calls.
type Annotator interface {
	Annotate(ctx context.Context, text string) ([]entity.Annotation, error)
	Sentiment(ctx context.Context, text string) (*entity.Sentiment, error)
}

// Config bounds one enrichment pass.
type Config struct {
	// Parallelism is the number of entries enriched concurrently.
	Parallelism int
	// BatchSize caps how many pending entries one pass picks up.
	BatchSize int
}

// Service coordinates enrichment of individual entries and of the pending
// backlog.
type Service struct {
	EntryRepo     repository.EntryRepository
	FeedRepo      repository.FeedRepository
	Annotator     Annotator
	NotifyService notify.Service
	config        Config

	// leases guards against concurrent enrichment of the same entry within
	// this process. The keyed entry ID is held for the whole pipeline run.
	leaseMu sync.Mutex
	leases  map[int64]struct{}
}

func NewService(
	entryRepo repository.EntryRepository,
	feedRepo repository.FeedRepository,
	annotator Annotator,
	notifyService notify.Service,
	config Config,
) *Service {
	if config.Parallelism <= 0 {
		config.Parallelism = 5
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	return &Service{
		EntryRepo:     entryRepo,
		FeedRepo:      feedRepo,
		Annotator:     annotator,
		NotifyService: notifyService,
		config:        config,
		leases:        make(map[int64]struct{}),
	}
}

// Enrich runs the full pipeline for one entry: annotate, score sentiment,
// persist all three enrichment fields atomically, and emit one updated event.
// A failure at any stage leaves the entry untouched and re-eligible for the
// next pass. Already-enriched entries are skipped.
func (s *Service) Enrich(ctx context.Context, id int64) error {
	if !s.acquireLease(id) {
		return ErrEnrichmentInProgress
	}
	defer s.releaseLease(id)

	entry, err := s.EntryRepo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get entry: %w", err)
	}
	if entry.Enriched() {
		slog.DebugContext(ctx, "entry already enriched, skipping",
			slog.Int64("entry_id", id))
		return nil
	}
	return s.enrichEntry(ctx, entry)
}

func (s *Service) enrichEntry(ctx context.Context, entry *entity.Entry) error {
	start := time.Now()

	plain := text.PlainText(entry.Title, entry.Body)

	annotations, err := s.Annotator.Annotate(ctx, plain)
	if err != nil {
		metrics.RecordEntryEnriched(false)
		return fmt.Errorf("annotate entry %d: %w", entry.ID, err)
	}

	sentiment, err := s.Annotator.Sentiment(ctx, plain)
	if err != nil {
		// Nothing has been written yet; the annotations are discarded so the
		// entry stays fully unenriched.
		metrics.RecordEntryEnriched(false)
		return fmt.Errorf("sentiment for entry %d: %w", entry.ID, err)
	}

	enrichedAt := time.Now().UTC()
	if err := s.EntryRepo.UpdateEnrichment(ctx, entry.ID, annotations, sentiment, enrichedAt); err != nil {
		metrics.RecordEntryEnriched(false)
		return fmt.Errorf("persist enrichment for entry %d: %w", entry.ID, err)
	}

	entry.Annotations = annotations
	entry.Sentiment = sentiment
	entry.EnrichedAt = &enrichedAt

	metrics.RecordEntryEnriched(true)
	metrics.RecordEnrichmentDuration(time.Since(start))
	slog.InfoContext(ctx, "entry enriched",
		slog.Int64("entry_id", entry.ID),
		slog.Int("annotations", len(annotations)),
		slog.String("sentiment", sentiment.Type),
		slog.Duration("duration", time.Since(start)))

	s.dispatchUpdated(ctx, entry)
	return nil
}

// dispatchUpdated emits the single updated event for a completed enrichment.
// The event is best-effort; a dispatch problem never fails the enrichment.
func (s *Service) dispatchUpdated(ctx context.Context, entry *entity.Entry) {
	feed, err := s.FeedRepo.Get(ctx, entry.FeedID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load feed for updated event",
			slog.Int64("entry_id", entry.ID),
			slog.Int64("feed_id", entry.FeedID),
			slog.Any("error", err))
		return
	}
	if err := s.NotifyService.Dispatch(ctx, notify.Event{
		Type:  notify.EntryUpdated,
		Entry: entry,
		Feed:  feed,
	}); err != nil {
		slog.WarnContext(ctx, "failed to dispatch updated event",
			slog.Int64("entry_id", entry.ID),
			slog.Any("error", err))
	}
}

// Stats summarizes one backlog pass.
type Stats struct {
	Pending  int
	Enriched int64
	Failed   int64
	Duration time.Duration
}

// EnrichPending drains a batch of unenriched entries with bounded
// concurrency. Individual failures are counted and logged; the pass itself
// only fails on a listing error or context cancellation.
func (s *Service) EnrichPending(ctx context.Context) (*Stats, error) {
	start := time.Now()

	entries, err := s.EntryRepo.ListUnenriched(ctx, s.config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("list unenriched entries: %w", err)
	}
	stats := &Stats{Pending: len(entries)}
	if len(entries) == 0 {
		return stats, nil
	}

	sem := make(chan struct{}, s.config.Parallelism)
	eg, egCtx := errgroup.WithContext(ctx)

	for _, pending := range entries {
		entry := pending
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := s.Enrich(egCtx, entry.ID); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				atomic.AddInt64(&stats.Failed, 1)
				slog.WarnContext(egCtx, "enrichment failed, will retry next pass",
					slog.Int64("entry_id", entry.ID),
					slog.Any("error", err))
				return nil
			}
			atomic.AddInt64(&stats.Enriched, 1)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	slog.InfoContext(ctx, "enrichment pass completed",
		slog.Int("pending", stats.Pending),
		slog.Int64("enriched", stats.Enriched),
		slog.Int64("failed", stats.Failed),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

func (s *Service) acquireLease(id int64) bool {
	s.leaseMu.Lock()
	defer s.leaseMu.Unlock()
	if _, held := s.leases[id]; held {
		return false
	}
	s.leases[id] = struct{}{}
	return true
}

func (s *Service) releaseLease(id int64) {
	s.leaseMu.Lock()
	defer s.leaseMu.Unlock()
	delete(s.leases, id)
}
