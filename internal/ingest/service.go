package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/netgram/netgram/internal/catalog"
	"github.com/netgram/netgram/internal/media"
	"github.com/netgram/netgram/pkg/logger"
	"github.com/netgram/netgram/pkg/worker"
)

var log = logger.Get("Ingest")

type (
	// FileEvent describes a file which was uploaded to the catalog
	// channel, and is the input to the ingestion pipeline.
	FileEvent struct {
		FileName  string
		FileID    string
		MessageID int64
		ChatID    int64
		FileSize  int64
	}

	Outcome int

	Enricher interface {
		Lookup(ctx context.Context, parsed media.ParsedMetadata) catalog.EnrichmentResult
	}

	DataStore interface {
		IsDuplicate(ctx context.Context, fingerprint string) (bool, error)
		InsertIfAbsent(ctx context.Context, record *catalog.Record) (bool, error)
		LogIngestError(ctx context.Context, message string) error
	}

	// Service is responsible for turning file events in to catalog records.
	// Each event is:
	// - Checked against the accepted file extensions
	// - Parsed to find the title, year, quality and language
	// - Checked against the existing catalog using its fingerprint
	// - Enriched with third-party metadata (best-effort)
	// - Added to the catalog, unless another upload beat it there
	Service struct {
		config   Config
		store    DataStore
		enricher Enricher
		builder  *catalog.Builder
		pool     *worker.WorkerPool
	}
)

const (
	OutcomeIgnored Outcome = iota
	OutcomeAdded
	OutcomeDuplicate
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeAdded:
		return "added"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeFailed:
		return "failed"
	}

	return fmt.Sprintf("Outcome(%d)", int(o))
}

func New(config Config, store DataStore, enricher Enricher, shortener catalog.Shortener) *Service {
	return &Service{
		config:   config,
		store:    store,
		enricher: enricher,
		builder:  catalog.NewBuilder(shortener, config.StreamBaseURL),
		pool:     worker.NewWorkerPool("ingest-worker", config.Workers, config.QueueSize),
	}
}

// Run starts the workers which handle events passed to Submit. This method
// blocks until the context provided is cancelled.
func (service *Service) Run(ctx context.Context) error {
	if err := service.pool.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	service.pool.Close()
	return nil
}

// Submit queues the event to be handled by one of the service's workers. The
// result of the ingestion is not reported back to the caller.
func (service *Service) Submit(ctx context.Context, event FileEvent) error {
	return service.pool.Submit(ctx, func(workerCtx context.Context) {
		service.Handle(workerCtx, event)
	})
}

// Handle ingests the event provided and records the outcome. Any error (or panic)
// raised while ingesting is captured in the ingest error log, and reported
// as OutcomeFailed.
func (service *Service) Handle(ctx context.Context, event FileEvent) (outcome Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomeFailed
			service.recordFailure(ctx, event, fmt.Errorf("panic: %v", r))
		}

		ingestEvents.WithLabelValues(outcome.String()).Inc()
		ingestDuration.Observe(time.Since(start).Seconds())
	}()

	outcome, err := service.Ingest(ctx, event)
	if err != nil {
		service.recordFailure(ctx, event, err)
		return OutcomeFailed
	}

	return outcome
}

// Ingest runs the event through the ingestion pipeline. Errors are only
// returned when the catalog itself could not be queried or updated; enrichment
// and URL shortening failures degrade the record rather than failing it.
func (service *Service) Ingest(ctx context.Context, event FileEvent) (Outcome, error) {
	if !service.config.accepts(event.FileName) {
		log.Debugf("Ignoring %q (message %d) as it has no accepted extension\n", event.FileName, event.MessageID)
		return OutcomeIgnored, nil
	}

	parsed := media.Parse(event.FileName)
	fingerprint := parsed.Fingerprint()
	if duplicate, err := service.store.IsDuplicate(ctx, fingerprint); err != nil {
		return OutcomeFailed, fmt.Errorf("failed to check catalog for %s (%d): %w", parsed.Title, parsed.Year, err)
	} else if duplicate {
		log.Infof("Skipping %s (%d) from message %d as it's already in the catalog\n", parsed.Title, parsed.Year, event.MessageID)
		return OutcomeDuplicate, nil
	}

	enrichment := service.enrich(ctx, parsed)
	record := service.builder.Build(ctx, parsed, catalog.Provenance{
		MessageID: event.MessageID,
		ChatID:    event.ChatID,
		FileSize:  event.FileSize,
		FileID:    event.FileID,
	}, enrichment)

	inserted, err := service.store.InsertIfAbsent(ctx, record)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to save %s (%d) to catalog: %w", record.Title, record.Year, err)
	}
	if !inserted {
		log.Infof("Skipping %s (%d) from message %d as it was added concurrently\n", record.Title, record.Year, event.MessageID)
		return OutcomeDuplicate, nil
	}

	log.Emit(logger.SUCCESS, "Added %s (%d) [%s, %s] from message %d\n", record.Title, record.Year, record.Quality, record.Language, event.MessageID)
	return OutcomeAdded, nil
}

func (service *Service) enrich(ctx context.Context, parsed media.ParsedMetadata) catalog.EnrichmentResult {
	if service.enricher == nil {
		return catalog.NotEnriched(nil)
	}

	timeout := service.config.EnrichTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	enrichCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := service.enricher.Lookup(enrichCtx, parsed)
	if reason := result.Reason(); reason != nil {
		log.Warnf("No enrichment for %s (%d): %v\n", parsed.Title, parsed.Year, reason)
	}

	return result
}

func (service *Service) recordFailure(ctx context.Context, event FileEvent, cause error) {
	message := fmt.Sprintf("failed to ingest %q (message %d): %v", event.FileName, event.MessageID, cause)
	log.Errorf("%s\n", message)

	// Recorded even if the event context was cancelled
	if err := service.store.LogIngestError(context.WithoutCancel(ctx), message); err != nil {
		log.Errorf("Failed to record ingest error: %v\n", err)
	}
}
