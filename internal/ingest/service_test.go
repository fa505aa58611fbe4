// service_test is responsible for ensuring that file events
// are correctly filtered, parsed, de-duplicated, enriched and
// saved to the catalog. The enrichment, shortener and DB
// integration is mocked.
package ingest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/netgram/netgram/internal/catalog"
	"github.com/netgram/netgram/internal/ingest"
	"github.com/netgram/netgram/internal/ingest/mocks"
	"github.com/netgram/netgram/internal/media"
	"github.com/netgram/netgram/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errExpected = errors.New("test: expected error")

func init() {
	logger.SetMinLoggingLevel(logger.VERBOSE.Level())
}

const inceptionFile = "Inception.2010.1080p.BluRay.English.mkv"

var (
	inceptionEvent = ingest.FileEvent{
		FileName:  inceptionFile,
		FileID:    "file-42",
		MessageID: 42,
		ChatID:    -100123,
		FileSize:  2 << 30,
	}
	inceptionFingerprint = media.Fingerprint("Inception", 2010)
	rating               = 8.8
)

type harness struct {
	store     *mocks.MockDataStore
	enricher  *mocks.MockEnricher
	shortener *mocks.MockShortener
	service   *ingest.Service
}

func testConfig() ingest.Config {
	return ingest.Config{
		EnrichTimeout: time.Second,
		StreamBaseURL: "https://netgram.example/",
		Extensions:    []string{".mp4", ".mkv", ".avi"},
		Workers:       2,
		QueueSize:     4,
	}
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		store:     &mocks.MockDataStore{},
		enricher:  &mocks.MockEnricher{},
		shortener: &mocks.MockShortener{},
	}
	h.shortener.On("Shorten", mock.Anything, "https://t.me/c/123/42").Return("https://sho.rt/dl").Maybe()
	h.shortener.On("Shorten", mock.Anything, "https://netgram.example/stream/42").Return("https://sho.rt/st").Maybe()
	h.service = ingest.New(testConfig(), h.store, h.enricher, h.shortener)

	t.Cleanup(func() {
		h.store.AssertExpectations(t)
		h.enricher.AssertExpectations(t)
		h.shortener.AssertExpectations(t)
	})

	return h
}

func withDeadline(ctx context.Context) bool {
	_, ok := ctx.Deadline()
	return ok
}

func Test_Ingest_AddsEnrichedRecord(t *testing.T) {
	h := newHarness(t)
	h.store.On("IsDuplicate", mock.Anything, inceptionFingerprint).Return(false, nil).Once()
	h.enricher.On("Lookup", mock.MatchedBy(withDeadline), media.ParsedMetadata{Title: "Inception", Year: 2010, Quality: "1080p", Language: "English"}).
		Return(catalog.Enriched(catalog.Enrichment{Rating: &rating, Genres: []string{"Sci-Fi"}, Plot: "Dreams", Poster: "https://img/p.jpg"})).Once()
	h.store.On("InsertIfAbsent", mock.Anything, mock.MatchedBy(func(record *catalog.Record) bool {
		return record.Fingerprint == inceptionFingerprint &&
			record.Title == "Inception" && record.Year == 2010 &&
			record.Quality == "1080p" && record.Language == "English" &&
			record.Rating != nil && *record.Rating == rating &&
			len(record.Genres) == 1 && record.Genres[0] == "Sci-Fi" &&
			record.Plot == "Dreams" && record.Poster == "https://img/p.jpg" &&
			record.SourceURL == "https://t.me/c/123/42" &&
			record.DownloadURL == "https://sho.rt/dl" && record.StreamURL == "https://sho.rt/st" &&
			record.MessageID == 42 && record.ChatID == -100123 &&
			record.FileID == "file-42" && record.FileSize == 2<<30
	})).Return(true, nil).Once()

	outcome, err := h.service.Ingest(context.Background(), inceptionEvent)

	assert.NoError(t, err)
	assert.Equal(t, ingest.OutcomeAdded, outcome)
}

func Test_Ingest_IgnoresUnacceptedExtensions(t *testing.T) {
	tests := []struct {
		fileName string
		expected ingest.Outcome
	}{
		{"notes.txt", ingest.OutcomeIgnored},
		{"poster.jpg", ingest.OutcomeIgnored},
		{"archive.zip", ingest.OutcomeIgnored},
		{"", ingest.OutcomeIgnored},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			h := newHarness(t)
			outcome, err := h.service.Ingest(context.Background(), ingest.FileEvent{FileName: tt.fileName, MessageID: 1})

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, outcome)
		})
	}
}

func Test_Ingest_ExtensionMatchIgnoresCase(t *testing.T) {
	h := newHarness(t)
	h.store.On("IsDuplicate", mock.Anything, mock.Anything).Return(true, nil).Once()

	outcome, err := h.service.Ingest(context.Background(), ingest.FileEvent{FileName: "HEAT.1995.MP4", MessageID: 1})

	assert.NoError(t, err)
	assert.Equal(t, ingest.OutcomeDuplicate, outcome)
}

func Test_Ingest_DuplicateFromGateSkipsEnrichment(t *testing.T) {
	h := newHarness(t)
	h.store.On("IsDuplicate", mock.Anything, inceptionFingerprint).Return(true, nil).Once()

	outcome, err := h.service.Ingest(context.Background(), inceptionEvent)

	assert.NoError(t, err)
	assert.Equal(t, ingest.OutcomeDuplicate, outcome)
	h.enricher.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
	h.store.AssertNotCalled(t, "InsertIfAbsent", mock.Anything, mock.Anything)
}

func Test_Ingest_DuplicateFromConcurrentInsert(t *testing.T) {
	h := newHarness(t)
	h.store.On("IsDuplicate", mock.Anything, inceptionFingerprint).Return(false, nil).Once()
	h.enricher.On("Lookup", mock.Anything, mock.Anything).Return(catalog.NotEnriched(nil)).Once()
	h.store.On("InsertIfAbsent", mock.Anything, mock.Anything).Return(false, nil).Once()

	outcome, err := h.service.Ingest(context.Background(), inceptionEvent)

	assert.NoError(t, err)
	assert.Equal(t, ingest.OutcomeDuplicate, outcome)
}

func Test_Ingest_EnrichmentFailureStillAdds(t *testing.T) {
	h := newHarness(t)
	h.store.On("IsDuplicate", mock.Anything, inceptionFingerprint).Return(false, nil).Once()
	h.enricher.On("Lookup", mock.Anything, mock.Anything).Return(catalog.NotEnriched(errExpected)).Once()
	h.store.On("InsertIfAbsent", mock.Anything, mock.MatchedBy(func(record *catalog.Record) bool {
		return record.Rating == nil && len(record.Genres) == 0 && record.Genres != nil && record.Plot == "" && record.Poster == ""
	})).Return(true, nil).Once()

	outcome, err := h.service.Ingest(context.Background(), inceptionEvent)

	assert.NoError(t, err)
	assert.Equal(t, ingest.OutcomeAdded, outcome)
}

func Test_Ingest_GateErrorIsReturned(t *testing.T) {
	h := newHarness(t)
	h.store.On("IsDuplicate", mock.Anything, inceptionFingerprint).Return(false, errExpected).Once()

	outcome, err := h.service.Ingest(context.Background(), inceptionEvent)

	assert.ErrorIs(t, err, errExpected)
	assert.Equal(t, ingest.OutcomeFailed, outcome)
}

func Test_Handle_StoreFailureIsLogged(t *testing.T) {
	h := newHarness(t)
	h.store.On("IsDuplicate", mock.Anything, inceptionFingerprint).Return(false, nil).Once()
	h.enricher.On("Lookup", mock.Anything, mock.Anything).Return(catalog.NotEnriched(nil)).Once()
	h.store.On("InsertIfAbsent", mock.Anything, mock.Anything).Return(false, errExpected).Once()
	h.store.On("LogIngestError", mock.Anything, mock.MatchedBy(func(message string) bool {
		return assert.Contains(t, message, inceptionFile) && assert.Contains(t, message, errExpected.Error())
	})).Return(nil).Once()

	before := testutil.ToFloat64(ingest.EventsCounter("failed"))
	outcome := h.service.Handle(context.Background(), inceptionEvent)

	assert.Equal(t, ingest.OutcomeFailed, outcome)
	assert.Equal(t, before+1, testutil.ToFloat64(ingest.EventsCounter("failed")))
}

func Test_Handle_RecoversFromPanic(t *testing.T) {
	h := newHarness(t)
	h.store.On("IsDuplicate", mock.Anything, inceptionFingerprint).Return(false, nil).Once()
	h.enricher.On("Lookup", mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("boom") }).Return(catalog.NotEnriched(nil)).Once()
	h.store.On("LogIngestError", mock.Anything, mock.MatchedBy(func(message string) bool {
		return assert.Contains(t, message, "panic: boom")
	})).Return(errExpected).Once()

	assert.Equal(t, ingest.OutcomeFailed, h.service.Handle(context.Background(), inceptionEvent))
}

func Test_Handle_CountsOutcomes(t *testing.T) {
	h := newHarness(t)
	h.store.On("IsDuplicate", mock.Anything, inceptionFingerprint).Return(false, nil).Once()
	h.enricher.On("Lookup", mock.Anything, mock.Anything).Return(catalog.NotEnriched(nil)).Once()
	h.store.On("InsertIfAbsent", mock.Anything, mock.Anything).Return(true, nil).Once()

	added := testutil.ToFloat64(ingest.EventsCounter("added"))
	ignored := testutil.ToFloat64(ingest.EventsCounter("ignored"))

	assert.Equal(t, ingest.OutcomeAdded, h.service.Handle(context.Background(), inceptionEvent))
	assert.Equal(t, ingest.OutcomeIgnored, h.service.Handle(context.Background(), ingest.FileEvent{FileName: "readme.txt"}))

	assert.Equal(t, added+1, testutil.ToFloat64(ingest.EventsCounter("added")))
	assert.Equal(t, ignored+1, testutil.ToFloat64(ingest.EventsCounter("ignored")))
}

func Test_Submit_HandlesEventsOnWorkers(t *testing.T) {
	h := newHarness(t)
	inserted := make(chan *catalog.Record, 1)
	h.store.On("IsDuplicate", mock.Anything, inceptionFingerprint).Return(false, nil).Once()
	h.enricher.On("Lookup", mock.Anything, mock.Anything).Return(catalog.NotEnriched(nil)).Once()
	h.store.On("InsertIfAbsent", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { inserted <- args.Get(1).(*catalog.Record) }).
		Return(true, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error)
	go func() { stopped <- h.service.Run(ctx) }()

	require.Eventually(t, func() bool {
		return h.service.Submit(context.Background(), inceptionEvent) == nil
	}, 5*time.Second, 10*time.Millisecond)

	select {
	case record := <-inserted:
		assert.Equal(t, "Inception", record.Title)
	case <-time.After(5 * time.Second):
		t.Fatal("submitted event was never inserted")
	}

	cancel()
	assert.NoError(t, <-stopped)
	assert.Error(t, h.service.Submit(context.Background(), inceptionEvent))
}
