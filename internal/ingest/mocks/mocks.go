package mocks

import (
	"context"

	"github.com/netgram/netgram/internal/catalog"
	"github.com/netgram/netgram/internal/media"
	"github.com/stretchr/testify/mock"
)

type MockDataStore struct{ mock.Mock }

func (m *MockDataStore) IsDuplicate(ctx context.Context, fingerprint string) (bool, error) {
	args := m.Called(ctx, fingerprint)
	return args.Bool(0), args.Error(1)
}

func (m *MockDataStore) InsertIfAbsent(ctx context.Context, record *catalog.Record) (bool, error) {
	args := m.Called(ctx, record)
	return args.Bool(0), args.Error(1)
}

func (m *MockDataStore) LogIngestError(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

type MockEnricher struct{ mock.Mock }

func (m *MockEnricher) Lookup(ctx context.Context, parsed media.ParsedMetadata) catalog.EnrichmentResult {
	args := m.Called(ctx, parsed)
	return args.Get(0).(catalog.EnrichmentResult)
}

type MockShortener struct{ mock.Mock }

func (m *MockShortener) Shorten(ctx context.Context, url string) string {
	args := m.Called(ctx, url)
	return args.String(0)
}
