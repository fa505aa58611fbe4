package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/netgram/netgram/internal/database"
)

// IngestError is an entry in the append-only log of failures
// which occurred while ingesting files.
type IngestError struct {
	ID        uuid.UUID `db:"id"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}

type ErrorLogStore struct{}

func (store *ErrorLogStore) Record(ctx context.Context, db database.Queryable, message string, at time.Time) error {
	_, err := db.ExecContext(ctx,
		db.Rebind(`INSERT INTO ingest_errors(id, message, created_at) VALUES (?, ?, ?)`),
		uuid.New().String(), message, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record ingest error: %w", err)
	}

	return nil
}

// Recent returns the most recently recorded errors, newest first.
func (store *ErrorLogStore) Recent(ctx context.Context, db database.Queryable, limit int) ([]*IngestError, error) {
	var results []*IngestError
	if err := db.SelectContext(ctx, &results,
		db.Rebind(`SELECT id, message, created_at FROM ingest_errors ORDER BY created_at DESC LIMIT ?`),
		limit,
	); err != nil {
		return nil, fmt.Errorf("failed to list ingest errors: %w", err)
	}

	return results, nil
}
