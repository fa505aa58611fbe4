package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/netgram/netgram/internal/database"
)

type (
	Order int

	// Filter narrows a listing. Empty fields are ignored. Genre must match
	// one of the records genres exactly, whereas language and quality are
	// case-insensitive substring matches.
	Filter struct {
		Genre     string
		Language  string
		Quality   string
		RatedOnly bool
	}

	ListOptions struct {
		Filter Filter
		Order  Order
		Offset int
		Limit  int
	}

	Store struct {
		mediaGenreStore
		now func() time.Time
	}
)

const (
	// OrderNewest sorts by creation time, most recent first
	OrderNewest Order = iota
	// OrderRating sorts by rating (highest first), then by creation time
	OrderRating
)

var movieColumns = []string{
	"fingerprint", "message_id", "chat_id", "file_id",
	"title", "year", "quality", "language", "rating", "plot", "poster",
	"download_url", "stream_url", "source_url", "file_size", "created_at",
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// NewStoreWithClock creates a store which uses the clock provided
// to assign creation times to new records.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

// InsertIfAbsent saves the record and its genres, unless a record with the same
// fingerprint already exists in which case nothing is written and false is
// returned. The records CreatedAt is assigned here.
func (store *Store) InsertIfAbsent(ctx context.Context, tx *sqlx.Tx, record *Record) (bool, error) {
	createdAt := store.now().UTC()
	query, args, err := squirrel.
		Insert("movies").
		Columns(movieColumns...).
		Values(
			record.Fingerprint, record.MessageID, record.ChatID, record.FileID,
			record.Title, record.Year, record.Quality, record.Language, record.Rating, record.Plot, record.Poster,
			record.DownloadURL, record.StreamURL, record.SourceURL, record.FileSize, createdAt,
		).
		Suffix("ON CONFLICT (fingerprint) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to construct insert movie query: %w", err)
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert movie: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to determine if movie was inserted: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if err := store.saveGenres(ctx, tx, record.Fingerprint, record.Genres); err != nil {
		return false, err
	}

	record.CreatedAt = createdAt
	return true, nil
}

// Exists returns true if a record with the given fingerprint is already stored.
func (store *Store) Exists(ctx context.Context, db database.Queryable, fingerprint string) (bool, error) {
	var count int
	if err := db.GetContext(ctx, &count, db.Rebind(`SELECT COUNT(*) FROM movies WHERE fingerprint = ?`), fingerprint); err != nil {
		return false, fmt.Errorf("failed to check for existing movie: %w", err)
	}

	return count > 0, nil
}

// GetByMessageID finds the record which was ingested from the message ID
// provided, returning ErrMovieNotFound if there is no such record.
func (store *Store) GetByMessageID(ctx context.Context, db database.Queryable, messageID int64) (*Record, error) {
	query, args, err := selectMovieBuilder().Where(squirrel.Eq{"message_id": messageID}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct select movie query: %w", err)
	}

	var record Record
	if err := db.GetContext(ctx, &record, db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to find movie with message ID %d: %w", messageID, err)
	}

	if err := store.attachGenres(ctx, db, []*Record{&record}); err != nil {
		return nil, err
	}

	return &record, nil
}

// List returns a page of records matching the filter, in the order requested.
func (store *Store) List(ctx context.Context, db database.Queryable, opts ListOptions) ([]*Record, error) {
	builder := selectMovieBuilder()

	if opts.Filter.Genre != "" {
		builder = builder.Where(
			"EXISTS (SELECT 1 FROM movie_genres mg WHERE mg.fingerprint = movies.fingerprint AND mg.label = ?)",
			opts.Filter.Genre,
		)
	}
	if opts.Filter.Language != "" {
		builder = builder.Where(containsInsensitive("language"), likePattern(opts.Filter.Language))
	}
	if opts.Filter.Quality != "" {
		builder = builder.Where(containsInsensitive("quality"), likePattern(opts.Filter.Quality))
	}
	if opts.Filter.RatedOnly {
		builder = builder.Where("rating IS NOT NULL")
	}

	return store.selectPage(ctx, db, orderBy(builder, opts.Order), opts.Offset, opts.Limit)
}

// SearchByTitle returns a page of records whose title contains the query, ignoring case.
func (store *Store) SearchByTitle(ctx context.Context, db database.Queryable, titleQuery string, offset int, limit int) ([]*Record, error) {
	builder := selectMovieBuilder().Where(containsInsensitive("title"), likePattern(titleQuery))
	return store.selectPage(ctx, db, orderBy(builder, OrderNewest), offset, limit)
}

func (store *Store) Count(ctx context.Context, db database.Queryable) (int, error) {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM movies`); err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}

	return count, nil
}

func (store *Store) selectPage(ctx context.Context, db database.Queryable, builder squirrel.SelectBuilder, offset int, limit int) ([]*Record, error) {
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct list movies query: %w", err)
	}

	var records []*Record
	if err := db.SelectContext(ctx, &records, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}

	if err := store.attachGenres(ctx, db, records); err != nil {
		return nil, err
	}

	return records, nil
}

func selectMovieBuilder() squirrel.SelectBuilder {
	return squirrel.Select(movieColumns...).From("movies")
}

// orderBy applies the sort order requested. The message ID is always the final
// tie-breaker so that offset pagination is stable.
func orderBy(builder squirrel.SelectBuilder, order Order) squirrel.SelectBuilder {
	switch order {
	case OrderRating:
		return builder.OrderBy("rating DESC", "created_at DESC", "message_id DESC")
	default:
		return builder.OrderBy("created_at DESC", "message_id DESC")
	}
}

// containsInsensitive folds both sides with the database's LOWER, so the
// comparison is symmetric even where LOWER only folds ASCII (sqlite).
func containsInsensitive(column string) string {
	return fmt.Sprintf(`LOWER(%s) LIKE LOWER(?) ESCAPE '\'`, column)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}
