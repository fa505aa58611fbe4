package catalog

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/netgram/netgram/internal/database"
)

type mediaGenreStore struct{}

// saveGenres inserts the genre labels for a movie, retaining
// the order in which they were provided.
func (store *mediaGenreStore) saveGenres(ctx context.Context, tx *sqlx.Tx, fingerprint string, genres []string) error {
	if len(genres) == 0 {
		return nil
	}

	type genreRow struct {
		Fingerprint string `db:"fingerprint"`
		Position    int    `db:"position"`
		Label       string `db:"label"`
	}
	rows := make([]genreRow, len(genres))
	for k, v := range genres {
		rows[k] = genreRow{fingerprint, k, v}
	}

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO movie_genres(fingerprint, position, label)
		VALUES(:fingerprint, :position, :label)
	`, rows); err != nil {
		return fmt.Errorf("failed to insert genres for movie %s: %w", fingerprint, err)
	}

	return nil
}

// attachGenres loads the genres for all of the records provided
// using a single query, and populates each records Genres.
func (store *mediaGenreStore) attachGenres(ctx context.Context, db database.Queryable, records []*Record) error {
	if len(records) == 0 {
		return nil
	}

	byFingerprint := make(map[string]*Record, len(records))
	fingerprints := make([]string, 0, len(records))
	for _, record := range records {
		record.Genres = []string{}
		byFingerprint[record.Fingerprint] = record
		fingerprints = append(fingerprints, record.Fingerprint)
	}

	query, args, err := sqlx.In(`
		SELECT fingerprint, label FROM movie_genres
		WHERE fingerprint IN (?)
		ORDER BY fingerprint, position`, fingerprints)
	if err != nil {
		return fmt.Errorf("failed to construct select genres query: %w", err)
	}

	var results []struct {
		Fingerprint string `db:"fingerprint"`
		Label       string `db:"label"`
	}
	if err := db.SelectContext(ctx, &results, db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to select genres: %w", err)
	}

	for _, row := range results {
		if record, ok := byFingerprint[row.Fingerprint]; ok {
			record.Genres = append(record.Genres, row.Label)
		}
	}

	return nil
}

// ListGenres returns every distinct genre label in the catalog.
func (store *mediaGenreStore) ListGenres(ctx context.Context, db database.Queryable) ([]string, error) {
	var results []string
	if err := db.SelectContext(ctx, &results, `SELECT DISTINCT label FROM movie_genres ORDER BY label`); err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}

	return results, nil
}
