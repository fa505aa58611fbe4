package catalog

import (
	"errors"
	"time"
)

var ErrMovieNotFound = errors.New("movie does not exist")

type (
	// Record is a single persisted catalog entry. Exactly one record exists per
	// fingerprint, and once inserted a record is never updated.
	Record struct {
		Fingerprint string `db:"fingerprint"`
		MessageID   int64  `db:"message_id"`
		ChatID      int64  `db:"chat_id"`
		FileID      string `db:"file_id"`

		Title    string   `db:"title"`
		Year     int      `db:"year"`
		Quality  string   `db:"quality"`
		Language string   `db:"language"`
		Genres   []string `db:"-"`
		Rating   *float64 `db:"rating"`
		Plot     string   `db:"plot"`
		Poster   string   `db:"poster"`

		DownloadURL string `db:"download_url"`
		StreamURL   string `db:"stream_url"`
		SourceURL   string `db:"source_url"`

		FileSize  int64     `db:"file_size"`
		CreatedAt time.Time `db:"created_at"`
	}

	// Provenance links a record back to the message it was ingested from.
	Provenance struct {
		MessageID int64
		ChatID    int64
		FileSize  int64
		FileID    string
	}

	// Enrichment is optional third-party metadata for a title. Zero values
	// indicate the provider didn't supply that particular field.
	Enrichment struct {
		Rating *float64 `json:"rating,omitempty"`
		Genres []string `json:"genres,omitempty"`
		Plot   string   `json:"plot,omitempty"`
		Poster string   `json:"poster,omitempty"`
	}

	// EnrichmentResult is the outcome of an enrichment lookup: either some data,
	// or the reason none is available. A failed lookup is never an error for
	// the caller, it simply means the record is built without enrichment.
	EnrichmentResult struct {
		data   *Enrichment
		reason error
	}
)

func Enriched(data Enrichment) EnrichmentResult {
	return EnrichmentResult{data: &data}
}

func NotEnriched(reason error) EnrichmentResult {
	if reason == nil {
		reason = errors.New("no enrichment available")
	}

	return EnrichmentResult{reason: reason}
}

// Data returns the enrichment data, and a boolean indicating
// if the lookup was successful.
func (result EnrichmentResult) Data() (Enrichment, bool) {
	if result.data == nil {
		return Enrichment{}, false
	}

	return *result.data, true
}

// Reason returns the reason the lookup failed, or nil if it succeeded.
func (result EnrichmentResult) Reason() error {
	return result.reason
}
