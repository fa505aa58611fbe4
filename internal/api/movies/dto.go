package movies

import (
	"time"

	"github.com/netgram/netgram/internal/catalog"
)

const unknown = "Unknown"

type (
	// Page is bounded so that (page-1)*limit always fits in an int.
	pageRequest struct {
		Page  int `query:"page" validate:"gte=1,lte=1000000"`
		Limit int `query:"limit" validate:"gte=1,lte=100"`
	}

	searchRequest struct {
		Query string `query:"query" validate:"required"`
		Page  int    `query:"page" validate:"gte=1,lte=1000000"`
		Limit int    `query:"limit" validate:"gte=1,lte=100"`
	}

	filterRequest struct {
		Genre    string `query:"genre"`
		Language string `query:"language"`
		Quality  string `query:"quality"`
		Page     int    `query:"page" validate:"gte=1,lte=1000000"`
		Limit    int    `query:"limit" validate:"gte=1,lte=100"`
	}

	// MovieDto is the public view of a catalog record. The field
	// names are relied upon by the frontend.
	MovieDto struct {
		ID          int64      `json:"id"`
		Title       string     `json:"title"`
		Year        int        `json:"year"`
		Genres      []string   `json:"genres"`
		Language    string     `json:"language"`
		Quality     string     `json:"quality"`
		ImdbRating  float64    `json:"imdbRating"`
		Poster      string     `json:"poster"`
		Plot        string     `json:"plot"`
		DownloadURL string     `json:"downloadUrl"`
		StreamURL   string     `json:"streamUrl"`
		TelegramURL string     `json:"telegramUrl"`
		FileSize    int64      `json:"fileSize"`
		DateAdded   *time.Time `json:"dateAdded"`
	}

	PageDto struct {
		Movies  []MovieDto `json:"movies"`
		Page    int        `json:"page"`
		Limit   int        `json:"limit"`
		HasMore bool       `json:"hasMore"`
	}

	SearchPageDto struct {
		Movies  []MovieDto `json:"movies"`
		Query   string     `json:"query"`
		Page    int        `json:"page"`
		Limit   int        `json:"limit"`
		HasMore bool       `json:"hasMore"`
	}

	FiltersDto struct {
		Genre    *string `json:"genre"`
		Language *string `json:"language"`
		Quality  *string `json:"quality"`
	}

	FilterPageDto struct {
		Movies  []MovieDto `json:"movies"`
		Filters FiltersDto `json:"filters"`
		Page    int        `json:"page"`
		Limit   int        `json:"limit"`
		HasMore bool       `json:"hasMore"`
	}

	GenresDto struct {
		Genres []string `json:"genres"`
	}
)

func newPageRequest() pageRequest { return pageRequest{Page: 1, Limit: 20} }

func (req pageRequest) offset() int { return (req.Page - 1) * req.Limit }

func NewDto(record *catalog.Record) MovieDto {
	dto := MovieDto{
		ID:          record.MessageID,
		Title:       orDefault(record.Title, unknown),
		Year:        record.Year,
		Genres:      record.Genres,
		Language:    orDefault(record.Language, unknown),
		Quality:     orDefault(record.Quality, unknown),
		Poster:      record.Poster,
		Plot:        record.Plot,
		DownloadURL: record.DownloadURL,
		StreamURL:   record.StreamURL,
		TelegramURL: record.SourceURL,
		FileSize:    record.FileSize,
	}

	if dto.Genres == nil {
		dto.Genres = []string{}
	}
	if record.Rating != nil {
		dto.ImdbRating = *record.Rating
	}
	if !record.CreatedAt.IsZero() {
		createdAt := record.CreatedAt.UTC()
		dto.DateAdded = &createdAt
	}

	return dto
}

func NewDtos(records []*catalog.Record) []MovieDto {
	dtos := make([]MovieDto, len(records))
	for k, v := range records {
		dtos[k] = NewDto(v)
	}

	return dtos
}

func orDefault(value string, dflt string) string {
	if value == "" {
		return dflt
	}

	return value
}

func optional(value string) *string {
	if value == "" {
		return nil
	}

	return &value
}
