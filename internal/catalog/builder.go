package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/netgram/netgram/internal/media"
)

const telegramLinkTemplate = "https://t.me/c/%s/%d"

type (
	Shortener interface {
		Shorten(ctx context.Context, url string) string
	}

	// Builder assembles catalog records from parsed filename metadata, the
	// provenance of the message, and any enrichment data we found.
	Builder struct {
		shortener     Shortener
		streamBaseURL string
	}
)

func NewBuilder(shortener Shortener, streamBaseURL string) *Builder {
	return &Builder{shortener: shortener, streamBaseURL: strings.TrimSuffix(streamBaseURL, "/")}
}

// Build always produces a record. Enrichment fields take precedence when
// present; otherwise the record carries the parsed values and defaults.
// The creation time is left zero as it's assigned by the store on insert.
func (builder *Builder) Build(ctx context.Context, parsed media.ParsedMetadata, provenance Provenance, enrichment EnrichmentResult) *Record {
	sourceURL := TelegramLink(provenance.ChatID, provenance.MessageID)
	streamURL := fmt.Sprintf("%s/stream/%d", builder.streamBaseURL, provenance.MessageID)

	record := &Record{
		Fingerprint: parsed.Fingerprint(),
		MessageID:   provenance.MessageID,
		ChatID:      provenance.ChatID,
		FileID:      provenance.FileID,
		Title:       parsed.Title,
		Year:        parsed.Year,
		Quality:     parsed.Quality,
		Language:    parsed.Language,
		Genres:      []string{},
		DownloadURL: builder.shortener.Shorten(ctx, sourceURL),
		StreamURL:   builder.shortener.Shorten(ctx, streamURL),
		SourceURL:   sourceURL,
		FileSize:    provenance.FileSize,
	}

	if data, ok := enrichment.Data(); ok {
		if data.Rating != nil {
			rating := *data.Rating
			record.Rating = &rating
		}
		if len(data.Genres) > 0 {
			record.Genres = append([]string{}, data.Genres...)
		}
		if data.Plot != "" {
			record.Plot = data.Plot
		}
		if data.Poster != "" {
			record.Poster = data.Poster
		}
	}

	return record
}

// TelegramLink constructs the private channel link for a message. Channel
// IDs carry a '-100' prefix which is not part of the link.
func TelegramLink(chatID int64, messageID int64) string {
	channel := strconv.FormatInt(chatID, 10)
	if trimmed, ok := strings.CutPrefix(channel, "-100"); ok {
		channel = trimmed
	} else {
		channel = strings.TrimPrefix(channel, "-")
	}

	return fmt.Sprintf(telegramLinkTemplate, channel, messageID)
}
