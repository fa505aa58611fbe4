package ingest

import (
	"strings"
	"time"
)

// Config contains configuration options that allow
// customization of how NetGram ingests uploaded files.
type Config struct {
	// Enrichment is an optional step of ingestion, and so lookups
	// which take longer than this are abandoned.
	EnrichTimeout time.Duration `yaml:"enrich_timeout" env:"INGEST_ENRICH_TIMEOUT" env-default:"10s"`

	// The base URL of the frontend, used to construct the stream URL
	// of each catalog record.
	StreamBaseURL string `yaml:"stream_base_url" env:"STREAM_BASE_URL" env-default:"https://your-frontend.vercel.app"`

	// Files are only ingested if their (lowercased) name contains
	// one of these extensions.
	Extensions []string `yaml:"extensions" env:"INGEST_EXTENSIONS" env-separator:"," env-default:".mp4,.mkv,.avi"`

	// Controls the number of workers that can perform ingestions. Caution
	// should be taken to not increase this value too high, as ingestion
	// involves talking to external APIs which may impose rate limits.
	Workers int `yaml:"workers" env:"INGEST_WORKERS" env-default:"2"`

	// The number of events which may wait for a worker before
	// submitting further events blocks.
	QueueSize int `yaml:"queue_size" env:"INGEST_QUEUE_SIZE" env-default:"64"`
}

func (config *Config) accepts(fileName string) bool {
	name := strings.ToLower(fileName)
	for _, ext := range config.Extensions {
		if ext != "" && strings.Contains(name, strings.ToLower(ext)) {
			return true
		}
	}

	return false
}
