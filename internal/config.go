package internal

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/netgram/netgram/internal/api"
	"github.com/netgram/netgram/internal/database"
	"github.com/netgram/netgram/internal/http/shortener"
	"github.com/netgram/netgram/internal/http/tmdb"
	"github.com/netgram/netgram/internal/ingest"
	"github.com/netgram/netgram/internal/telegram"
)

// NetgramConfig is the struct used to contain the
// various user config supplied by file, environment, or
// manually inside the code.
type NetgramConfig struct {
	LogLevel   string                  `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	Database   database.DatabaseConfig `yaml:"database"`
	RestConfig api.RestConfig          `yaml:"api"`
	Bot        telegram.Config         `yaml:"bot"`
	Enrichment tmdb.Config             `yaml:"enrichment"`
	Shortener  shortener.Config        `yaml:"shortener"`
	Ingest     ingest.Config           `yaml:"ingest"`
}

// LoadConfig reads the YAML configuration file at the path provided, with any
// environment variables taking precedence. An empty path loads the configuration
// solely from the environment.
func LoadConfig(configPath string) (*NetgramConfig, error) {
	config := &NetgramConfig{}
	if configPath == "" {
		if err := cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("failed to load configuration from environment: %w", err)
		}

		return config, nil
	}

	if err := cleanenv.ReadConfig(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}

	return config, nil
}
