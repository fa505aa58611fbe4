package main

import (
	"context"
	"strings"
	"sync"

	"github.com/netgram/netgram/internal"
	"github.com/netgram/netgram/internal/catalog"
	"github.com/netgram/netgram/internal/database"
	"github.com/netgram/netgram/pkg/logger"
	"github.com/spf13/cobra"
)

type (
	commandContext struct {
		configFlag *string

		configOnce sync.Once
		config     *internal.NetgramConfig
		configErr  error
	}

	catalogReader interface {
		ListMovies(ctx context.Context, opts catalog.ListOptions) ([]*catalog.Record, error)
		SearchMovies(ctx context.Context, query string, offset int, limit int) ([]*catalog.Record, error)
		CountMovies(ctx context.Context) (int, error)
		ListGenres(ctx context.Context) ([]string, error)
		RecentIngestErrors(ctx context.Context, limit int) ([]*catalog.IngestError, error)
	}
)

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads the configuration once per invocation, and applies
// the configured log level.
func (c *commandContext) ensureConfig() (*internal.NetgramConfig, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := internal.LoadConfig(path)
		if err != nil {
			c.configErr = err
			return
		}

		level, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			c.configErr = err
			return
		}
		logger.SetMinLoggingLevel(level)

		c.config = cfg
	})
	return c.config, c.configErr
}

// withDatabase connects to (and migrates) the configured database for the
// duration of fn.
func (c *commandContext) withDatabase(fn func(database.Manager) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	db := database.New()
	if err := db.Connect(cfg.Database); err != nil {
		return err
	}
	defer db.Close()

	return fn(db)
}

func (c *commandContext) withStore(fn func(catalogReader) error) error {
	return c.withDatabase(func(db database.Manager) error {
		return fn(internal.NewStoreOrchestrator(db))
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
