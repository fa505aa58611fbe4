package internal

import (
	"context"
	"fmt"
	"sync"

	"github.com/netgram/netgram/internal/api"
	"github.com/netgram/netgram/internal/database"
	"github.com/netgram/netgram/internal/http/shortener"
	"github.com/netgram/netgram/internal/http/tmdb"
	"github.com/netgram/netgram/internal/ingest"
	"github.com/netgram/netgram/internal/telegram"
	"github.com/netgram/netgram/pkg/logger"
)

var log = logger.Get("Core")

type (
	RunnableService interface {
		Run(context.Context) error
	}

	// Mode selects which of NetGram's services are run by this process. The
	// API and the bot share nothing but the database, and so can be run
	// (and scaled) separately.
	Mode int

	// netgramImpl represents the top-level object for the server, and is responsible
	// for connecting to the database, constructing the stores and services, and
	// supervising the services for the lifetime of the process.
	netgramImpl struct {
		config NetgramConfig
		mode   Mode
	}
)

const (
	ModeAll Mode = iota
	ModeAPI
	ModeBot
)

func (mode Mode) String() string {
	switch mode {
	case ModeAll:
		return "all"
	case ModeAPI:
		return "api"
	case ModeBot:
		return "bot"
	}

	return fmt.Sprintf("Mode(%d)", int(mode))
}

func (mode Mode) runsAPI() bool { return mode == ModeAll || mode == ModeAPI }
func (mode Mode) runsBot() bool { return mode == ModeAll || mode == ModeBot }

func New(config NetgramConfig, mode Mode) *netgramImpl {
	return &netgramImpl{config: config, mode: mode}
}

// Run will start NetGram by connecting to the database and then bringing up
// the services required for the configured mode.
//
// This function will not return until NetGram is stopped.
// To stop NetGram, the provided context must be cancelled. A service crashing
// will also stop NetGram, with the cause of the crash returned.
func (netgram *netgramImpl) Run(parent context.Context) error {
	log.Emit(logger.DEBUG, "Bootstrapping NetGram services (mode=%s)\n", netgram.mode)

	log.Emit(logger.NEW, "Connecting to database...\n")
	db := database.New()
	if err := db.Connect(netgram.config.Database); err != nil {
		return err
	}
	defer db.Close()
	store := NewStoreOrchestrator(db)

	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)
	crashHandler := func(label string, err error) {
		log.Emit(logger.FATAL, "Service crash (%s)! %s\n", label, err.Error())
		cancel(fmt.Errorf("service %s crashed: %w", label, err))
	}

	wg := &sync.WaitGroup{}
	if netgram.mode.runsBot() {
		ingestService := ingest.New(
			netgram.config.Ingest,
			store,
			tmdb.NewEnricher(netgram.config.Enrichment),
			shortener.New(netgram.config.Shortener),
		)

		spawnAsyncService(ctx, wg, ingestService, "ingest-service", crashHandler)
		spawnAsyncService(ctx, wg, telegram.New(netgram.config.Bot, ingestService, store), "telegram-bot", crashHandler)
	}
	if netgram.mode.runsAPI() {
		spawnAsyncService(ctx, wg, api.NewRestGateway(&netgram.config.RestConfig, store), "rest-gateway", crashHandler)
	}
	log.Emit(logger.SUCCESS, "NetGram services spawned!\n")

	wg.Wait()
	if cause := context.Cause(ctx); cause != nil && cause != ctx.Err() {
		return cause
	}

	return nil
}

// spawnAsyncService will run the provided service as it's own
// go-routine, ensuring that the service waitgroup is updated correctly
func spawnAsyncService(ctx context.Context, wg *sync.WaitGroup, service RunnableService, serviceLabel string, crashHandler func(string, error)) {
	log.Emit(logger.NEW, "Spawning %s\n", serviceLabel)
	wg.Add(1)

	go func(wg *sync.WaitGroup, label string, crash func(string, error)) {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				crash(label, fmt.Errorf("panic %v", r))
			}
		}()

		if err := service.Run(ctx); err != nil {
			crash(label, err)
		}
	}(wg, serviceLabel, crashHandler)
}
