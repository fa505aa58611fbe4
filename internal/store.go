package internal

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/netgram/netgram/internal/catalog"
	"github.com/netgram/netgram/internal/database"
)

type (
	// storeOrchestrator is responsible for managing all of NetGram's resources.
	// You can think of all the data stores below this layer being 'dumb', and
	// this store linking them together and providing the database instance (and
	// transactions where required).
	//
	// If consumers need to be able to access data stores directly, they're
	// welcome to do so - however caution should be taken as stores have no
	// obligation to manage their own transactions (which is the orchestrator's job)
	storeOrchestrator struct {
		db            database.Manager
		CatalogStore  *catalog.Store
		ErrorLogStore *catalog.ErrorLogStore
		now           func() time.Time
	}
)

func NewStoreOrchestrator(db database.Manager) *storeOrchestrator {
	if db.GetSqlxDb() == nil {
		panic("cannot construct netgram data store with a disconnected database")
	}

	return &storeOrchestrator{
		db:            db,
		CatalogStore:  catalog.NewStore(),
		ErrorLogStore: &catalog.ErrorLogStore{},
		now:           time.Now,
	}
}

// IsDuplicate returns true if a record with the fingerprint provided already
// exists. This is a read-only check, and provides no guarantee that a subsequent
// insert will succeed.
func (orchestrator *storeOrchestrator) IsDuplicate(ctx context.Context, fingerprint string) (bool, error) {
	return orchestrator.CatalogStore.Exists(ctx, orchestrator.db.GetSqlxDb(), fingerprint)
}

// InsertIfAbsent saves the record (and its genres) in a single transaction, unless
// a record with the same fingerprint already exists.
func (orchestrator *storeOrchestrator) InsertIfAbsent(ctx context.Context, record *catalog.Record) (bool, error) {
	var inserted bool
	err := orchestrator.db.WrapTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		inserted, err = orchestrator.CatalogStore.InsertIfAbsent(ctx, tx, record)
		return err
	})

	return inserted, err
}

func (orchestrator *storeOrchestrator) LogIngestError(ctx context.Context, message string) error {
	return orchestrator.ErrorLogStore.Record(ctx, orchestrator.db.GetSqlxDb(), message, orchestrator.now())
}

func (orchestrator *storeOrchestrator) RecentIngestErrors(ctx context.Context, limit int) ([]*catalog.IngestError, error) {
	return orchestrator.ErrorLogStore.Recent(ctx, orchestrator.db.GetSqlxDb(), limit)
}

func (orchestrator *storeOrchestrator) ListMovies(ctx context.Context, opts catalog.ListOptions) ([]*catalog.Record, error) {
	return orchestrator.CatalogStore.List(ctx, orchestrator.db.GetSqlxDb(), opts)
}

func (orchestrator *storeOrchestrator) GetMovieByMessageID(ctx context.Context, messageID int64) (*catalog.Record, error) {
	return orchestrator.CatalogStore.GetByMessageID(ctx, orchestrator.db.GetSqlxDb(), messageID)
}

func (orchestrator *storeOrchestrator) SearchMovies(ctx context.Context, query string, offset int, limit int) ([]*catalog.Record, error) {
	return orchestrator.CatalogStore.SearchByTitle(ctx, orchestrator.db.GetSqlxDb(), query, offset, limit)
}

func (orchestrator *storeOrchestrator) CountMovies(ctx context.Context) (int, error) {
	return orchestrator.CatalogStore.Count(ctx, orchestrator.db.GetSqlxDb())
}

func (orchestrator *storeOrchestrator) ListGenres(ctx context.Context) ([]string, error) {
	return orchestrator.CatalogStore.ListGenres(ctx, orchestrator.db.GetSqlxDb())
}
