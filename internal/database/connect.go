package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/netgram/netgram/pkg/logger"
	"github.com/pressly/goose/v3"
	sqldblogger "github.com/simukti/sqldb-logger"
	_ "modernc.org/sqlite"
)

var (
	//go:embed migrations/*.sql
	migrations embed.FS

	// goose configuration is global, so concurrent migrations
	// (e.g. from parallel tests) must be serialised.
	migrationLock = &sync.Mutex{}

	dbLogger = logger.Get("DB")
)

type (
	SqlLogger struct {
		logger logger.Logger
	}

	gooseLogger struct {
		logger logger.Logger
	}

	// Queryable is satisfied by both *sqlx.DB and *sqlx.Tx, allowing
	// stores to run their queries with or without a transaction.
	Queryable interface {
		sqlx.QueryerContext
		sqlx.ExecerContext
		GetContext(ctx context.Context, dest any, query string, args ...any) error
		SelectContext(ctx context.Context, dest any, query string, args ...any) error
		Rebind(query string) string
	}

	Manager interface {
		Connect(DatabaseConfig) error
		GetSqlxDb() *sqlx.DB
		WrapTx(context.Context, func(*sqlx.Tx) error) error
		MigrationVersion() (int64, error)
		Close() error
	}

	manager struct {
		rawDb   *sql.DB
		db      *sqlx.DB
		dialect dialect
	}
)

func New() *manager {
	return &manager{}
}

// Connect opens the database described by the config, retrying the
// initial ping a configurable number of times, and then runs any
// pending migrations.
func (db *manager) Connect(config DatabaseConfig) error {
	dialect, err := dialectFor(config)
	if err != nil {
		return err
	}

	dsn, err := dialect.dsn(config)
	if err != nil {
		return err
	}

	driverDb, err := sql.Open(dialect.driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", dialect.driverName, err)
	}
	rawDb := sqldblogger.OpenDriver(dsn, driverDb.Driver(), &SqlLogger{dbLogger})
	_ = driverDb.Close()

	attempts := max(config.ConnectAttempts, 1)
	for attempt := 1; ; attempt++ {
		err := rawDb.Ping()
		if err == nil {
			break
		}

		if attempt >= attempts {
			dbLogger.Errorf("All attempts FAILED!\n")
			_ = rawDb.Close()
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		dbLogger.Warnf("Attempt (%v/%v) failed... Retrying in %s\n", attempt, attempts, config.RetryInterval)
		time.Sleep(config.RetryInterval)
	}

	db.rawDb = rawDb
	db.db = sqlx.NewDb(rawDb, dialect.bindName)
	db.dialect = dialect

	if err := db.ExecuteMigrations(); err != nil {
		return err
	}

	dbLogger.Successf("Database connection complete!\n")
	return nil
}

// ExecuteMigrations uses the comp-time embedded SQL migrations (found in the 'migrations'
// dir in this package) and runs them against the current DB instance.
func (db *manager) ExecuteMigrations() error {
	if db.rawDb == nil {
		return errors.New("cannot execute migrations when DB manager has not yet connected")
	}

	migrationLock.Lock()
	defer migrationLock.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLogger{dbLogger})
	if err := goose.SetDialect(db.dialect.gooseDialect); err != nil {
		return fmt.Errorf("failed to set dialect for DB migration: %w", err)
	}

	dbLogger.Infof("Checking for pending DB migrations...\n")
	if err := goose.Up(db.rawDb, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate DB: %w", err)
	}

	dbLogger.Successf("DB Goose migration complete!\n")
	return nil
}

// MigrationVersion returns the version of the most recently
// applied migration.
func (db *manager) MigrationVersion() (int64, error) {
	if db.rawDb == nil {
		return 0, errors.New("DB manager has not yet connected")
	}

	migrationLock.Lock()
	defer migrationLock.Unlock()

	if err := goose.SetDialect(db.dialect.gooseDialect); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db.rawDb)
}

// GetSqlxDb returns the sqlx database connection if
// one has been opened using 'Connect'. Otherwise, nil is returned
func (db *manager) GetSqlxDb() *sqlx.DB {
	return db.db
}

// WrapTx is a convenience method around the top-level WrapTx, which simply
// uses the managers DB instance as the first argument.
func (db *manager) WrapTx(ctx context.Context, f func(tx *sqlx.Tx) error) error {
	if db.db == nil {
		return errors.New("DB manager has not yet connected")
	}

	return WrapTx(ctx, db.db, f)
}

func (db *manager) Close() error {
	if db.db == nil {
		return nil
	}

	return db.db.Close()
}

func (l *SqlLogger) Log(_ context.Context, level sqldblogger.Level, msg string, data map[string]any) {
	template := "%s - %v\n"
	switch level {
	case sqldblogger.LevelTrace:
		l.logger.Verbosef(template, msg, data)
	case sqldblogger.LevelDebug, sqldblogger.LevelInfo:
		duration := data["duration"]
		if query, ok := data["query"]; ok {
			l.logger.Debugf("%s [%vms] -- %s\n", msg, duration, query)
		} else {
			l.logger.Debugf("%s [%vms]\n", msg, duration)
		}
	case sqldblogger.LevelError:
		l.logger.Errorf(template, msg, data)
	}
}

func (l *gooseLogger) Print(v ...any)                 { l.logger.Infof("%s", fmt.Sprint(v...)) }
func (l *gooseLogger) Println(v ...any)               { l.logger.Infof("%s", fmt.Sprintln(v...)) }
func (l *gooseLogger) Printf(format string, v ...any) { l.logger.Infof(format, v...) }
func (l *gooseLogger) Fatal(v ...any) {
	l.logger.Emit(logger.FATAL, "%s", fmt.Sprint(v...))
	os.Exit(1)
}
func (l *gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Emit(logger.FATAL, format, v...)
	os.Exit(1)
}

// WrapTx starts a transaction against the provided DB, and then calls the user
// provided function. If this function errors, the transaction is rolled back - otherwise
// the transaction is committed.
func WrapTx(ctx context.Context, db *sqlx.DB, f func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := f(tx); err != nil {
		dbLogger.Errorf("Transaction failed... rolling back. Error: %s\n", err.Error())
		return err
	}

	return tx.Commit()
}
