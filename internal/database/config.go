package database

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DatabaseConfig is a subset of the configuration focusing solely
// on database connection items
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	URL             string        `yaml:"url" env:"DATABASE_URL"`
	Name            string        `yaml:"name" env:"DATABASE_NAME" env-default:"netgram"`
	ConnectAttempts int           `yaml:"connect_attempts" env:"DB_CONNECT_ATTEMPTS" env-default:"5"`
	RetryInterval   time.Duration `yaml:"retry_interval" env:"DB_RETRY_INTERVAL" env-default:"3s"`
}

type dialect struct {
	// driverName is the name the SQL driver registers itself under
	driverName string
	// bindName is given to sqlx so it can rebind '?' placeholders
	bindName     string
	gooseDialect string
	dsn          func(DatabaseConfig) (string, error)
}

var dialects = map[string]dialect{
	"postgres": {driverName: "postgres", bindName: "postgres", gooseDialect: "postgres", dsn: postgresDSN},
	"sqlite":   {driverName: "sqlite", bindName: "sqlite3", gooseDialect: "sqlite3", dsn: sqliteDSN},
}

func dialectFor(config DatabaseConfig) (dialect, error) {
	d, ok := dialects[strings.ToLower(config.Driver)]
	if !ok {
		return dialect{}, fmt.Errorf("database driver '%s' is not supported (expected postgres or sqlite)", config.Driver)
	}

	return d, nil
}

// postgresDSN accepts either a URL ('postgres://...') or a key/value connection
// string, and fills in the database name if the connection string doesn't
// already specify one.
func postgresDSN(config DatabaseConfig) (string, error) {
	if config.URL == "" {
		return "", fmt.Errorf("a connection string (DATABASE_URL) is required for postgres")
	}

	if strings.HasPrefix(config.URL, "postgres://") || strings.HasPrefix(config.URL, "postgresql://") {
		u, err := url.Parse(config.URL)
		if err != nil {
			return "", fmt.Errorf("connection string is not a valid URL: %w", err)
		}
		if u.Path == "" || u.Path == "/" {
			u.Path = "/" + config.Name
		}

		return u.String(), nil
	}

	if strings.Contains(config.URL, "dbname=") {
		return config.URL, nil
	}

	return fmt.Sprintf("%s dbname=%s", config.URL, config.Name), nil
}

// sqliteDSN uses the URL as a file path, defaulting to '<name>.db'. Foreign
// keys and a busy timeout are enabled on every connection.
func sqliteDSN(config DatabaseConfig) (string, error) {
	path := config.URL
	if path == "" {
		path = config.Name + ".db"
	}

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}

	return path + separator + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
}
