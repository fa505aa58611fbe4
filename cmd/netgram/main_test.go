package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/netgram/netgram/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func sqliteConfig(t *testing.T) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "log_level: error\ndatabase:\n  driver: sqlite\n  url: " + filepath.Join(dir, "netgram.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

func Test_ParseCommand(t *testing.T) {
	out, err := execute(t, "parse", "Inception.2010.1080p.BluRay.mkv")
	require.NoError(t, err)

	assert.Contains(t, out, "Title:       Inception\n")
	assert.Contains(t, out, "Year:        2010\n")
	assert.Contains(t, out, "Quality:     1080p\n")
	assert.Contains(t, out, "Language:    Unknown\n")
	assert.Contains(t, out, "Fingerprint: ")
}

func Test_ParseCommand_RequiresFilename(t *testing.T) {
	_, err := execute(t, "parse")

	assert.Error(t, err)
}

func Test_CatalogCommands_EmptyCatalog(t *testing.T) {
	config := sqliteConfig(t)

	out, err := execute(t, "catalog", "stats", "-c", config)
	require.NoError(t, err)
	assert.Contains(t, out, "Movies: 0\nGenres: 0\n")

	out, err = execute(t, "catalog", "recent", "-c", config)
	require.NoError(t, err)
	assert.Contains(t, out, "No movies found")

	out, err = execute(t, "catalog", "errors", "-c", config)
	require.NoError(t, err)
	assert.Contains(t, out, "No ingestion failures recorded")

	out, err = execute(t, "migrate", "-c", config)
	require.NoError(t, err)
	assert.Contains(t, out, "Database is at migration version 2")
}

func Test_Config_Invalid(t *testing.T) {
	_, err := execute(t, "catalog", "stats", "-c", filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Error(t, err)
}

func Test_PrintRecords(t *testing.T) {
	rating := 7.5
	out := &bytes.Buffer{}
	printRecords(out, []*catalog.Record{{
		MessageID: 42,
		Title:     "Heat",
		Year:      1995,
		Quality:   "1080p",
		Language:  "English",
		Rating:    &rating,
		FileSize:  2 * 1024 * 1024 * 1024,
		CreatedAt: time.Now().Add(-time.Hour),
	}})

	assert.Contains(t, out.String(), "Heat")
	assert.Contains(t, out.String(), "7.5")
	assert.Contains(t, out.String(), "2.0 GiB")
	assert.Contains(t, out.String(), "1 hour ago")
}
