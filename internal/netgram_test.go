package internal

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/netgram/netgram/internal/api"
	"github.com/netgram/netgram/internal/database"
	"github.com/netgram/netgram/internal/telegram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnableFunc func(context.Context) error

func (f runnableFunc) Run(ctx context.Context) error { return f(ctx) }

func testConfig(t *testing.T) NetgramConfig {
	return NetgramConfig{
		Database: database.DatabaseConfig{
			Driver:          "sqlite",
			URL:             filepath.Join(t.TempDir(), "netgram.db"),
			ConnectAttempts: 1,
		},
		RestConfig: api.RestConfig{Host: "127.0.0.1", Port: 0},
		Bot:        telegram.Config{LockPath: filepath.Join(t.TempDir(), "bot.lock")},
	}
}

func Test_SpawnAsyncService_ReportsCrashes(t *testing.T) {
	tests := []struct {
		summary string
		service RunnableService
	}{
		{"error", runnableFunc(func(context.Context) error { return errors.New("boom") })},
		{"panic", runnableFunc(func(context.Context) error { panic("boom") })},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			wg := &sync.WaitGroup{}
			var crashed []string
			mutex := &sync.Mutex{}

			spawnAsyncService(context.Background(), wg, tt.service, "test-service", func(label string, err error) {
				mutex.Lock()
				defer mutex.Unlock()
				crashed = append(crashed, label)
				assert.ErrorContains(t, err, "boom")
			})
			wg.Wait()

			assert.Equal(t, []string{"test-service"}, crashed)
		})
	}
}

func Test_Run_StopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	assert.NoError(t, New(testConfig(t), ModeAPI).Run(ctx))
}

func Test_Run_ReturnsCrashCause(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := New(testConfig(t), ModeBot).Run(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, telegram.ErrMissingToken)
	assert.NoError(t, ctx.Err(), "Run should return as soon as a service crashes")
}

func Test_Run_DatabaseFailure(t *testing.T) {
	config := testConfig(t)
	config.Database.Driver = "oracle"

	assert.Error(t, New(config, ModeAll).Run(context.Background()))
}

func Test_Mode(t *testing.T) {
	assert.True(t, ModeAll.runsAPI())
	assert.True(t, ModeAll.runsBot())
	assert.True(t, ModeAPI.runsAPI())
	assert.False(t, ModeAPI.runsBot())
	assert.False(t, ModeBot.runsAPI())
	assert.Equal(t, "bot", ModeBot.String())
}
