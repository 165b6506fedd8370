package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/events/internal/config"
	"github.com/sakif/events/internal/repository"
	sqliteRepo "github.com/sakif/events/internal/repository/sqlite"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:         config.Test,
		DatabaseURL: "file:" + filepath.Join(t.TempDir(), "data", "events.db"),
		DBMaxConns:  1,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func countEvents(t *testing.T, cfg config.Config) int {
	t.Helper()
	db, err := sqliteRepo.New(cfg.DatabaseURL, 1)
	require.NoError(t, err)
	defer db.Close()

	n, err := db.CountEvents(context.Background())
	require.NoError(t, err)
	return n
}

func TestRun_Seed(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	require.NoError(t, run(ctx, cfg, quietLogger(), false, true))
	assert.Equal(t, len(exampleEvents), countEvents(t, cfg))

	db, err := sqliteRepo.New(cfg.DatabaseURL, 1)
	require.NoError(t, err)
	defer db.Close()

	admin, err := db.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.Admin)

	events, err := db.ListEvents(ctx, repository.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "forritarahittingur-i-februar", events[0].Slug)
}

func TestRun_DropsExistingData(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	require.NoError(t, run(ctx, cfg, quietLogger(), false, true))
	require.NoError(t, run(ctx, cfg, quietLogger(), false, false))

	assert.Zero(t, countEvents(t, cfg))
}

func TestRun_KeepAndReseed(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	require.NoError(t, run(ctx, cfg, quietLogger(), false, true))
	require.NoError(t, run(ctx, cfg, quietLogger(), true, true), "seeding twice skips existing rows")

	assert.Equal(t, len(exampleEvents), countEvents(t, cfg))
}
