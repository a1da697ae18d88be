package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, name string, profile DatabaseProfile) *DB {
	t.Helper()

	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestNew_CreatesDatabase(t *testing.T) {
	db := newTestDB(t, "history", ProfileStandard)

	assert.Equal(t, "history", db.Name())
	assert.Equal(t, ProfileStandard, db.Profile())
	assert.NoError(t, db.QuickCheck(context.Background()))
}

func TestNew_DefaultsToStandardProfile(t *testing.T) {
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "x.db"),
		Name: "x",
	})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, ProfileStandard, db.Profile())
}

func TestMigrate_AppliesSchema(t *testing.T) {
	db := newTestDB(t, "history", ProfileStandard)

	require.NoError(t, db.Migrate())

	// Table should exist and accept writes
	_, err := db.Exec(
		`INSERT INTO daily_prices (symbol, date, close_price) VALUES (?, ?, ?)`,
		"AAPL", "2024-01-02", 185.64,
	)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM daily_prices`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t, "jobs", ProfileCache)

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db := newTestDB(t, "unknown", ProfileStandard)

	assert.NoError(t, db.Migrate())
}

func TestHealthCheck(t *testing.T) {
	db := newTestDB(t, "jobs", ProfileCache)
	require.NoError(t, db.Migrate())

	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t, "history", ProfileStandard)
	require.NoError(t, db.Migrate())

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
}
