package reliability

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ucian0/client-superstaq/internal/database"
)

func newBackupFixture(t *testing.T) (*BackupService, string) {
	t.Helper()

	dir := t.TempDir()

	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(dir, "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	require.NoError(t, err)
	require.NoError(t, historyDB.Migrate())
	t.Cleanup(func() { historyDB.Close() })

	jobsDB, err := database.New(database.Config{
		Path:    filepath.Join(dir, "jobs.db"),
		Profile: database.ProfileStandard,
		Name:    "jobs",
	})
	require.NoError(t, err)
	require.NoError(t, jobsDB.Migrate())
	t.Cleanup(func() { jobsDB.Close() })

	_, err = historyDB.Exec(
		`INSERT INTO daily_prices (symbol, date, open_price, high_price, low_price, close_price, volume)
		 VALUES ('AAPL', '2026-01-02', 100, 101, 99, 100.5, 1000)`,
	)
	require.NoError(t, err)

	backupDir := filepath.Join(dir, "backups")
	svc := NewBackupService(
		map[string]*database.DB{"history": historyDB, "jobs": jobsDB},
		backupDir, 3, zerolog.Nop(),
	)
	return svc, backupDir
}

func TestDailyBackupCreatesVerifiedSnapshots(t *testing.T) {
	svc, backupDir := newBackupFixture(t)

	require.NoError(t, svc.DailyBackup())

	date := time.Now().Format("2006-01-02")
	for _, name := range []string{"history", "jobs"} {
		path := filepath.Join(backupDir, "daily", date, name+".db")
		info, err := os.Stat(path)
		require.NoError(t, err, "expected snapshot for %s", name)
		assert.Greater(t, info.Size(), int64(0))
		assert.NoError(t, svc.verifyBackup(path))
	}
}

func TestDailyBackupIsRepeatable(t *testing.T) {
	svc, _ := newBackupFixture(t)

	require.NoError(t, svc.DailyBackup())
	require.NoError(t, svc.DailyBackup(), "a second run on the same day must overwrite the snapshot")
}

func TestRotateDailyBackupsKeepsNewest(t *testing.T) {
	svc, backupDir := newBackupFixture(t)

	dates := []string{"2026-08-01", "2026-08-02", "2026-08-03", "2026-08-04", "2026-08-05"}
	for _, d := range dates {
		require.NoError(t, os.MkdirAll(filepath.Join(backupDir, "daily", d), 0755))
	}

	require.NoError(t, svc.rotateDailyBackups())

	entries, err := os.ReadDir(filepath.Join(backupDir, "daily"))
	require.NoError(t, err)

	var remaining []string
	for _, e := range entries {
		remaining = append(remaining, e.Name())
	}
	assert.Equal(t, []string{"2026-08-03", "2026-08-04", "2026-08-05"}, remaining)
}

func TestLatestBackup(t *testing.T) {
	svc, backupDir := newBackupFixture(t)

	_, err := svc.LatestBackup("history")
	assert.Error(t, err, "no snapshot taken yet")

	require.NoError(t, svc.DailyBackup())

	path, err := svc.LatestBackup("history")
	require.NoError(t, err)
	date := time.Now().Format("2006-01-02")
	assert.Equal(t, filepath.Join(backupDir, "daily", date, "history.db"), path)
}

func TestBackupJob(t *testing.T) {
	svc, _ := newBackupFixture(t)
	job := NewBackupJob(svc)

	assert.Equal(t, "database_backup", job.Name())
	assert.NoError(t, job.Run())
}
