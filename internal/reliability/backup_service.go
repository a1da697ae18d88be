package reliability

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/1ucian0/client-superstaq/internal/database"
	"github.com/rs/zerolog"
)

// BackupService manages daily database backups with rotation.
type BackupService struct {
	databases map[string]*database.DB
	backupDir string
	keepDays  int
	log       zerolog.Logger
}

// NewBackupService creates a new backup service. keepDays bounds how many
// daily backup directories are retained; values below 1 default to 14.
func NewBackupService(databases map[string]*database.DB, backupDir string, keepDays int, log zerolog.Logger) *BackupService {
	if keepDays < 1 {
		keepDays = 14
	}
	return &BackupService{
		databases: databases,
		backupDir: backupDir,
		keepDays:  keepDays,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// DailyBackup snapshots every registered database into a dated directory,
// verifies each copy, then rotates directories past the retention window.
func (s *BackupService) DailyBackup() error {
	s.log.Info().Msg("Starting daily backup")
	startTime := time.Now()

	date := time.Now().Format("2006-01-02")
	dailyDir := filepath.Join(s.backupDir, "daily", date)
	if err := os.MkdirAll(dailyDir, 0755); err != nil {
		return fmt.Errorf("failed to create daily backup directory: %w", err)
	}

	var failed int
	for name := range s.databases {
		backupPath := filepath.Join(dailyDir, name+".db")

		if err := s.backupDatabase(name, backupPath); err != nil {
			s.log.Error().Str("database", name).Err(err).Msg("Failed to backup database")
			failed++
			continue
		}

		if err := s.verifyBackup(backupPath); err != nil {
			s.log.Error().Str("database", name).Err(err).Msg("Backup verification failed")
			os.Remove(backupPath)
			failed++
		}
	}

	if err := s.rotateDailyBackups(); err != nil {
		// Rotation failure should not mask a successful backup.
		s.log.Error().Err(err).Msg("Failed to rotate daily backups")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d database backups failed", failed, len(s.databases))
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("backup_dir", dailyDir).
		Msg("Daily backup completed successfully")

	return nil
}

// backupDatabase copies one database using VACUUM INTO, which produces an
// atomic snapshot without WAL sidecar files.
func (s *BackupService) backupDatabase(name, backupPath string) error {
	db, ok := s.databases[name]
	if !ok {
		return fmt.Errorf("database %s not found", name)
	}

	// VACUUM INTO refuses to overwrite an existing file.
	if err := os.Remove(backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale backup: %w", err)
	}

	if err := db.WALCheckpoint("TRUNCATE"); err != nil {
		s.log.Warn().Str("database", name).Err(err).Msg("WAL checkpoint before backup failed")
	}

	if _, err := db.Exec(fmt.Sprintf("VACUUM INTO '%s'", backupPath)); err != nil {
		return fmt.Errorf("VACUUM INTO failed: %w", err)
	}

	info, err := os.Stat(backupPath)
	if err != nil {
		return fmt.Errorf("failed to stat backup: %w", err)
	}

	s.log.Debug().
		Str("database", name).
		Float64("size_mb", float64(info.Size())/1024/1024).
		Msg("Backup created")

	return nil
}

// verifyBackup opens the snapshot read-only and runs an integrity check.
func (s *BackupService) verifyBackup(backupPath string) error {
	backupDB, err := sql.Open("sqlite", backupPath)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer backupDB.Close()

	var result string
	if err := backupDB.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// rotateDailyBackups deletes dated backup directories beyond keepDays.
// Directory names sort chronologically, so the oldest come first.
func (s *BackupService) rotateDailyBackups() error {
	dailyDir := filepath.Join(s.backupDir, "daily")

	entries, err := os.ReadDir(dailyDir)
	if err != nil {
		return fmt.Errorf("failed to read daily backup directory: %w", err)
	}

	var dates []string
	for _, entry := range entries {
		if entry.IsDir() {
			dates = append(dates, entry.Name())
		}
	}
	if len(dates) <= s.keepDays {
		return nil
	}

	sort.Strings(dates)
	for _, date := range dates[:len(dates)-s.keepDays] {
		path := filepath.Join(dailyDir, date)
		if err := os.RemoveAll(path); err != nil {
			s.log.Warn().Str("path", path).Err(err).Msg("Failed to delete old backup")
		} else {
			s.log.Debug().Str("path", path).Msg("Deleted old backup")
		}
	}

	return nil
}

// LatestBackup returns the path of the most recent verified snapshot for the
// named database, or an error if none exists.
func (s *BackupService) LatestBackup(name string) (string, error) {
	dailyDir := filepath.Join(s.backupDir, "daily")

	entries, err := os.ReadDir(dailyDir)
	if err != nil {
		return "", fmt.Errorf("failed to read daily backup directory: %w", err)
	}

	var dates []string
	for _, entry := range entries {
		if entry.IsDir() {
			dates = append(dates, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	for _, date := range dates {
		candidate := filepath.Join(dailyDir, date, name+".db")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no backup found for database %s", name)
}

// BackupJob adapts BackupService for the scheduler.
type BackupJob struct {
	service *BackupService
}

// NewBackupJob creates a scheduler job that runs the daily backup.
func NewBackupJob(service *BackupService) *BackupJob {
	return &BackupJob{service: service}
}

// Name returns the job name for scheduler logging.
func (j *BackupJob) Name() string {
	return "database_backup"
}

// Run executes the daily backup.
func (j *BackupJob) Run() error {
	return j.service.DailyBackup()
}
