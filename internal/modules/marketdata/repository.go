package marketdata

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles daily price storage in history.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a price history repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "marketdata").Logger(),
	}
}

// UpsertPrices writes a batch of daily prices in one transaction. Rows
// with an existing (symbol, date) key are overwritten.
func (r *Repository) UpsertPrices(prices []DailyPrice) (int, error) {
	if len(prices) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (symbol, date, open_price, high_price, low_price, close_price, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			open_price = excluded.open_price,
			high_price = excluded.high_price,
			low_price = excluded.low_price,
			close_price = excluded.close_price,
			volume = excluded.volume
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, p := range prices {
		symbol := strings.ToUpper(strings.TrimSpace(p.Symbol))
		if symbol == "" || p.Date == "" {
			continue
		}
		if _, err := stmt.Exec(symbol, p.Date, p.OpenPrice, p.HighPrice, p.LowPrice, p.ClosePrice, p.Volume); err != nil {
			return 0, fmt.Errorf("failed to upsert %s %s: %w", symbol, p.Date, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return count, nil
}

// GetPrices returns a symbol's daily prices in ascending date order,
// limited to the most recent lookbackDays rows (0 means all).
func (r *Repository) GetPrices(symbol string, lookbackDays int) ([]DailyPrice, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	query := `
		SELECT symbol, date, open_price, high_price, low_price, close_price, volume
		FROM daily_prices
		WHERE symbol = ?
		ORDER BY date DESC
	`
	args := []interface{}{symbol}
	if lookbackDays > 0 {
		query += " LIMIT ?"
		args = append(args, lookbackDays)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices for %s: %w", symbol, err)
	}
	defer rows.Close()

	var prices []DailyPrice
	for rows.Next() {
		var p DailyPrice
		if err := rows.Scan(&p.Symbol, &p.Date, &p.OpenPrice, &p.HighPrice, &p.LowPrice, &p.ClosePrice, &p.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into ascending order for time-series consumers.
	for i, j := 0, len(prices)-1; i < j; i, j = i+1, j-1 {
		prices[i], prices[j] = prices[j], prices[i]
	}
	return prices, nil
}

// GetClosePrices returns aligned dates and close prices for a symbol.
func (r *Repository) GetClosePrices(symbol string, lookbackDays int) ([]string, []float64, error) {
	prices, err := r.GetPrices(symbol, lookbackDays)
	if err != nil {
		return nil, nil, err
	}

	dates := make([]string, len(prices))
	closes := make([]float64, len(prices))
	for i, p := range prices {
		dates[i] = p.Date
		closes[i] = p.ClosePrice
	}
	return dates, closes, nil
}

// ListSymbols returns the distinct symbols present in the history.
func (r *Repository) ListSymbols() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// RecordSync logs a sync attempt in sync_log.
func (r *Repository) RecordSync(symbol string, rowsUpserted int, syncErr error) error {
	status := "ok"
	message := ""
	if syncErr != nil {
		status = "error"
		message = syncErr.Error()
	}

	_, err := r.db.Exec(`
		INSERT INTO sync_log (symbol, status, rows_upserted, message, synced_at)
		VALUES (?, ?, ?, ?, ?)
	`, strings.ToUpper(symbol), status, rowsUpserted, message, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}
	return nil
}

// LastSyncTime returns the most recent successful sync time for a
// symbol, or the zero string when none exists.
func (r *Repository) LastSyncTime(symbol string) (string, error) {
	var syncedAt sql.NullString
	err := r.db.QueryRow(`
		SELECT MAX(synced_at) FROM sync_log WHERE symbol = ? AND status = 'ok'
	`, strings.ToUpper(symbol)).Scan(&syncedAt)
	if err != nil {
		return "", fmt.Errorf("failed to query last sync: %w", err)
	}
	return syncedAt.String, nil
}
