package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/1ucian0/client-superstaq/internal/modules/marketdata"
)

// PriceSyncJob refreshes the local price history for every symbol
// already present in the store.
type PriceSyncJob struct {
	service *marketdata.Service
	period  string
	log     zerolog.Logger
}

// NewPriceSyncJob creates a price sync job. period uses Yahoo range
// syntax ("1mo", "1y"); empty means a short incremental window.
func NewPriceSyncJob(service *marketdata.Service, period string, log zerolog.Logger) *PriceSyncJob {
	if period == "" {
		period = "1mo"
	}
	return &PriceSyncJob{
		service: service,
		period:  period,
		log:     log.With().Str("job", "price_sync").Logger(),
	}
}

// Name returns the job identifier.
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Run syncs all tracked symbols, continuing past per-symbol failures.
func (j *PriceSyncJob) Run() error {
	symbols, err := j.service.ListSymbols()
	if err != nil {
		return fmt.Errorf("failed to list symbols: %w", err)
	}
	if len(symbols) == 0 {
		j.log.Debug().Msg("No symbols to sync")
		return nil
	}

	results := j.service.SyncSymbols(symbols, j.period)
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}

	j.log.Info().
		Int("symbols", len(symbols)).
		Int("failed", failed).
		Msg("Price sync cycle complete")

	if failed == len(symbols) {
		return fmt.Errorf("all %d symbol syncs failed", failed)
	}
	return nil
}
