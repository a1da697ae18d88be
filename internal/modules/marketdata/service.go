package marketdata

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/1ucian0/client-superstaq/internal/clients/yahoo"
)

// DefaultSyncPeriod is the Yahoo history window pulled on each sync.
const DefaultSyncPeriod = "2y"

// Service coordinates price syncing between Yahoo Finance and the local
// history database.
type Service struct {
	repo        *Repository
	yahooClient yahoo.ClientInterface
	log         zerolog.Logger
}

// NewService creates a market data service.
func NewService(repo *Repository, yahooClient yahoo.ClientInterface, log zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		yahooClient: yahooClient,
		log:         log.With().Str("component", "marketdata").Logger(),
	}
}

// Repository exposes the underlying price store for read-side consumers.
func (s *Service) Repository() *Repository {
	return s.repo
}

// SyncSymbol pulls a symbol's history from Yahoo and upserts it locally.
func (s *Service) SyncSymbol(symbol, period string) (SyncResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return SyncResult{}, fmt.Errorf("symbol is required")
	}
	if period == "" {
		period = DefaultSyncPeriod
	}

	bars, err := s.yahooClient.GetHistoricalPrices(symbol, period)
	if err != nil {
		_ = s.repo.RecordSync(symbol, 0, err)
		return SyncResult{Symbol: symbol, Error: err.Error()}, fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}

	prices := make([]DailyPrice, 0, len(bars))
	for _, bar := range bars {
		if bar.Close <= 0 {
			continue
		}
		prices = append(prices, DailyPrice{
			Symbol:     symbol,
			Date:       bar.Date.Format("2006-01-02"),
			OpenPrice:  bar.Open,
			HighPrice:  bar.High,
			LowPrice:   bar.Low,
			ClosePrice: bar.Close,
			Volume:     bar.Volume,
		})
	}

	count, err := s.repo.UpsertPrices(prices)
	if err != nil {
		_ = s.repo.RecordSync(symbol, 0, err)
		return SyncResult{Symbol: symbol, Error: err.Error()}, err
	}

	if err := s.repo.RecordSync(symbol, count, nil); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to record sync")
	}

	s.log.Info().Str("symbol", symbol).Int("rows", count).Msg("Price history synced")
	return SyncResult{Symbol: symbol, RowsUpserted: count}, nil
}

// SyncSymbols syncs a batch of symbols, continuing past per-symbol
// failures. The returned slice has one entry per requested symbol.
func (s *Service) SyncSymbols(symbols []string, period string) []SyncResult {
	results := make([]SyncResult, 0, len(symbols))
	for _, symbol := range symbols {
		result, err := s.SyncSymbol(symbol, period)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Sync failed")
		}
		results = append(results, result)
	}
	return results
}

// Quote fetches a symbol's current price from Yahoo.
func (s *Service) Quote(symbol string) (Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Quote{}, fmt.Errorf("symbol is required")
	}

	price, err := s.yahooClient.GetCurrentPrice(symbol, 0)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}
	return Quote{Symbol: symbol, Price: price}, nil
}

// Quotes fetches current prices for the requested symbols in one
// download. With no symbols given it quotes every tracked symbol.
func (s *Service) Quotes(symbols []string) ([]Quote, error) {
	if len(symbols) == 0 {
		tracked, err := s.repo.ListSymbols()
		if err != nil {
			return nil, err
		}
		symbols = tracked
	}
	for i, symbol := range symbols {
		symbols[i] = strings.ToUpper(strings.TrimSpace(symbol))
	}

	prices, err := s.yahooClient.GetBatchQuotes(symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch batch quotes: %w", err)
	}

	quotes := make([]Quote, 0, len(symbols))
	for _, symbol := range symbols {
		quotes = append(quotes, Quote{Symbol: symbol, Price: prices[symbol]})
	}
	return quotes, nil
}

// GetPrices returns a symbol's stored daily prices.
func (s *Service) GetPrices(symbol string, lookbackDays int) ([]DailyPrice, error) {
	return s.repo.GetPrices(symbol, lookbackDays)
}

// ListSymbols returns the symbols present in the local history.
func (s *Service) ListSymbols() ([]string, error) {
	return s.repo.ListSymbols()
}
