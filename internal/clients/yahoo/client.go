// Package yahoo fetches market data from Yahoo Finance via go-yfinance.
package yahoo

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/multi"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
)

// HistoricalPrice is a single daily bar.
type HistoricalPrice struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
	AdjClose float64   `json:"adj_close"`
}

// ClientInterface is the market data surface the rest of the app depends on.
type ClientInterface interface {
	GetHistoricalPrices(symbol string, period string) ([]HistoricalPrice, error)
	GetCurrentPrice(symbol string, maxRetries int) (*float64, error)
	GetBatchQuotes(symbols []string) (map[string]*float64, error)
}

// Client implements ClientInterface using the go-yfinance library
type Client struct {
	log zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// GetHistoricalPrices fetches historical OHLCV data for a period like "1y" or "5y".
func (c *Client) GetHistoricalPrices(symbol string, period string) ([]HistoricalPrice, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	params := models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	}

	bars, err := t.History(params)
	if err != nil {
		return nil, fmt.Errorf("failed to get historical prices: %w", err)
	}

	historicalPrices := make([]HistoricalPrice, 0, len(bars))
	for _, bar := range bars {
		historicalPrices = append(historicalPrices, HistoricalPrice{
			Date:     bar.Date,
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			Volume:   int64(bar.Volume),
			AdjClose: bar.AdjClose,
		})
	}

	return historicalPrices, nil
}

// GetCurrentPrice gets the current price for a symbol with retries.
func (c *Client) GetCurrentPrice(symbol string, maxRetries int) (*float64, error) {
	if maxRetries == 0 {
		maxRetries = 3 // default
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		t, err := ticker.New(symbol)
		if err != nil {
			lastErr = fmt.Errorf("failed to create ticker: %w", err)
			if attempt < maxRetries-1 {
				waitTime := time.Duration(1<<uint(attempt)) * time.Second
				c.log.Warn().Err(err).Str("symbol", symbol).Int("attempt", attempt+1).Dur("wait", waitTime).Msg("Retrying")
				time.Sleep(waitTime)
				continue
			}
			return nil, lastErr
		}

		quote, err := t.Quote()
		if err == nil && quote != nil {
			price := quote.RegularMarketPrice
			t.Close()
			if price > 0 {
				return &price, nil
			}
		} else {
			t.Close()
		}

		if attempt < maxRetries-1 {
			waitTime := time.Duration(1<<uint(attempt)) * time.Second
			c.log.Warn().Str("symbol", symbol).Int("attempt", attempt+1).Dur("wait", waitTime).Msg("Price was invalid, retrying")
			time.Sleep(waitTime)
			continue
		}

		lastErr = fmt.Errorf("failed to get valid price after %d attempts", maxRetries)
	}

	return nil, lastErr
}

// GetBatchQuotes fetches recent closes for multiple symbols in one download.
func (c *Client) GetBatchQuotes(symbols []string) (map[string]*float64, error) {
	if len(symbols) == 0 {
		return make(map[string]*float64), nil
	}

	params := models.DefaultDownloadParams()
	params.Symbols = symbols
	params.Period = "5d" // last 5 days so recent data is always present
	params.Interval = "1d"

	result, err := multi.Download(symbols, &params)
	if err != nil {
		return nil, fmt.Errorf("failed to download batch quotes: %w", err)
	}

	quotes := make(map[string]*float64)
	for _, symbol := range symbols {
		if bars, ok := result.Data[symbol]; ok && len(bars) > 0 {
			lastBar := bars[len(bars)-1]
			price := lastBar.Close
			quotes[symbol] = &price
		} else if err, ok := result.Errors[symbol]; ok {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to get quote for symbol")
			// Continue with other symbols
		}
	}

	return quotes, nil
}
