package marketdata

import (
	"fmt"
	"strings"

	"github.com/markcheno/go-talib"
)

// Indicator computes a named technical indicator over a symbol's stored
// close prices. Supported names: sma, ema, rsi, atr.
func (s *Service) Indicator(symbol, name string, period, lookbackDays int) (*IndicatorSeries, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if period <= 0 {
		period = 14
	}

	prices, err := s.repo.GetPrices(symbol, lookbackDays)
	if err != nil {
		return nil, err
	}
	if len(prices) < period+1 {
		return nil, fmt.Errorf("insufficient history for %s: have %d bars, need at least %d", symbol, len(prices), period+1)
	}

	dates := make([]string, len(prices))
	closes := make([]float64, len(prices))
	highs := make([]float64, len(prices))
	lows := make([]float64, len(prices))
	for i, p := range prices {
		dates[i] = p.Date
		closes[i] = p.ClosePrice
		highs[i] = p.HighPrice
		lows[i] = p.LowPrice
	}

	var values []float64
	switch name {
	case "sma":
		values = talib.Sma(closes, period)
	case "ema":
		values = talib.Ema(closes, period)
	case "rsi":
		values = talib.Rsi(closes, period)
	case "atr":
		values = talib.Atr(highs, lows, closes, period)
	default:
		return nil, fmt.Errorf("unknown indicator %q (supported: sma, ema, rsi, atr)", name)
	}

	return &IndicatorSeries{
		Symbol: strings.ToUpper(strings.TrimSpace(symbol)),
		Name:   name,
		Period: period,
		Dates:  dates,
		Values: values,
	}, nil
}
