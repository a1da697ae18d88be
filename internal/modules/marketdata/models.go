// Package marketdata maintains the local daily price history used by
// the portfolio optimizer: sync from Yahoo Finance, range queries and
// technical indicators.
package marketdata

// DailyPrice is one day of OHLCV data for a symbol. Dates are ISO
// strings (YYYY-MM-DD) as stored in history.db.
type DailyPrice struct {
	Symbol     string  `json:"symbol"`
	Date       string  `json:"date"`
	OpenPrice  float64 `json:"open_price"`
	HighPrice  float64 `json:"high_price"`
	LowPrice   float64 `json:"low_price"`
	ClosePrice float64 `json:"close_price"`
	Volume     int64   `json:"volume"`
}

// SyncResult summarizes one symbol's sync outcome.
type SyncResult struct {
	Symbol       string `json:"symbol"`
	RowsUpserted int    `json:"rows_upserted"`
	Error        string `json:"error,omitempty"`
}

// Quote is a live price for a symbol. Price is nil when Yahoo had no
// valid quote.
type Quote struct {
	Symbol string   `json:"symbol"`
	Price  *float64 `json:"price"`
}

// IndicatorSeries carries a named indicator aligned with its dates.
type IndicatorSeries struct {
	Symbol string    `json:"symbol"`
	Name   string    `json:"name"`
	Period int       `json:"period"`
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
}
