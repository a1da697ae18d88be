package database

// schemas maps database names to their DDL. Each schema is the single
// source of truth for that database and must stay idempotent.
var schemas = map[string]string{
	"history": historySchema,
	"jobs":    jobsSchema,
}

const historySchema = `
CREATE TABLE IF NOT EXISTS daily_prices (
    symbol      TEXT NOT NULL,
    date        TEXT NOT NULL, -- YYYY-MM-DD
    open_price  REAL NOT NULL DEFAULT 0,
    high_price  REAL NOT NULL DEFAULT 0,
    low_price   REAL NOT NULL DEFAULT 0,
    close_price REAL NOT NULL,
    volume      INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (symbol, date)
);

CREATE INDEX IF NOT EXISTS idx_daily_prices_symbol ON daily_prices(symbol);
CREATE INDEX IF NOT EXISTS idx_daily_prices_date ON daily_prices(date);

CREATE TABLE IF NOT EXISTS sync_log (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol        TEXT NOT NULL,
    status        TEXT NOT NULL,
    rows_upserted INTEGER NOT NULL,
    message       TEXT,
    synced_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sync_log_symbol ON sync_log(symbol);
`

const jobsSchema = `
CREATE TABLE IF NOT EXISTS quantum_jobs (
    id          TEXT PRIMARY KEY, -- comma-joined remote job IDs
    target      TEXT NOT NULL,
    shots       INTEGER NOT NULL,
    method      TEXT,
    status      TEXT NOT NULL,
    payload     BLOB,             -- msgpack-encoded circuits and results
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_quantum_jobs_status ON quantum_jobs(status);

CREATE TABLE IF NOT EXISTS optimization_runs (
    id              TEXT PRIMARY KEY, -- uuid
    symbols         TEXT NOT NULL,    -- comma-joined tickers
    weights_json    TEXT NOT NULL,
    expected_return REAL NOT NULL,
    volatility      REAL NOT NULL,
    sharpe_ratio    REAL NOT NULL,
    energy          REAL NOT NULL,
    reads           INTEGER NOT NULL,
    bits_per_asset  INTEGER NOT NULL,
    created_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_optimization_runs_created ON optimization_runs(created_at);
`
