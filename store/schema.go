// store/schema.go
package store

const schema = `
CREATE TABLE IF NOT EXISTS tickers (
	symbol TEXT NOT NULL,
	type INTEGER NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (symbol, type)
);

CREATE TABLE IF NOT EXISTS ticker_fields (
	symbol TEXT NOT NULL,
	type INTEGER NOT NULL,
	field TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (symbol, type, field)
);

CREATE TABLE IF NOT EXISTS bars (
	symbol TEXT NOT NULL,
	type INTEGER NOT NULL,
	ts TEXT NOT NULL,
	intraday INTEGER NOT NULL,
	price REAL NOT NULL,
	volume REAL NOT NULL,
	PRIMARY KEY (symbol, type, ts, intraday)
);

CREATE INDEX IF NOT EXISTS idx_bars_ticker_ts ON bars(symbol, type, intraday, ts);

CREATE TABLE IF NOT EXISTS splits (
	symbol TEXT NOT NULL,
	type INTEGER NOT NULL,
	effective TEXT NOT NULL,
	numerator INTEGER NOT NULL,
	denominator INTEGER NOT NULL,
	PRIMARY KEY (symbol, type, effective)
);

CREATE TABLE IF NOT EXISTS portfolios (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS holdings (
	portfolio_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	type INTEGER NOT NULL,
	volume REAL NOT NULL,
	purchase_date TEXT NOT NULL,
	sell_date TEXT,
	PRIMARY KEY (portfolio_id, symbol, type, purchase_date)
);

CREATE TABLE IF NOT EXISTS meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	generation INTEGER NOT NULL
);

INSERT OR IGNORE INTO meta (id, generation) VALUES (1, 1);
`
