package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	regime TEXT NOT NULL,
	shares REAL NOT NULL,
	avg_cost REAL NOT NULL,
	exit_price REAL NOT NULL,
	open_tick INTEGER NOT NULL,
	close_tick INTEGER NOT NULL,
	profit REAL NOT NULL,
	xp INTEGER NOT NULL,
	reason TEXT NOT NULL,
	closed_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	tick INTEGER NOT NULL,
	time DATETIME NOT NULL,
	price REAL NOT NULL,
	regime TEXT NOT NULL,
	balance REAL NOT NULL,
	equity REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_close_tick ON trades(close_tick);
CREATE INDEX IF NOT EXISTS idx_equity_tick ON equity(tick);
`
