package journal

const Schema = `
CREATE TABLE IF NOT EXISTS entries (
	id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	regime TEXT NOT NULL,
	size_factor REAL NOT NULL,
	volume REAL NOT NULL,
	price REAL NOT NULL,
	sl REAL NOT NULL,
	tp REAL NOT NULL,
	risk_dollars REAL NOT NULL,
	retcode INTEGER NOT NULL,
	ticket INTEGER NOT NULL,
	dry_run INTEGER NOT NULL,
	comment TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS manages (
	id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	ticket INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	action TEXT NOT NULL,
	r_multiple REAL NOT NULL,
	old_sl REAL NOT NULL,
	new_sl REAL NOT NULL,
	retcode INTEGER NOT NULL,
	ok INTEGER NOT NULL,
	dry_run INTEGER NOT NULL,
	note TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	equity REAL NOT NULL,
	start_equity REAL NOT NULL,
	change_pct REAL NOT NULL,
	dd_pct REAL NOT NULL,
	trades INTEGER NOT NULL,
	verdict TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_time ON entries(time);
CREATE INDEX IF NOT EXISTS idx_manages_time ON manages(time);
CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
