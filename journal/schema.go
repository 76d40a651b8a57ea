package journal

const Schema = `
CREATE TABLE IF NOT EXISTS challenges (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	initial_balance REAL NOT NULL,
	equity REAL NOT NULL,
	daily_starting_equity REAL NOT NULL,
	trading_day TEXT NOT NULL,
	profit_target_percent REAL NOT NULL,
	daily_loss_limit_percent REAL NOT NULL,
	max_drawdown_percent REAL NOT NULL,
	status TEXT NOT NULL,
	admin_note TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS status_changes (
	id TEXT PRIMARY KEY,
	challenge_id TEXT NOT NULL REFERENCES challenges(id),
	from_status TEXT NOT NULL,
	to_status TEXT NOT NULL,
	note TEXT NOT NULL,
	actor TEXT NOT NULL,
	at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	challenge_id TEXT NOT NULL REFERENCES challenges(id),
	time DATETIME NOT NULL,
	equity REAL NOT NULL,
	daily_starting_equity REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_challenges_status ON challenges(status);
CREATE INDEX IF NOT EXISTS idx_status_changes_challenge ON status_changes(challenge_id, id);
CREATE INDEX IF NOT EXISTS idx_equity_challenge_time ON equity(challenge_id, time);
`
