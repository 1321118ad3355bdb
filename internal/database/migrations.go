package database

import "fmt"

// schema is applied in order on startup. Statements are idempotent so a
// restart against an existing database is a no-op.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		url           TEXT NOT NULL UNIQUE,
		title         TEXT NOT NULL,
		content       TEXT NOT NULL,
		summary       TEXT,
		author        TEXT,
		category      TEXT,
		source        TEXT NOT NULL,
		published_at  TIMESTAMP,
		scraped_at    TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category)`,

	`CREATE TABLE IF NOT EXISTS sentiments (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		article_id   INTEGER NOT NULL UNIQUE REFERENCES articles(id) ON DELETE CASCADE,
		score        REAL NOT NULL,
		label        TEXT NOT NULL,
		confidence   REAL NOT NULL,
		analyzed_at  TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS article_tickers (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		article_id    INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		ticker        TEXT NOT NULL,
		matched_alias TEXT,
		UNIQUE(article_id, ticker)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_article_tickers_ticker ON article_tickers(ticker)`,

	`CREATE TABLE IF NOT EXISTS signals (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker         TEXT NOT NULL,
		signal_type    TEXT NOT NULL,
		strength       REAL NOT NULL,
		avg_sentiment  REAL NOT NULL,
		consistency    REAL NOT NULL,
		article_count  INTEGER NOT NULL,
		window_days    INTEGER NOT NULL,
		generated_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_generated_at ON signals(generated_at)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_type ON signals(signal_type)`,

	`CREATE TABLE IF NOT EXISTS run_locks (
		name        TEXT PRIMARY KEY,
		holder      TEXT NOT NULL,
		acquired_at TIMESTAMP NOT NULL,
		expires_at  TIMESTAMP NOT NULL
	)`,
}

// Migrate creates the schema if it does not exist yet
func (db *DB) Migrate() error {
	for _, stmt := range schema {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
