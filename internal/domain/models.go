// Package domain holds the core data model shared across the pipeline.
package domain

import "time"

// Candidate is a raw article produced by a source adapter, before
// deduplication. URL is already canonicalized by the adapter.
type Candidate struct {
	URL         string
	Title       string
	Content     string
	Summary     string
	Author      string
	Category    string
	Source      string
	PublishedAt time.Time
}

// Article is a persisted news article. Immutable once stored; downstream
// stages attach sentiment and ticker links by reference.
type Article struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Summary     string    `json:"summary,omitempty"`
	Author      string    `json:"author,omitempty"`
	Category    string    `json:"category,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// SentimentLabel is the three-way sentiment bucket
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// SentimentResult is the classifier output for one article.
// Exactly one per article; re-analysis overwrites.
type SentimentResult struct {
	ArticleID  int64          `json:"article_id"`
	Score      float64        `json:"score"` // -1 (negative) to 1 (positive)
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"confidence"` // 0 to 1
	AnalyzedAt time.Time      `json:"analyzed_at"`
}

// TickerLink associates an article with one ticker symbol it mentions.
// At most one link per (article, ticker) pair.
type TickerLink struct {
	ArticleID    int64  `json:"article_id"`
	Ticker       string `json:"ticker"`
	MatchedAlias string `json:"matched_alias,omitempty"`
}

// SignalType is the trading recommendation direction
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
)

// Signal is a derived per-ticker recommendation over a rolling window.
type Signal struct {
	ID           int64      `json:"id"`
	Ticker       string     `json:"ticker"`
	Type         SignalType `json:"signal_type"`
	Strength     float64    `json:"signal_strength"` // 0 to 1
	AvgSentiment float64    `json:"avg_sentiment"`
	Consistency  float64    `json:"consistency"`
	ArticleCount int        `json:"article_count"`
	WindowDays   int        `json:"timeframe_days"`
	GeneratedAt  time.Time  `json:"generated_at"`
}

// BatchReport is a pure summary of one pipeline run, used for observability.
type BatchReport struct {
	RunID            string        `json:"run_id"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
	Fetched          int           `json:"fetched"`
	Inserted         int           `json:"inserted"`
	Analyzed         int           `json:"analyzed"`
	Failed           int           `json:"failed"`
	TickersTouched   int           `json:"tickers_touched"`
	SignalsGenerated int           `json:"signals_generated"`
}
