package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahamlab/sinyal/internal/domain"
)

// SentimentRepository handles sentiment result persistence
type SentimentRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSentimentRepository creates a new sentiment repository
func NewSentimentRepository(db *sql.DB, log zerolog.Logger) *SentimentRepository {
	return &SentimentRepository{
		db:  db,
		log: log.With().Str("repo", "sentiment").Logger(),
	}
}

// Upsert stores the sentiment result for an article. The article_id
// uniqueness constraint guarantees exactly one row per article;
// re-analysis overwrites the previous result instead of duplicating it.
func (r *SentimentRepository) Upsert(result domain.SentimentResult) error {
	_, err := r.db.Exec(`
		INSERT INTO sentiments (article_id, score, label, confidence, analyzed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(article_id) DO UPDATE SET
			score = excluded.score,
			label = excluded.label,
			confidence = excluded.confidence,
			analyzed_at = excluded.analyzed_at`,
		result.ArticleID, result.Score, string(result.Label), result.Confidence, result.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sentiment: %w", err)
	}
	return nil
}

// GetByArticleID returns the sentiment result for an article, or nil
func (r *SentimentRepository) GetByArticleID(articleID int64) (*domain.SentimentResult, error) {
	var s domain.SentimentResult
	var label string
	err := r.db.QueryRow(`
		SELECT article_id, score, label, confidence, analyzed_at
		FROM sentiments WHERE article_id = ?`, articleID).
		Scan(&s.ArticleID, &s.Score, &label, &s.Confidence, &s.AnalyzedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sentiment: %w", err)
	}
	s.Label = domain.SentimentLabel(label)
	return &s, nil
}

// ScoresForTicker returns sentiment scores of all articles linked to the
// ticker whose published timestamp falls within [since, until].
func (r *SentimentRepository) ScoresForTicker(ticker string, since, until time.Time) ([]float64, error) {
	rows, err := r.db.Query(`
		SELECT s.score
		FROM sentiments s
		JOIN articles a ON a.id = s.article_id
		JOIN article_tickers at ON at.article_id = a.id
		WHERE at.ticker = ?
		  AND a.published_at >= ?
		  AND a.published_at <= ?
		ORDER BY a.published_at, a.id`,
		ticker, since, until,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores for ticker: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}
	return scores, nil
}
