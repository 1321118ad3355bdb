package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sahamlab/sinyal/internal/domain"
)

// SignalRepository handles screening signal persistence
type SignalRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(db *sql.DB, log zerolog.Logger) *SignalRepository {
	return &SignalRepository{
		db:  db,
		log: log.With().Str("repo", "signal").Logger(),
	}
}

// Insert stores a generated signal
func (r *SignalRepository) Insert(s *domain.Signal) error {
	res, err := r.db.Exec(`
		INSERT INTO signals (ticker, signal_type, strength, avg_sentiment, consistency, article_count, window_days, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Ticker, string(s.Type), s.Strength, s.AvgSentiment, s.Consistency,
		s.ArticleCount, s.WindowDays, s.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert signal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted signal id: %w", err)
	}
	s.ID = id
	return nil
}

// Latest returns the most recent signal per ticker, strongest first.
// signalType filters by direction when non-empty.
func (r *SignalRepository) Latest(signalType string, limit int) ([]domain.Signal, error) {
	query := `
		SELECT id, ticker, signal_type, strength, avg_sentiment, consistency, article_count, window_days, generated_at
		FROM signals s1
		WHERE id = (SELECT MAX(id) FROM signals s2 WHERE s2.ticker = s1.ticker)`
	args := []interface{}{}

	if signalType != "" {
		query += ` AND signal_type = ?`
		args = append(args, strings.ToUpper(signalType))
	}
	query += ` ORDER BY strength DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest signals: %w", err)
	}
	defer rows.Close()
	return scanSignals(rows)
}

// ForTicker returns the most recent signal for one ticker, or nil
func (r *SignalRepository) ForTicker(ticker string) (*domain.Signal, error) {
	rows, err := r.db.Query(`
		SELECT id, ticker, signal_type, strength, avg_sentiment, consistency, article_count, window_days, generated_at
		FROM signals WHERE ticker = ? ORDER BY id DESC LIMIT 1`,
		strings.ToUpper(ticker),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query signal for ticker: %w", err)
	}
	defer rows.Close()

	signals, err := scanSignals(rows)
	if err != nil {
		return nil, err
	}
	if len(signals) == 0 {
		return nil, nil
	}
	return &signals[0], nil
}

func scanSignals(rows *sql.Rows) ([]domain.Signal, error) {
	var signals []domain.Signal
	for rows.Next() {
		var s domain.Signal
		var signalType string
		err := rows.Scan(&s.ID, &s.Ticker, &signalType, &s.Strength, &s.AvgSentiment,
			&s.Consistency, &s.ArticleCount, &s.WindowDays, &s.GeneratedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		s.Type = domain.SignalType(signalType)
		signals = append(signals, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}
	return signals, nil
}
