package repositories

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sahamlab/sinyal/internal/domain"
)

// TickerLinkRepository handles article-to-ticker associations
type TickerLinkRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTickerLinkRepository creates a new ticker link repository
func NewTickerLinkRepository(db *sql.DB, log zerolog.Logger) *TickerLinkRepository {
	return &TickerLinkRepository{
		db:  db,
		log: log.With().Str("repo", "ticker_link").Logger(),
	}
}

// Link records that an article mentions a ticker. The (article, ticker)
// uniqueness constraint makes re-extraction a no-op instead of a duplicate.
func (r *TickerLinkRepository) Link(link domain.TickerLink) error {
	_, err := r.db.Exec(`
		INSERT OR IGNORE INTO article_tickers (article_id, ticker, matched_alias)
		VALUES (?, ?, ?)`,
		link.ArticleID, link.Ticker, link.MatchedAlias,
	)
	if err != nil {
		return fmt.Errorf("failed to link ticker %s: %w", link.Ticker, err)
	}
	return nil
}

// TickersForArticle returns all tickers linked to an article
func (r *TickerLinkRepository) TickersForArticle(articleID int64) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT ticker FROM article_tickers WHERE article_id = ? ORDER BY ticker`,
		articleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers for article: %w", err)
	}
	defer rows.Close()
	return collectStrings(rows)
}

// AllTickers returns every distinct ticker that has at least one link
func (r *TickerLinkRepository) AllTickers() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT ticker FROM article_tickers ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct tickers: %w", err)
	}
	defer rows.Close()
	return collectStrings(rows)
}

func collectStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickers: %w", err)
	}
	return out, nil
}
