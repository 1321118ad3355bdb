package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahamlab/sinyal/internal/domain"
)

// ArticleRepository handles article persistence and deduplication
type ArticleRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *sql.DB, log zerolog.Logger) *ArticleRepository {
	return &ArticleRepository{
		db:  db,
		log: log.With().Str("repo", "article").Logger(),
	}
}

// InsertIfNew persists a candidate unless an article with the same canonical
// URL already exists. The check-and-insert is a single statement guarded by
// the URL uniqueness constraint, so concurrent batches cannot double-insert.
// Returns the stored article and whether this call inserted it.
func (r *ArticleRepository) InsertIfNew(c domain.Candidate) (*domain.Article, bool, error) {
	scrapedAt := time.Now().UTC()

	res, err := r.db.Exec(`
		INSERT INTO articles (url, title, content, summary, author, category, source, published_at, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING`,
		c.URL, c.Title, c.Content, c.Summary, c.Author, c.Category, c.Source, c.PublishedAt, scrapedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert article: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		// Duplicate URL is a normal skip outcome, not an error
		r.log.Debug().Str("url", c.URL).Msg("Article already exists, skipping")
		article, err := r.GetByURL(c.URL)
		if err != nil {
			return nil, false, err
		}
		return article, false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read inserted article id: %w", err)
	}

	return &domain.Article{
		ID:          id,
		URL:         c.URL,
		Title:       c.Title,
		Content:     c.Content,
		Summary:     c.Summary,
		Author:      c.Author,
		Category:    c.Category,
		Source:      c.Source,
		PublishedAt: c.PublishedAt,
		ScrapedAt:   scrapedAt,
	}, true, nil
}

// GetByURL returns the article with the given canonical URL, or nil
func (r *ArticleRepository) GetByURL(url string) (*domain.Article, error) {
	row := r.db.QueryRow(`
		SELECT id, url, title, content, COALESCE(summary, ''), COALESCE(author, ''),
		       COALESCE(category, ''), source, published_at, scraped_at
		FROM articles WHERE url = ?`, url)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query article by url: %w", err)
	}
	return article, nil
}

// GetByID returns the article with the given id, or nil
func (r *ArticleRepository) GetByID(id int64) (*domain.Article, error) {
	row := r.db.QueryRow(`
		SELECT id, url, title, content, COALESCE(summary, ''), COALESCE(author, ''),
		       COALESCE(category, ''), source, published_at, scraped_at
		FROM articles WHERE id = ?`, id)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query article by id: %w", err)
	}
	return article, nil
}

// Count returns the total number of stored articles
func (r *ArticleRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (*domain.Article, error) {
	var a domain.Article
	var publishedAt sql.NullTime
	err := row.Scan(&a.ID, &a.URL, &a.Title, &a.Content, &a.Summary, &a.Author,
		&a.Category, &a.Source, &publishedAt, &a.ScrapedAt)
	if err != nil {
		return nil, err
	}
	if publishedAt.Valid {
		a.PublishedAt = publishedAt.Time
	}
	return &a, nil
}
