// Package pipeline composes fetch, dedupe, persist, classify, extract and
// aggregate into one batch unit of work.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sahamlab/sinyal/internal/domain"
	"github.com/sahamlab/sinyal/internal/extractor"
	"github.com/sahamlab/sinyal/internal/scraper"
	"github.com/sahamlab/sinyal/internal/sentiment"
)

// ArticleStore persists candidates with atomic dedupe
type ArticleStore interface {
	InsertIfNew(c domain.Candidate) (*domain.Article, bool, error)
}

// SentimentStore persists one sentiment result per article
type SentimentStore interface {
	Upsert(result domain.SentimentResult) error
}

// TickerLinkStore persists article-to-ticker associations
type TickerLinkStore interface {
	Link(link domain.TickerLink) error
}

// SignalGenerator recomputes signals for the given tickers
type SignalGenerator interface {
	GenerateAndStore(tickers []string) ([]domain.Signal, error)
}

// Config holds pipeline tuning knobs
type Config struct {
	MaxPerSource int
	WorkerCount  int

	// ClassifyExcerpt bounds how much of the body feeds the classifier;
	// the title is always included.
	ClassifyExcerpt int
}

// Pipeline orchestrates one batch: fetch per source, persist-if-new,
// classify + extract new articles with a bounded worker pool, then
// recompute signals only for tickers touched in this batch.
type Pipeline struct {
	sources    []scraper.Source
	articles   ArticleStore
	sentiments SentimentStore
	links      TickerLinkStore
	signals    SignalGenerator
	classifier sentiment.Classifier
	extractor  *extractor.Extractor
	cfg        Config
	log        zerolog.Logger
}

// New creates a pipeline
func New(
	sources []scraper.Source,
	articles ArticleStore,
	sentiments SentimentStore,
	links TickerLinkStore,
	signals SignalGenerator,
	classifier sentiment.Classifier,
	ex *extractor.Extractor,
	cfg Config,
	log zerolog.Logger,
) *Pipeline {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.ClassifyExcerpt <= 0 {
		cfg.ClassifyExcerpt = 500
	}
	return &Pipeline{
		sources:    sources,
		articles:   articles,
		sentiments: sentiments,
		links:      links,
		signals:    signals,
		classifier: classifier,
		extractor:  ex,
		cfg:        cfg,
		log:        log.With().Str("component", "pipeline").Logger(),
	}
}

// RunBatch executes one full batch and returns its report. Per-source and
// per-article failures are isolated: they are logged and counted, never
// aborting the surrounding batch.
func (p *Pipeline) RunBatch(ctx context.Context) (domain.BatchReport, error) {
	report := domain.BatchReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := p.log.With().Str("run_id", report.RunID).Logger()

	var newArticles []domain.Article

	for _, source := range p.sources {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		candidates, err := source.Fetch(ctx, p.cfg.MaxPerSource)
		if err != nil {
			// Source-level failure is recoverable; the batch continues
			// with zero articles from this source.
			log.Warn().Err(err).Str("source", source.Name()).Msg("Source unavailable, continuing without it")
			continue
		}
		report.Fetched += len(candidates)

		for _, candidate := range candidates {
			article, inserted, err := p.articles.InsertIfNew(candidate)
			if err != nil {
				report.Failed++
				log.Error().Err(err).Str("url", candidate.URL).Msg("Failed to persist article")
				continue
			}
			if !inserted {
				continue
			}
			report.Inserted++
			newArticles = append(newArticles, *article)
		}
	}

	if len(newArticles) == 0 {
		report.Duration = time.Since(report.StartedAt)
		log.Info().Int("fetched", report.Fetched).Msg("Batch complete, no new articles")
		return report, nil
	}

	analyzed, failed, touched := p.processArticles(ctx, log, newArticles)
	report.Analyzed = analyzed
	report.Failed += failed
	report.TickersTouched = len(touched)

	// A deadline that fired mid-processing must surface as the batch
	// outcome: the run was truncated, so it is abandoned rather than
	// reported as a success, and no signals are generated from it.
	if err := ctx.Err(); err != nil {
		report.Duration = time.Since(report.StartedAt)
		log.Warn().Err(err).
			Int("analyzed", report.Analyzed).
			Int("failed", report.Failed).
			Msg("Batch abandoned mid-processing")
		return report, err
	}

	// Recompute signals only for tickers that received a new link in this
	// batch. Generation is serialized so per-ticker aggregates never race.
	if len(touched) > 0 {
		signals, err := p.signals.GenerateAndStore(touched)
		if err != nil {
			log.Error().Err(err).Msg("Signal generation failed")
		} else {
			report.SignalsGenerated = len(signals)
		}
	}

	report.Duration = time.Since(report.StartedAt)
	log.Info().
		Int("fetched", report.Fetched).
		Int("inserted", report.Inserted).
		Int("analyzed", report.Analyzed).
		Int("failed", report.Failed).
		Int("tickers_touched", report.TickersTouched).
		Int("signals", report.SignalsGenerated).
		Dur("duration", report.Duration).
		Msg("Batch complete")

	return report, nil
}

// processArticles classifies and extracts new articles with a bounded
// worker pool. Returns analyzed count, failed count and the sorted set of
// tickers that received at least one new link.
func (p *Pipeline) processArticles(ctx context.Context, log zerolog.Logger, articles []domain.Article) (int, int, []string) {
	jobs := make(chan domain.Article, len(articles))
	for _, a := range articles {
		jobs <- a
	}
	close(jobs)

	var (
		mu       sync.Mutex
		analyzed int
		failed   int
		touched  = make(map[string]struct{})
	)

	workers := p.cfg.WorkerCount
	if len(articles) < workers {
		workers = len(articles)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for article := range jobs {
				if ctx.Err() != nil {
					// Drain the queue so abandoned articles are counted
					// as failed instead of silently dropped.
					mu.Lock()
					failed++
					mu.Unlock()
					continue
				}
				ok, tickers := p.processOne(ctx, log, article)
				mu.Lock()
				if ok {
					analyzed++
				} else {
					failed++
				}
				for _, t := range tickers {
					touched[t] = struct{}{}
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sorted := make([]string, 0, len(touched))
	for t := range touched {
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)

	return analyzed, failed, sorted
}

// processOne runs classify -> extract -> link for a single article.
// Classification failure leaves the article without a sentiment result but
// does not stop extraction.
func (p *Pipeline) processOne(ctx context.Context, log zerolog.Logger, article domain.Article) (bool, []string) {
	classified := true

	excerpt := scraper.TruncateText(article.Content, p.cfg.ClassifyExcerpt)

	result, err := p.classifier.Classify(ctx, article.Title+" "+excerpt)
	if err != nil {
		classified = false
		log.Error().Err(err).Int64("article_id", article.ID).Msg("Classification failed, article left without sentiment")
	} else {
		err = p.sentiments.Upsert(domain.SentimentResult{
			ArticleID:  article.ID,
			Score:      result.Score,
			Label:      result.Label,
			Confidence: result.Confidence,
			AnalyzedAt: time.Now().UTC(),
		})
		if err != nil {
			classified = false
			log.Error().Err(err).Int64("article_id", article.ID).Msg("Failed to store sentiment")
		}
	}

	matches := p.extractor.Extract(article.Title + " " + article.Content)
	var tickers []string
	for _, m := range matches {
		err := p.links.Link(domain.TickerLink{
			ArticleID:    article.ID,
			Ticker:       m.Symbol,
			MatchedAlias: m.MatchedAlias,
		})
		if err != nil {
			log.Error().Err(err).Int64("article_id", article.ID).Str("ticker", m.Symbol).Msg("Failed to link ticker")
			continue
		}
		tickers = append(tickers, m.Symbol)
	}

	return classified, tickers
}
