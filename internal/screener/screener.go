// Package screener derives per-ticker trading signals from rolling
// sentiment statistics.
package screener

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahamlab/sinyal/internal/domain"
	"github.com/sahamlab/sinyal/pkg/formulas"
)

// ScoreSource provides sentiment scores for a ticker within a time window
type ScoreSource interface {
	ScoresForTicker(ticker string, since, until time.Time) ([]float64, error)
}

// SignalSink persists generated signals
type SignalSink interface {
	Insert(s *domain.Signal) error
}

// Config holds screener thresholds
type Config struct {
	BuyThreshold  float64 // mean above this is a BUY
	SellThreshold float64 // mean below this is a SELL
	MinArticles   int     // below this the signal is low-confidence, not suppressed
	WindowDays    int
}

// Screener computes rolling per-ticker sentiment statistics and derives
// trading signals. Generation over an unchanged input set is idempotent:
// the statistics come out bit-for-bit identical.
type Screener struct {
	scores ScoreSource
	sink   SignalSink
	cfg    Config
	log    zerolog.Logger

	// now is swappable for deterministic tests
	now func() time.Time
}

// New creates a screener
func New(scores ScoreSource, sink SignalSink, cfg Config, log zerolog.Logger) *Screener {
	return &Screener{
		scores: scores,
		sink:   sink,
		cfg:    cfg,
		log:    log.With().Str("component", "screener").Logger(),
		now:    time.Now,
	}
}

// Generate computes the signal for one ticker over the configured window.
// Returns nil when no scored article mentions the ticker in the window.
func (s *Screener) Generate(ticker string) (*domain.Signal, error) {
	until := s.now().UTC()
	since := until.AddDate(0, 0, -s.cfg.WindowDays)

	scores, err := s.scores.ScoresForTicker(ticker, since, until)
	if err != nil {
		return nil, fmt.Errorf("failed to gather scores for %s: %w", ticker, err)
	}
	if len(scores) == 0 {
		return nil, nil
	}

	signal := s.derive(ticker, scores, until)

	if len(scores) < s.cfg.MinArticles {
		// Low-sample signals are reported with their count, not suppressed;
		// callers decide whether to act on them.
		s.log.Debug().
			Str("ticker", ticker).
			Int("articles", len(scores)).
			Int("min", s.cfg.MinArticles).
			Msg("Signal below minimum sample count")
	}

	return signal, nil
}

// GenerateAndStore computes signals for the given tickers and persists
// them, returning the stored signals. A failure on one ticker is logged
// and the remaining tickers still get their signals.
func (s *Screener) GenerateAndStore(tickers []string) ([]domain.Signal, error) {
	var out []domain.Signal
	for _, ticker := range tickers {
		signal, err := s.Generate(ticker)
		if err != nil {
			s.log.Error().Err(err).Str("ticker", ticker).Msg("Signal generation failed for ticker")
			continue
		}
		if signal == nil {
			continue
		}
		if err := s.sink.Insert(signal); err != nil {
			s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to store signal")
			continue
		}

		s.log.Info().
			Str("ticker", signal.Ticker).
			Str("signal", string(signal.Type)).
			Float64("strength", signal.Strength).
			Float64("avg_sentiment", signal.AvgSentiment).
			Int("articles", signal.ArticleCount).
			Msg("Signal generated")

		out = append(out, *signal)
	}
	return out, nil
}

func (s *Screener) derive(ticker string, scores []float64, generatedAt time.Time) *domain.Signal {
	mean := formulas.Mean(scores)
	consistency := formulas.Consistency(scores)
	strength := formulas.Clamp(abs(mean)*consistency, 0, 1)

	var signalType domain.SignalType
	switch {
	case mean > s.cfg.BuyThreshold:
		signalType = domain.SignalBuy
	case mean < s.cfg.SellThreshold:
		signalType = domain.SignalSell
	default:
		signalType = domain.SignalHold
	}

	return &domain.Signal{
		Ticker:       ticker,
		Type:         signalType,
		Strength:     strength,
		AvgSentiment: mean,
		Consistency:  consistency,
		ArticleCount: len(scores),
		WindowDays:   s.cfg.WindowDays,
		GeneratedAt:  generatedAt,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
