package screener

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahamlab/sinyal/internal/domain"
)

type fakeScores struct {
	scores map[string][]float64
	err    error
	errFor string // restricts err to one ticker; empty means all

	// windows records the since/until bounds of each call
	windows []time.Duration
}

func (f *fakeScores) ScoresForTicker(ticker string, since, until time.Time) ([]float64, error) {
	if f.err != nil && (f.errFor == "" || f.errFor == ticker) {
		return nil, f.err
	}
	f.windows = append(f.windows, until.Sub(since))
	return f.scores[ticker], nil
}

type fakeSink struct {
	inserted []domain.Signal
	err      error
	errFor   string
}

func (f *fakeSink) Insert(s *domain.Signal) error {
	if f.err != nil && (f.errFor == "" || f.errFor == s.Ticker) {
		return f.err
	}
	f.inserted = append(f.inserted, *s)
	return nil
}

func testConfig() Config {
	return Config{
		BuyThreshold:  0.3,
		SellThreshold: -0.3,
		MinArticles:   3,
		WindowDays:    7,
	}
}

func newTestScreener(scores *fakeScores, sink *fakeSink) *Screener {
	s := New(scores, sink, testConfig(), zerolog.Nop())
	s.now = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func TestGenerateBuySignal(t *testing.T) {
	scores := &fakeScores{scores: map[string][]float64{
		"BBCA": {0.5, 0.6, 0.4, 0.5, 0.6},
	}}
	s := newTestScreener(scores, &fakeSink{})

	signal, err := s.Generate("BBCA")
	require.NoError(t, err)
	require.NotNil(t, signal)

	assert.Equal(t, domain.SignalBuy, signal.Type)
	assert.InDelta(t, 0.52, signal.AvgSentiment, 1e-9)
	assert.Equal(t, 5, signal.ArticleCount)
	assert.Equal(t, 7, signal.WindowDays)
	assert.Greater(t, signal.Strength, 0.0)
	assert.LessOrEqual(t, signal.Strength, 1.0)
	// consistency = 1/(1+stddev); tight cluster stays close to 1
	assert.Greater(t, signal.Consistency, 0.9)
}

func TestGenerateSellSignal(t *testing.T) {
	scores := &fakeScores{scores: map[string][]float64{
		"BUMI": {-0.7, -0.5, -0.6},
	}}
	s := newTestScreener(scores, &fakeSink{})

	signal, err := s.Generate("BUMI")
	require.NoError(t, err)
	require.NotNil(t, signal)
	assert.Equal(t, domain.SignalSell, signal.Type)
	assert.InDelta(t, -0.6, signal.AvgSentiment, 1e-9)
}

func TestGenerateHoldOnBoundary(t *testing.T) {
	// mean exactly at the buy threshold is not a BUY
	scores := &fakeScores{scores: map[string][]float64{
		"TLKM": {0.3, 0.3, 0.3},
	}}
	s := newTestScreener(scores, &fakeSink{})

	signal, err := s.Generate("TLKM")
	require.NoError(t, err)
	require.NotNil(t, signal)
	assert.Equal(t, domain.SignalHold, signal.Type)
}

func TestGenerateNoScores(t *testing.T) {
	s := newTestScreener(&fakeScores{scores: map[string][]float64{}}, &fakeSink{})

	signal, err := s.Generate("ASII")
	require.NoError(t, err)
	assert.Nil(t, signal)
}

func TestGenerateLowSampleStillReturned(t *testing.T) {
	scores := &fakeScores{scores: map[string][]float64{
		"GOTO": {0.9},
	}}
	s := newTestScreener(scores, &fakeSink{})

	signal, err := s.Generate("GOTO")
	require.NoError(t, err)
	require.NotNil(t, signal)
	assert.Equal(t, 1, signal.ArticleCount)
	assert.Equal(t, domain.SignalBuy, signal.Type)
}

func TestGenerateUsesConfiguredWindow(t *testing.T) {
	scores := &fakeScores{scores: map[string][]float64{"BBCA": {0.5}}}
	s := newTestScreener(scores, &fakeSink{})

	_, err := s.Generate("BBCA")
	require.NoError(t, err)

	require.Len(t, scores.windows, 1)
	assert.Equal(t, 7*24*time.Hour, scores.windows[0])
}

func TestGenerateIdempotent(t *testing.T) {
	scores := &fakeScores{scores: map[string][]float64{
		"BBCA": {0.5, 0.6, 0.4, 0.5, 0.6},
	}}
	s := newTestScreener(scores, &fakeSink{})

	first, err := s.Generate("BBCA")
	require.NoError(t, err)
	second, err := s.Generate("BBCA")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateAndStore(t *testing.T) {
	scores := &fakeScores{scores: map[string][]float64{
		"BBCA": {0.5, 0.6, 0.4},
		"BUMI": {-0.8, -0.7, -0.9},
	}}
	sink := &fakeSink{}
	s := newTestScreener(scores, sink)

	out, err := s.GenerateAndStore([]string{"BBCA", "ASII", "BUMI"})
	require.NoError(t, err)

	// ASII has no scores and is skipped, the others are persisted
	require.Len(t, out, 2)
	require.Len(t, sink.inserted, 2)
	assert.Equal(t, "BBCA", sink.inserted[0].Ticker)
	assert.Equal(t, "BUMI", sink.inserted[1].Ticker)
}

func TestGenerateAndStoreIsolatesFailures(t *testing.T) {
	// a score query failure on one ticker leaves the others untouched
	scores := &fakeScores{
		scores: map[string][]float64{
			"BBCA": {0.5, 0.6, 0.4},
			"TLKM": {0.6, 0.7, 0.5},
		},
		err:    errors.New("db closed"),
		errFor: "BBCA",
	}
	sink := &fakeSink{}
	s := newTestScreener(scores, sink)

	out, err := s.GenerateAndStore([]string{"BBCA", "TLKM"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "TLKM", out[0].Ticker)

	// likewise for a store failure
	sink = &fakeSink{err: errors.New("insert failed"), errFor: "BBCA"}
	s = newTestScreener(&fakeScores{scores: map[string][]float64{
		"BBCA": {0.5},
		"TLKM": {0.6},
	}}, sink)

	out, err = s.GenerateAndStore([]string{"BBCA", "TLKM"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "TLKM", out[0].Ticker)
	require.Len(t, sink.inserted, 1)
}
