package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahamlab/sinyal/internal/database"
	"github.com/sahamlab/sinyal/internal/database/repositories"
	"github.com/sahamlab/sinyal/internal/domain"
	"github.com/sahamlab/sinyal/internal/runlock"
	"github.com/sahamlab/sinyal/internal/scheduler"
)

type noopPipeline struct{}

func (noopPipeline) RunBatch(ctx context.Context) (domain.BatchReport, error) {
	return domain.BatchReport{RunID: "test-run", Inserted: 2}, nil
}

func newTestServer(t *testing.T) (*Server, *repositories.SignalRepository) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	locks := runlock.New(db.Conn(), zerolog.Nop())
	signals := repositories.NewSignalRepository(db.Conn(), zerolog.Nop())

	srv := New(Config{
		Port:      0,
		Log:       zerolog.Nop(),
		DB:        db,
		Signals:   signals,
		Articles:  repositories.NewArticleRepository(db.Conn(), zerolog.Nop()),
		ScrapeJob: scheduler.NewScrapeJob(noopPipeline{}, locks, time.Minute, zerolog.Nop()),
		Locks:     locks,
	})
	return srv, signals
}

func doRequest(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, body := doRequest(t, srv, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
}

func TestStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, body := doRequest(t, srv, "/api/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(scheduler.StateIdle), body["scheduler_state"])
	assert.Equal(t, float64(0), body["article_count"])
}

func TestSignals(t *testing.T) {
	srv, signals := newTestServer(t)

	now := time.Now().UTC()
	require.NoError(t, signals.Insert(&domain.Signal{
		Ticker: "BBCA", Type: domain.SignalBuy, Strength: 0.6,
		AvgSentiment: 0.5, Consistency: 0.9, ArticleCount: 4,
		WindowDays: 7, GeneratedAt: now,
	}))
	require.NoError(t, signals.Insert(&domain.Signal{
		Ticker: "BUMI", Type: domain.SignalSell, Strength: 0.8,
		AvgSentiment: -0.7, Consistency: 0.95, ArticleCount: 5,
		WindowDays: 7, GeneratedAt: now,
	}))

	rec, body := doRequest(t, srv, "/api/signals")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])

	rec, body = doRequest(t, srv, "/api/signals?type=SELL")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, body = doRequest(t, srv, "/api/signals?limit=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
}

func TestSignalForTicker(t *testing.T) {
	srv, signals := newTestServer(t)

	require.NoError(t, signals.Insert(&domain.Signal{
		Ticker: "TLKM", Type: domain.SignalHold, Strength: 0.2,
		WindowDays: 7, GeneratedAt: time.Now().UTC(),
	}))

	rec, body := doRequest(t, srv, "/api/signals/TLKM")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TLKM", body["ticker"])
	assert.Equal(t, "HOLD", body["signal_type"])

	rec, _ = doRequest(t, srv, "/api/signals/ASII")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
