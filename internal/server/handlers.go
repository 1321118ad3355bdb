package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/sahamlab/sinyal/internal/database"
	"github.com/sahamlab/sinyal/internal/database/repositories"
	"github.com/sahamlab/sinyal/internal/runlock"
	"github.com/sahamlab/sinyal/internal/scheduler"
)

type handlers struct {
	db        *database.DB
	signals   *repositories.SignalRepository
	articles  *repositories.ArticleRepository
	scrapeJob *scheduler.ScrapeJob
	locks     *runlock.Manager
	startedAt time.Time
	log       zerolog.Logger
}

func newHandlers(cfg Config) *handlers {
	return &handlers{
		db:        cfg.DB,
		signals:   cfg.Signals,
		articles:  cfg.Articles,
		scrapeJob: cfg.ScrapeJob,
		locks:     cfg.Locks,
		startedAt: time.Now(),
		log:       cfg.Log.With().Str("component", "handlers").Logger(),
	}
}

// Health reports process and database liveness plus basic system load
func (h *handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "ok"
	if err := h.db.Conn().Ping(); err != nil {
		status = "degraded"
		dbStatus = err.Error()
	}

	var cpuPercent float64
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuPercent = percents[0]
	}

	var memPercent float64
	if vm, err := mem.VirtualMemory(); err == nil {
		memPercent = vm.UsedPercent
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         status,
		"database":       dbStatus,
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"cpu_percent":    cpuPercent,
		"memory_percent": memPercent,
	})
}

// Status reports the scheduler state, run-lock status and the last batch
func (h *handlers) Status(w http.ResponseWriter, r *http.Request) {
	lockStatus, err := h.locks.Status(scheduler.ScrapeLockName)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read lock status")
	}

	articleCount, err := h.articles.Count()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to count articles")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scheduler_state": h.scrapeJob.State(),
		"last_batch":      h.scrapeJob.LastReport(),
		"last_error":      h.scrapeJob.LastError(),
		"run_lock":        lockStatus,
		"article_count":   articleCount,
	})
}

// Signals returns the latest signal per ticker, strongest first.
// Optional query parameters: type (BUY/SELL/HOLD) and limit.
func (h *handlers) Signals(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	signals, err := h.signals.Latest(r.URL.Query().Get("type"), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query signals")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to query signals"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(signals),
		"signals": signals,
	})
}

// SignalForTicker returns the most recent signal for one ticker
func (h *handlers) SignalForTicker(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	signal, err := h.signals.ForTicker(ticker)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to query signal")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to query signal"})
		return
	}
	if signal == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no signal for ticker"})
		return
	}

	writeJSON(w, http.StatusOK, signal)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
