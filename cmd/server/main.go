package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahamlab/sinyal/internal/config"
	"github.com/sahamlab/sinyal/internal/database"
	"github.com/sahamlab/sinyal/internal/database/repositories"
	"github.com/sahamlab/sinyal/internal/dictionary"
	"github.com/sahamlab/sinyal/internal/extractor"
	"github.com/sahamlab/sinyal/internal/pipeline"
	"github.com/sahamlab/sinyal/internal/reliability"
	"github.com/sahamlab/sinyal/internal/runlock"
	"github.com/sahamlab/sinyal/internal/scheduler"
	"github.com/sahamlab/sinyal/internal/scraper"
	"github.com/sahamlab/sinyal/internal/screener"
	"github.com/sahamlab/sinyal/internal/sentiment"
	"github.com/sahamlab/sinyal/internal/server"
	"github.com/sahamlab/sinyal/pkg/logger"
)

func main() {
	// Load configuration first so LOG_LEVEL applies from the start
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting sinyal")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Load the ticker dictionary and sentiment classifier once; both are
	// read-only after this point and shared across workers.
	dict, err := dictionary.Load(cfg.DictionaryPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load ticker dictionary")
	}
	log.Info().Int("tickers", dict.Len()).Msg("Ticker dictionary loaded")

	classifier, err := buildClassifier(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize sentiment classifier")
	}

	// Repositories
	articleRepo := repositories.NewArticleRepository(db.Conn(), log)
	sentimentRepo := repositories.NewSentimentRepository(db.Conn(), log)
	linkRepo := repositories.NewTickerLinkRepository(db.Conn(), log)
	signalRepo := repositories.NewSignalRepository(db.Conn(), log)
	locks := runlock.New(db.Conn(), log)

	// Pipeline components
	ex := extractor.New(dict, log)
	scr := screener.New(sentimentRepo, signalRepo, screener.Config{
		BuyThreshold:  cfg.BuyThreshold,
		SellThreshold: cfg.SellThreshold,
		MinArticles:   cfg.MinArticles,
		WindowDays:    cfg.WindowDays,
	}, log)

	client := scraper.NewClient(cfg.RequestTimeout, cfg.PolitenessDelay, cfg.UserAgent, log)
	sources := []scraper.Source{
		scraper.NewCNBCSource(client, cfg.CNBCBaseURL, log),
		scraper.NewBloombergSource(client, cfg.BloombergBaseURL, log),
	}

	pipe := pipeline.New(sources, articleRepo, sentimentRepo, linkRepo, scr,
		classifier, ex, pipeline.Config{
			MaxPerSource: cfg.MaxPerSource,
			WorkerCount:  cfg.WorkerCount,
		}, log)

	// Scheduler and jobs
	sched := scheduler.New(log)
	scrapeJob := scheduler.NewScrapeJob(pipe, locks, cfg.WatchdogTimeout, log)

	interval := fmt.Sprintf("@every %s", cfg.ScrapeInterval)
	if err := sched.AddJob(interval, scrapeJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register scrape job")
	}

	backup, err := reliability.NewBackupService(reliability.Config{
		Bucket:    cfg.BackupBucket,
		Endpoint:  cfg.BackupEndpoint,
		AccessKey: cfg.BackupAccessKey,
		SecretKey: cfg.BackupSecretKey,
		Region:    cfg.BackupRegion,
	}, cfg.DatabasePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize backup service")
	}
	if backup != nil {
		if err := sched.AddJob("@daily", backup); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
	}

	sched.Start()
	defer sched.Stop()

	// Run one batch immediately instead of waiting a full interval
	go func() {
		_ = sched.RunNow(scrapeJob)
	}()

	// HTTP observability surface
	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		DB:        db,
		Signals:   signalRepo,
		Articles:  articleRepo,
		ScrapeJob: scrapeJob,
		Locks:     locks,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt; any in-flight batch finishes via sched.Stop()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Stopped")
}

// buildClassifier picks the remote model service when configured, the
// local lexicon otherwise.
func buildClassifier(cfg *config.Config, log zerolog.Logger) (sentiment.Classifier, error) {
	if cfg.ClassifierService != "" {
		log.Info().Str("url", cfg.ClassifierService).Msg("Using remote sentiment classifier")
		return sentiment.NewRemoteClassifier(cfg.ClassifierService, cfg.SentimentThreshold, log), nil
	}
	return sentiment.NewLexiconClassifier(cfg.LexiconPath, cfg.SentimentThreshold, log)
}
