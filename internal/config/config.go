package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath   string
	DictionaryPath string
	LexiconPath    string

	// Scraping
	ScrapeInterval    time.Duration
	MaxPerSource      int
	RequestTimeout    time.Duration
	PolitenessDelay   time.Duration
	UserAgent         string
	CNBCBaseURL       string
	BloombergBaseURL  string
	ClassifierService string // optional remote sentiment service URL

	// Sentiment / screening thresholds
	SentimentThreshold float64
	BuyThreshold       float64
	SellThreshold      float64
	MinArticles        int
	WindowDays         int

	// Pipeline
	WorkerCount     int
	WatchdogTimeout time.Duration

	// Backup (disabled when BackupBucket is empty)
	BackupBucket    string
	BackupEndpoint  string
	BackupAccessKey string
	BackupSecretKey string
	BackupRegion    string

	LogLevel string
	Port     int
	DevMode  bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath:   getEnv("DATABASE_PATH", "./data/sinyal.db"),
		DictionaryPath: getEnv("DICTIONARY_PATH", "./data/tickers.yaml"),
		LexiconPath:    getEnv("LEXICON_PATH", "./data/lexicon.yaml"),

		ScrapeInterval:    time.Duration(getEnvAsInt("SCRAPE_INTERVAL_MINUTES", 60)) * time.Minute,
		MaxPerSource:      getEnvAsInt("MAX_ARTICLES_PER_SOURCE", 50),
		RequestTimeout:    time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		PolitenessDelay:   time.Duration(getEnvAsInt("POLITENESS_DELAY_MS", 1000)) * time.Millisecond,
		UserAgent:         getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
		CNBCBaseURL:       getEnv("CNBC_BASE_URL", "https://www.cnbcindonesia.com"),
		BloombergBaseURL:  getEnv("BLOOMBERG_BASE_URL", "https://www.bloombergtechnoz.com"),
		ClassifierService: getEnv("CLASSIFIER_SERVICE_URL", ""),

		SentimentThreshold: getEnvAsFloat("SENTIMENT_THRESHOLD", 0.3),
		BuyThreshold:       getEnvAsFloat("SIGNAL_BUY_THRESHOLD", 0.3),
		SellThreshold:      getEnvAsFloat("SIGNAL_SELL_THRESHOLD", -0.3),
		MinArticles:        getEnvAsInt("MIN_ARTICLES_FOR_SIGNAL", 3),
		WindowDays:         getEnvAsInt("SIGNAL_WINDOW_DAYS", 7),

		WorkerCount:     getEnvAsInt("WORKER_COUNT", 4),
		WatchdogTimeout: time.Duration(getEnvAsInt("WATCHDOG_TIMEOUT_MINUTES", 15)) * time.Minute,

		BackupBucket:    getEnv("BACKUP_BUCKET", ""),
		BackupEndpoint:  getEnv("BACKUP_ENDPOINT", ""),
		BackupAccessKey: getEnv("BACKUP_ACCESS_KEY", ""),
		BackupSecretKey: getEnv("BACKUP_SECRET_KEY", ""),
		BackupRegion:    getEnv("BACKUP_REGION", "auto"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvAsInt("PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and sane.
// Failures here are fatal at startup, before any batch runs.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.DictionaryPath == "" {
		return fmt.Errorf("DICTIONARY_PATH is required")
	}
	if c.SentimentThreshold < 0 || c.SentimentThreshold > 1 {
		return fmt.Errorf("SENTIMENT_THRESHOLD must be in [0, 1], got %v", c.SentimentThreshold)
	}
	if c.BuyThreshold <= 0 {
		return fmt.Errorf("SIGNAL_BUY_THRESHOLD must be positive, got %v", c.BuyThreshold)
	}
	if c.SellThreshold >= 0 {
		return fmt.Errorf("SIGNAL_SELL_THRESHOLD must be negative, got %v", c.SellThreshold)
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("SIGNAL_WINDOW_DAYS must be positive, got %d", c.WindowDays)
	}
	if c.MinArticles < 1 {
		return fmt.Errorf("MIN_ARTICLES_FOR_SIGNAL must be at least 1, got %d", c.MinArticles)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1, got %d", c.WorkerCount)
	}
	if c.WatchdogTimeout <= 0 {
		return fmt.Errorf("WATCHDOG_TIMEOUT_MINUTES must be positive")
	}
	if c.ScrapeInterval <= 0 {
		return fmt.Errorf("SCRAPE_INTERVAL_MINUTES must be positive")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
