// Package scraper fetches raw article candidates from external news
// sources. Each source implements the Source contract; failures at the
// source level are recoverable and the batch continues without that source.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahamlab/sinyal/internal/domain"
)

// Source fetches up to limit article candidates from one external site.
// Candidates carry canonicalized URLs so identical physical articles always
// dedupe to the same identifier.
type Source interface {
	Name() string
	Fetch(ctx context.Context, limit int) ([]domain.Candidate, error)
}

const maxAttempts = 3

// Client is a polite HTTP fetcher shared by source adapters. It enforces a
// minimum delay between successive requests to the same host and retries
// transient failures with exponential backoff.
type Client struct {
	http        *http.Client
	userAgent   string
	delay       time.Duration
	backoffBase time.Duration
	log         zerolog.Logger

	mu       sync.Mutex
	lastHits map[string]time.Time
}

// NewClient creates a shared scraper HTTP client
func NewClient(timeout, politenessDelay time.Duration, userAgent string, log zerolog.Logger) *Client {
	return &Client{
		http:        &http.Client{Timeout: timeout},
		userAgent:   userAgent,
		delay:       politenessDelay,
		backoffBase: time.Second,
		log:         log.With().Str("component", "scraper_client").Logger(),
		lastHits:    make(map[string]time.Time),
	}
}

// Get fetches a URL, applying per-host politeness delay and up to three
// attempts with exponential backoff.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	host, err := hostOf(rawURL)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * c.backoffBase
			c.log.Debug().Str("url", rawURL).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("Retrying fetch")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.waitPoliteness(ctx, host); err != nil {
			return nil, err
		}

		body, err := c.get(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("fetch failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "id-ID,id;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

// waitPoliteness blocks until the per-host minimum delay since the previous
// request has elapsed.
func (c *Client) waitPoliteness(ctx context.Context, host string) error {
	c.mu.Lock()
	last, seen := c.lastHits[host]
	now := time.Now()
	wait := time.Duration(0)
	if seen {
		if elapsed := now.Sub(last); elapsed < c.delay {
			wait = c.delay - elapsed
		}
	}
	c.lastHits[host] = now.Add(wait)
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
