package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// RemoteClassifier delegates scoring to an external model service speaking
// a small JSON contract. Used when a transformer-backed service is
// deployed alongside; the lexicon classifier remains the default.
type RemoteClassifier struct {
	baseURL   string
	threshold float64
	client    *http.Client
	log       zerolog.Logger
}

// NewRemoteClassifier creates a classifier client for the given service URL
func NewRemoteClassifier(baseURL string, threshold float64, log zerolog.Logger) *RemoteClassifier {
	return &RemoteClassifier{
		baseURL:   baseURL,
		threshold: threshold,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "classifier").Logger(),
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// Classify sends the text to the model service and buckets the returned
// score with the configured threshold so labels stay consistent with the
// local classifier.
func (c *RemoteClassifier) Classify(ctx context.Context, text string) (Result, error) {
	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("classifier service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("classifier service returned %d: %s", resp.StatusCode, payload)
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("failed to decode classify response: %w", err)
	}

	return Result{
		Score:      out.Score,
		Label:      LabelFor(out.Score, c.threshold),
		Confidence: out.Confidence,
	}, nil
}
