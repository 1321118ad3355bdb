package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahamlab/sinyal/internal/domain"
)

func TestRemoteClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/classify", r.URL.Path)

		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "saham naik", req.Text)

		json.NewEncoder(w).Encode(classifyResponse{Score: 0.72, Confidence: 0.9})
	}))
	defer srv.Close()

	c := NewRemoteClassifier(srv.URL, 0.3, zerolog.Nop())

	r, err := c.Classify(context.Background(), "saham naik")
	require.NoError(t, err)
	assert.InDelta(t, 0.72, r.Score, 1e-9)
	assert.Equal(t, domain.SentimentPositive, r.Label)
	assert.InDelta(t, 0.9, r.Confidence, 1e-9)
}

func TestRemoteClassifyServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewRemoteClassifier(srv.URL, 0.3, zerolog.Nop())

	_, err := c.Classify(context.Background(), "saham naik")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestRemoteClassifyUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewRemoteClassifier(srv.URL, 0.3, zerolog.Nop())

	_, err := c.Classify(context.Background(), "saham naik")
	assert.Error(t, err)
}
