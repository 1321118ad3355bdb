package sentiment

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahamlab/sinyal/internal/domain"
)

const testLexicon = `
negations: [tidak, bukan, belum]
positive:
  naik: 1.0
  untung: 1.0
  tumbuh: 0.8
negative:
  turun: 1.0
  rugi: 1.0
  anjlok: 1.2
`

func newTestClassifier(t *testing.T) *LexiconClassifier {
	t.Helper()
	c, err := ParseLexicon([]byte(testLexicon), 0.3, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestClassifyPositive(t *testing.T) {
	c := newTestClassifier(t)

	r, err := c.Classify(context.Background(), "Saham naik dan laba tumbuh")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, r.Score, 1e-9)
	assert.Equal(t, domain.SentimentPositive, r.Label)
	assert.Greater(t, r.Confidence, 0.0)
}

func TestClassifyNegative(t *testing.T) {
	c := newTestClassifier(t)

	r, err := c.Classify(context.Background(), "Harga anjlok, investor rugi")
	require.NoError(t, err)

	assert.InDelta(t, -1.0, r.Score, 1e-9)
	assert.Equal(t, domain.SentimentNegative, r.Label)
}

func TestClassifyMixed(t *testing.T) {
	c := newTestClassifier(t)

	// naik (1.0) vs turun (1.0): score 0, neutral
	r, err := c.Classify(context.Background(), "pendapatan naik tapi laba turun")
	require.NoError(t, err)

	assert.InDelta(t, 0.0, r.Score, 1e-9)
	assert.Equal(t, domain.SentimentNeutral, r.Label)
}

func TestClassifyNegationFlips(t *testing.T) {
	c := newTestClassifier(t)

	r, err := c.Classify(context.Background(), "harga tidak naik")
	require.NoError(t, err)

	assert.InDelta(t, -1.0, r.Score, 1e-9)
	assert.Equal(t, domain.SentimentNegative, r.Label)
}

func TestClassifyNoHits(t *testing.T) {
	c := newTestClassifier(t)

	r, err := c.Classify(context.Background(), "rapat umum pemegang obligasi")
	require.NoError(t, err)

	assert.Zero(t, r.Score)
	assert.Equal(t, domain.SentimentNeutral, r.Label)
	assert.Zero(t, r.Confidence)
}

func TestConfidenceGrowsWithHits(t *testing.T) {
	c := newTestClassifier(t)

	one, err := c.Classify(context.Background(), "naik")
	require.NoError(t, err)
	many, err := c.Classify(context.Background(), "naik naik naik naik naik")
	require.NoError(t, err)

	assert.Greater(t, many.Confidence, one.Confidence)
	assert.Less(t, many.Confidence, 1.0)
}

func TestLabelForBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  domain.SentimentLabel
	}{
		{0.31, domain.SentimentPositive},
		{0.3, domain.SentimentNeutral},
		{0.0, domain.SentimentNeutral},
		{-0.3, domain.SentimentNeutral},
		{-0.31, domain.SentimentNegative},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LabelFor(tt.score, 0.3), "score %v", tt.score)
	}
}

func TestClassifyBatchMatchesSingle(t *testing.T) {
	c := newTestClassifier(t)
	texts := []string{"saham naik", "harga anjlok", "tidak untung"}

	batch, err := ClassifyBatch(context.Background(), c, texts)
	require.NoError(t, err)
	require.Len(t, batch, len(texts))

	for i, text := range texts {
		single, err := c.Classify(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestParseLexiconErrors(t *testing.T) {
	_, err := ParseLexicon([]byte(`positive: {naik: 1.0}`), 0.3, zerolog.Nop())
	assert.Error(t, err)

	_, err = ParseLexicon([]byte(`not: [valid`), 0.3, zerolog.Nop())
	assert.Error(t, err)
}
