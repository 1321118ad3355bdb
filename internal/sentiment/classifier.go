// Package sentiment classifies article text into a polarity score, label
// and confidence. Classifiers are expensive to initialize, so one instance
// is created at process start and shared read-only across workers.
package sentiment

import (
	"context"

	"github.com/sahamlab/sinyal/internal/domain"
)

// Result is the classifier output for one text
type Result struct {
	Score      float64               // -1 (negative) to 1 (positive)
	Label      domain.SentimentLabel // derived from Score by threshold
	Confidence float64               // 0 to 1
}

// Classifier scores a single text. Implementations must be safe for
// concurrent use after construction.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// LabelFor buckets a score using the configured sensitivity threshold.
// The inequalities are strict: a score exactly at +-threshold is neutral.
func LabelFor(score, threshold float64) domain.SentimentLabel {
	switch {
	case score > threshold:
		return domain.SentimentPositive
	case score < -threshold:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// ClassifyBatch scores several texts with the same classifier. Grouping is
// a throughput convenience only; per-text results are identical to calling
// Classify once per text.
func ClassifyBatch(ctx context.Context, c Classifier, texts []string) ([]Result, error) {
	results := make([]Result, 0, len(texts))
	for _, text := range texts {
		r, err := c.Classify(ctx, text)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}
