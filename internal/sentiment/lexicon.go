package sentiment

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/sahamlab/sinyal/pkg/formulas"
)

// confidenceSaturation controls how many lexicon hits amount to full
// confidence: confidence = hits / (hits + saturation).
const confidenceSaturation = 3.0

// LexiconClassifier scores text against a weighted Indonesian finance
// lexicon. Loading the lexicon is the one-time expensive step; Classify is
// pure string work and safe for concurrent use.
type LexiconClassifier struct {
	positive  map[string]float64
	negative  map[string]float64
	negations map[string]struct{}
	threshold float64
	log       zerolog.Logger
}

type lexiconFile struct {
	Positive  map[string]float64 `yaml:"positive"`
	Negative  map[string]float64 `yaml:"negative"`
	Negations []string           `yaml:"negations"`
}

// NewLexiconClassifier loads a lexicon YAML file. A missing or empty
// lexicon is a startup-fatal configuration error.
func NewLexiconClassifier(path string, threshold float64, log zerolog.Logger) (*LexiconClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon %s: %w", path, err)
	}
	return ParseLexicon(data, threshold, log)
}

// ParseLexicon builds a classifier from lexicon YAML bytes
func ParseLexicon(data []byte, threshold float64, log zerolog.Logger) (*LexiconClassifier, error) {
	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}
	if len(f.Positive) == 0 || len(f.Negative) == 0 {
		return nil, fmt.Errorf("lexicon must define both positive and negative terms")
	}

	c := &LexiconClassifier{
		positive:  make(map[string]float64, len(f.Positive)),
		negative:  make(map[string]float64, len(f.Negative)),
		negations: make(map[string]struct{}, len(f.Negations)),
		threshold: threshold,
		log:       log.With().Str("component", "lexicon_classifier").Logger(),
	}
	for term, weight := range f.Positive {
		c.positive[strings.ToLower(term)] = weight
	}
	for term, weight := range f.Negative {
		c.negative[strings.ToLower(term)] = weight
	}
	for _, term := range f.Negations {
		c.negations[strings.ToLower(term)] = struct{}{}
	}

	c.log.Info().
		Int("positive_terms", len(c.positive)).
		Int("negative_terms", len(c.negative)).
		Msg("Sentiment lexicon loaded")

	return c, nil
}

// Classify scores one text. The score is the normalized difference between
// positive and negative evidence, in [-1, 1]; confidence grows with the
// number of lexicon hits.
func (c *LexiconClassifier) Classify(_ context.Context, text string) (Result, error) {
	tokens := tokenize(text)

	var pos, neg float64
	var hits int

	for i, tok := range tokens {
		negated := i > 0 && c.isNegation(tokens[i-1])

		if w, ok := c.positive[tok]; ok {
			hits++
			if negated {
				neg += w
			} else {
				pos += w
			}
			continue
		}
		if w, ok := c.negative[tok]; ok {
			hits++
			if negated {
				pos += w
			} else {
				neg += w
			}
		}
	}

	var score float64
	if pos+neg > 0 {
		score = (pos - neg) / (pos + neg)
	}
	score = formulas.Clamp(score, -1, 1)

	confidence := float64(hits) / (float64(hits) + confidenceSaturation)

	return Result{
		Score:      score,
		Label:      LabelFor(score, c.threshold),
		Confidence: confidence,
	}, nil
}

func (c *LexiconClassifier) isNegation(tok string) bool {
	_, ok := c.negations[tok]
	return ok
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
