// Package extractor finds ticker symbols mentioned in article text using
// the loaded dictionary, filtering common-word false positives.
package extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sahamlab/sinyal/internal/dictionary"
)

// Match is one ticker found in a text. MatchedAlias records which surface
// form triggered the match (the bare symbol, the company name, or an alias).
type Match struct {
	Symbol       string
	MatchedAlias string
}

// Extractor matches dictionary entries against article text. Patterns are
// compiled once at construction and the extractor is safe for concurrent
// use afterwards.
type Extractor struct {
	dict    *dictionary.Dictionary
	entries []compiledEntry
	log     zerolog.Logger
}

type compiledEntry struct {
	entry *dictionary.Entry

	// symbol matches whole-word and case-sensitive: bare tickers are
	// uppercase codes, and lowercase words that happen to spell a ticker
	// must not match.
	symbol *regexp.Regexp

	// names (company name + aliases) match whole-word, case-insensitive
	names []namePattern

	// context keywords, lowercased for substring-free word matching
	context []*regexp.Regexp
}

type namePattern struct {
	surface string
	re      *regexp.Regexp
}

// New compiles matching patterns for every dictionary entry
func New(dict *dictionary.Dictionary, log zerolog.Logger) *Extractor {
	ex := &Extractor{
		dict: dict,
		log:  log.With().Str("component", "extractor").Logger(),
	}

	for i := range dict.Entries {
		e := &dict.Entries[i]
		ce := compiledEntry{
			entry:  e,
			symbol: regexp.MustCompile(`\b` + regexp.QuoteMeta(e.Symbol) + `\b`),
		}

		if e.Name != "" {
			ce.names = append(ce.names, namePattern{
				surface: e.Name,
				re:      regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(e.Name) + `\b`),
			})
		}
		for _, alias := range e.Aliases {
			ce.names = append(ce.names, namePattern{
				surface: alias,
				re:      regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(alias) + `\b`),
			})
		}

		for _, kw := range dict.ContextFor(e) {
			ce.context = append(ce.context, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
		}

		ex.entries = append(ex.entries, ce)
	}

	return ex
}

// Extract returns the set of tickers mentioned in text, sorted by symbol.
// Re-running on unchanged text and an unchanged dictionary always yields
// the same result. Zero matches is a normal outcome.
func (ex *Extractor) Extract(text string) []Match {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var matches []Match
	for _, ce := range ex.entries {
		surface, ok := ce.match(text)
		if !ok {
			continue
		}
		matches = append(matches, Match{Symbol: ce.entry.Symbol, MatchedAlias: surface})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Symbol < matches[j].Symbol })
	return matches
}

// Symbols is a convenience wrapper returning only the matched symbols
func (ex *Extractor) Symbols(text string) []string {
	matches := ex.Extract(text)
	symbols := make([]string, 0, len(matches))
	for _, m := range matches {
		symbols = append(symbols, m.Symbol)
	}
	return symbols
}

func (ce *compiledEntry) match(text string) (string, bool) {
	symbolHit := ce.symbol.MatchString(text)

	var nameHit string
	for _, np := range ce.names {
		if np.re.MatchString(text) {
			nameHit = np.surface
			break
		}
	}

	if !symbolHit && nameHit == "" {
		return "", false
	}

	// Common-word symbols need disambiguation: an uppercase bare-symbol
	// occurrence counts as disambiguating on its own, while a
	// case-insensitive name hit additionally needs a market context
	// keyword somewhere in the text.
	if ce.entry.CommonWord {
		if symbolHit {
			return ce.entry.Symbol, true
		}
		if nameHit != "" && ce.hasContext(text) {
			return nameHit, true
		}
		return "", false
	}

	if symbolHit {
		return ce.entry.Symbol, true
	}
	return nameHit, true
}

func (ce *compiledEntry) hasContext(text string) bool {
	for _, re := range ce.context {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
