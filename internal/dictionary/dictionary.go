// Package dictionary loads the static ticker symbol dictionary used for
// mention extraction. The dictionary is read once at startup and is
// read-only afterwards, so it is shared across workers without locking.
package dictionary

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry describes one tradable symbol and how it may appear in text.
type Entry struct {
	Symbol  string   `yaml:"symbol"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases,omitempty"`
	Sector  string   `yaml:"sector,omitempty"`

	// CommonWord marks symbols that collide with ordinary language words.
	// Such symbols only match when they appear uppercase in the text or
	// when a context keyword appears in the same article.
	CommonWord bool `yaml:"common_word,omitempty"`

	// Context lists per-symbol disambiguation keywords. When empty, the
	// dictionary-wide ContextKeywords apply.
	Context []string `yaml:"context,omitempty"`
}

// Dictionary is the loaded symbol dictionary.
type Dictionary struct {
	Entries []Entry

	// ContextKeywords are market terms whose presence disambiguates
	// common-word symbols (e.g. "saham", "bursa", "IHSG").
	ContextKeywords []string

	bySymbol map[string]*Entry
}

type fileFormat struct {
	Tickers         []Entry  `yaml:"tickers"`
	ContextKeywords []string `yaml:"context_keywords"`
}

// Load reads and validates a dictionary YAML file. A malformed dictionary
// is a startup-fatal configuration error.
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a dictionary from YAML bytes
func Parse(data []byte) (*Dictionary, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary: %w", err)
	}
	if len(f.Tickers) == 0 {
		return nil, fmt.Errorf("dictionary contains no tickers")
	}

	d := &Dictionary{
		Entries:         f.Tickers,
		ContextKeywords: f.ContextKeywords,
		bySymbol:        make(map[string]*Entry, len(f.Tickers)),
	}

	for i := range d.Entries {
		e := &d.Entries[i]
		e.Symbol = strings.ToUpper(strings.TrimSpace(e.Symbol))
		if e.Symbol == "" {
			return nil, fmt.Errorf("dictionary entry %d has an empty symbol", i)
		}
		if _, dup := d.bySymbol[e.Symbol]; dup {
			return nil, fmt.Errorf("duplicate dictionary symbol %s", e.Symbol)
		}
		d.bySymbol[e.Symbol] = e
	}

	return d, nil
}

// Get returns the entry for a symbol, or nil
func (d *Dictionary) Get(symbol string) *Entry {
	return d.bySymbol[strings.ToUpper(symbol)]
}

// Len returns the number of entries
func (d *Dictionary) Len() int {
	return len(d.Entries)
}

// ContextFor returns the disambiguation keywords that apply to an entry:
// its own context list when present, the dictionary-wide keywords otherwise.
func (d *Dictionary) ContextFor(e *Entry) []string {
	if len(e.Context) > 0 {
		return e.Context
	}
	return d.ContextKeywords
}
