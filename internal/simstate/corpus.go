package simstate

import (
	"encoding/json"
	"fmt"
	"os"
)

// Corpus is the ordered collection of sampled contexts an analysis run
// evaluates against. Order is preserved so repeated runs over the same
// file stay deterministic.
type Corpus []Context

// LoadCorpus reads a JSON array of raw context objects from path.
func LoadCorpus(path string) (Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return ParseCorpus(data)
}

// ParseCorpus decodes a JSON array of raw context objects. Non-numeric
// leaves inside a context are dropped rather than rejected.
func ParseCorpus(data []byte) (Corpus, error) {
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	corpus := make(Corpus, 0, len(raw))
	for _, r := range raw {
		corpus = append(corpus, NewContextFromRaw(r))
	}
	return corpus, nil
}

// Domains returns the set of domain names present anywhere in the corpus.
func (c Corpus) Domains() map[string]struct{} {
	domains := make(map[string]struct{})
	for _, ctx := range c {
		for d := range ctx {
			domains[d] = struct{}{}
		}
	}
	return domains
}

// Keys returns the set of keys observed under the given domain across the
// whole corpus.
func (c Corpus) Keys(domain string) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, ctx := range c {
		for k := range ctx[domain] {
			keys[k] = struct{}{}
		}
	}
	return keys
}
