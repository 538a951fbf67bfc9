// Package simstate models one sampled snapshot of simulated psychological
// state: a nested mapping of domain (emotions, mood axes, sexual states, and
// their previous-tick variants) to named numeric values. Contexts arrive
// pre-generated from an external sampler and are read-only to the engine.
package simstate

import (
	"encoding/json"
	"strings"
)

// Canonical domain names.
const (
	DomainEmotions             = "emotions"
	DomainMoodAxes             = "moodAxes"
	DomainSexualStates         = "sexualStates"
	DomainPreviousEmotions     = "previousEmotions"
	DomainPreviousMoodAxes     = "previousMoodAxes"
	DomainPreviousSexualStates = "previousSexualStates"
)

// previousOf maps each current-tick domain to its previous-tick variant.
var previousOf = map[string]string{
	DomainEmotions:     DomainPreviousEmotions,
	DomainMoodAxes:     DomainPreviousMoodAxes,
	DomainSexualStates: DomainPreviousSexualStates,
}

// Context is one sampled state snapshot. Values are always numeric; the
// corpus loader drops anything that is not.
type Context map[string]map[string]float64

// NewContextFromRaw builds a Context from loosely typed decoded JSON,
// keeping only numeric leaf values. Malformed domains and non-numeric
// values are dropped silently; sparse contexts are legal input.
func NewContextFromRaw(raw map[string]any) Context {
	ctx := make(Context, len(raw))
	for domain, v := range raw {
		nested, ok := v.(map[string]any)
		if !ok {
			continue
		}
		values := make(map[string]float64, len(nested))
		for key, rv := range nested {
			if f, ok := coerceNumeric(rv); ok {
				values[key] = f
			}
		}
		if len(values) > 0 {
			ctx[domain] = values
		}
	}
	return ctx
}

func coerceNumeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Lookup returns the value stored under domain/key.
func (c Context) Lookup(domain, key string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	values, ok := c[domain]
	if !ok {
		return 0, false
	}
	v, ok := values[key]
	return v, ok
}

// Resolve looks up a dotted variable path such as "emotions.joy". Paths
// without exactly one level of nesting never resolve.
func (c Context) Resolve(path string) (float64, bool) {
	domain, key, ok := SplitPath(path)
	if !ok {
		return 0, false
	}
	return c.Lookup(domain, key)
}

// ResolveDelta returns current − previous for the variable at path. Both
// the current and the previous-tick value must be present.
func (c Context) ResolveDelta(path string) (float64, bool) {
	current, ok := c.Resolve(path)
	if !ok {
		return 0, false
	}
	prevPath, ok := PreviousPath(path)
	if !ok {
		return 0, false
	}
	previous, ok := c.Resolve(prevPath)
	if !ok {
		return 0, false
	}
	return current - previous, true
}

// SplitPath splits "domain.key" into its parts. Deeper nesting and bare
// names report !ok.
func SplitPath(path string) (domain, key string, ok bool) {
	i := strings.IndexByte(path, '.')
	if i <= 0 || i == len(path)-1 {
		return "", "", false
	}
	domain, key = path[:i], path[i+1:]
	if strings.IndexByte(key, '.') >= 0 {
		return "", "", false
	}
	return domain, key, true
}

// PreviousPath maps a current-tick path to its previous-tick variant,
// e.g. "emotions.joy" → "previousEmotions.joy".
func PreviousPath(path string) (string, bool) {
	domain, key, ok := SplitPath(path)
	if !ok {
		return "", false
	}
	prev, ok := PreviousDomain(domain)
	if !ok {
		return "", false
	}
	return prev + "." + key, true
}

// PreviousDomain maps a current-tick domain to its previous-tick variant.
func PreviousDomain(domain string) (string, bool) {
	prev, ok := previousOf[domain]
	return prev, ok
}

// IsPreviousDomain reports whether the domain is a previous-tick variant.
func IsPreviousDomain(domain string) bool {
	for _, prev := range previousOf {
		if domain == prev {
			return true
		}
	}
	return false
}

// BaseDomain maps a previous-tick domain back to its current-tick domain;
// current-tick domains map to themselves.
func BaseDomain(domain string) string {
	for base, prev := range previousOf {
		if domain == prev {
			return base
		}
	}
	return domain
}
