package varpath

import (
	"sort"
	"strings"

	"exprdiag/internal/expression"
	"exprdiag/internal/simstate"
)

// CoverageVariable describes one sampled variable an expression depends
// on: the canonical domain it belongs to and the numeric range a sampler
// must cover for it.
type CoverageVariable struct {
	Path   string  `json:"path"`
	Domain string  `json:"domain"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// CollectSamplingCoverageVariables scans the expression for variables in
// recognized domains and reports each with its sampling range. Emotions
// and sexual states live in [0,1]; mood axes span [moodMin, moodMax];
// previous-tick variants share their base domain's range. Paths outside
// the recognized domains are skipped, not rejected; expressions may also
// reference external variables the sampler does not own.
func CollectSamplingCoverageVariables(e expression.Expression, moodMin, moodMax float64) []CoverageVariable {
	var vars []CoverageVariable
	for _, path := range e.VarPaths() {
		root, key := splitRoot(path)
		if key == "" {
			continue
		}
		domain, ok := canonicalDomain(root)
		if !ok {
			continue
		}
		cv := CoverageVariable{Path: path, Domain: domain}
		switch simstate.BaseDomain(domain) {
		case simstate.DomainMoodAxes:
			cv.Min, cv.Max = moodMin, moodMax
		default:
			cv.Min, cv.Max = 0, 1
		}
		vars = append(vars, cv)
	}
	return vars
}

// canonicalDomain resolves a path root to its canonical sampling domain.
// Matching is case-insensitive and accepts the mood/sexual shorthand the
// authoring tools historically emitted.
func canonicalDomain(root string) (string, bool) {
	lower := strings.ToLower(root)
	previous := strings.HasPrefix(lower, "previous")
	base := strings.TrimPrefix(lower, "previous")
	var domain string
	switch base {
	case "emotions":
		domain = simstate.DomainEmotions
	case "moodaxes", "mood":
		domain = simstate.DomainMoodAxes
	case "sexualstates", "sexual":
		domain = simstate.DomainSexualStates
	default:
		return "", false
	}
	if previous {
		domain, _ = simstate.PreviousDomain(domain)
	}
	return domain, true
}

// ExtractReferencedEmotions returns the sorted set of bare emotion names
// the expression references under an emotions or previousEmotions prefix,
// matched case-insensitively and lower-cased on return.
func ExtractReferencedEmotions(e expression.Expression) []string {
	seen := make(map[string]struct{})
	for _, path := range e.VarPaths() {
		root, key := splitRoot(path)
		if key == "" {
			continue
		}
		lower := strings.ToLower(root)
		if lower != "emotions" && lower != "previousemotions" {
			continue
		}
		seen[strings.ToLower(key)] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FilterEmotions projects a full emotion-value mapping down to the
// referenced names, values untouched. Keeps evidence payloads small.
func FilterEmotions(all map[string]float64, referenced []string) map[string]float64 {
	filtered := make(map[string]float64, len(referenced))
	for _, name := range referenced {
		if v, ok := all[name]; ok {
			filtered[name] = v
		}
	}
	return filtered
}
