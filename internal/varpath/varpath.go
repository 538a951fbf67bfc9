// Package varpath validates dotted variable paths against a known-keys
// catalog and classifies references into sampling domains. Everything here
// is stateless; callers pass the catalog and ranges explicitly.
package varpath

import (
	"sort"
	"strings"

	"exprdiag/internal/expression"
)

// Reasons a path fails validation.
const (
	ReasonUnknownRoot      = "unknown_root"
	ReasonInvalidNesting   = "invalid_nesting"
	ReasonUnknownNestedKey = "unknown_nested_key"
)

// KnownKeys is the catalog paths are validated against. A nil entry in
// NestedKeys means the root accepts any nested key.
type KnownKeys struct {
	TopLevel   map[string]struct{}
	ScalarKeys map[string]struct{}
	NestedKeys map[string]map[string]struct{}
}

// Validation is the outcome for a single path. Reason and Suggestion are
// empty when the path is valid.
type Validation struct {
	IsValid    bool   `json:"isValid"`
	Reason     string `json:"reason,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ValidateVarPath checks one dotted path against the catalog. Matching is
// exact: catalogs are authoritative, so near-misses surface as suggestions
// rather than being accepted.
func ValidateVarPath(path string, known KnownKeys) Validation {
	root, rest := splitRoot(path)
	if _, ok := known.TopLevel[root]; !ok {
		return Validation{
			Reason:     ReasonUnknownRoot,
			Suggestion: "known roots: " + enumerateKeys(known.TopLevel),
		}
	}
	if rest == "" {
		return Validation{IsValid: true}
	}
	if _, scalar := known.ScalarKeys[root]; scalar {
		return Validation{
			Reason:     ReasonInvalidNesting,
			Suggestion: root + " is a scalar and has no nested keys",
		}
	}
	nested, restricted := known.NestedKeys[root]
	if restricted && nested != nil {
		if _, ok := nested[rest]; !ok {
			return Validation{
				Reason:     ReasonUnknownNestedKey,
				Suggestion: "known keys under " + root + ": " + enumerateKeys(nested),
			}
		}
	}
	return Validation{IsValid: true}
}

// Warning flags one invalid path found in an expression.
type Warning struct {
	VarPath    string `json:"varPath"`
	Reason     string `json:"reason"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ValidateExpressionVarPaths validates every distinct path referenced by
// the expression's prerequisite trees, one warning per invalid path in
// first-seen order.
func ValidateExpressionVarPaths(e expression.Expression, known KnownKeys) []Warning {
	var warnings []Warning
	for _, path := range e.VarPaths() {
		v := ValidateVarPath(path, known)
		if v.IsValid {
			continue
		}
		warnings = append(warnings, Warning{
			VarPath:    path,
			Reason:     v.Reason,
			Suggestion: v.Suggestion,
		})
	}
	return warnings
}

const maxSuggestedKeys = 5

func enumerateKeys(set map[string]struct{}) string {
	if len(set) == 0 {
		return "(none available)"
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > maxSuggestedKeys {
		return strings.Join(keys[:maxSuggestedKeys], ", ") + ", …"
	}
	return strings.Join(keys, ", ")
}

func splitRoot(path string) (root, rest string) {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return path, ""
}
