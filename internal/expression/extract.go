package expression

import (
	"fmt"
	"strings"

	"exprdiag/internal/simstate"
)

// Clause types as derived from the variable path root.
const (
	ClauseTypeEmotion = "emotion"
	ClauseTypeSexual  = "sexual"
	ClauseTypeOther   = "other"
)

// NonAxisClause is one flat prerequisite comparison on a non-mood-axis
// variable, lifted out of an expression's logic tree. SourcePath records
// where in the tree the clause sits so downstream reports stay traceable.
type NonAxisClause struct {
	VarPath    string  `json:"varPath"`
	Op         string  `json:"op"`
	Threshold  float64 `json:"threshold"`
	IsDelta    bool    `json:"isDelta"`
	ClauseType string  `json:"clauseType"`
	SourcePath string  `json:"sourcePath"`
}

// ExtractNonAxisClauses walks every prerequisite tree and returns the
// leaf conditions that do not target a mood axis, in tree order. Leaves
// under a NOT keep their literal comparison; the negation stays with the
// expression, not the clause.
func ExtractNonAxisClauses(e Expression) []NonAxisClause {
	var clauses []NonAxisClause
	for i, n := range e.Prerequisites {
		collectNonAxis(n, fmt.Sprintf("prerequisites[%d]", i), &clauses)
	}
	return clauses
}

func collectNonAxis(n *Node, at string, out *[]NonAxisClause) {
	switch {
	case n == nil:
		return
	case n.Cond != nil:
		c := n.Cond
		domain, _, ok := simstate.SplitPath(c.VarPath)
		if ok && simstate.BaseDomain(domain) == simstate.DomainMoodAxes {
			return
		}
		*out = append(*out, NonAxisClause{
			VarPath:    c.VarPath,
			Op:         c.Op,
			Threshold:  c.Threshold,
			IsDelta:    c.IsDelta,
			ClauseType: clauseTypeFor(c.VarPath),
			SourcePath: at,
		})
	case n.Not != nil:
		collectNonAxis(n.Not, at+".not", out)
	case len(n.And) > 0:
		for i, child := range n.And {
			collectNonAxis(child, fmt.Sprintf("%s.and[%d]", at, i), out)
		}
	case len(n.Or) > 0:
		for i, child := range n.Or {
			collectNonAxis(child, fmt.Sprintf("%s.or[%d]", at, i), out)
		}
	}
}

func clauseTypeFor(varPath string) string {
	domain, _, ok := simstate.SplitPath(varPath)
	if !ok {
		return ClauseTypeOther
	}
	switch simstate.BaseDomain(domain) {
	case simstate.DomainEmotions:
		return ClauseTypeEmotion
	case simstate.DomainSexualStates:
		return ClauseTypeSexual
	}
	return ClauseTypeOther
}

// VarPaths returns every distinct variable path referenced anywhere in
// the expression's prerequisite trees, in first-seen order.
func (e Expression) VarPaths() []string {
	seen := make(map[string]struct{})
	var paths []string
	var walk func(n *Node)
	walk = func(n *Node) {
		switch {
		case n == nil:
			return
		case n.Cond != nil:
			if _, dup := seen[n.Cond.VarPath]; !dup {
				seen[n.Cond.VarPath] = struct{}{}
				paths = append(paths, n.Cond.VarPath)
			}
		case n.Not != nil:
			walk(n.Not)
		default:
			for _, child := range n.And {
				walk(child)
			}
			for _, child := range n.Or {
				walk(child)
			}
		}
	}
	for _, n := range e.Prerequisites {
		walk(n)
	}
	return paths
}

// ReferencesDomain reports whether any prerequisite touches the given
// domain, matching case-insensitively on the path root.
func (e Expression) ReferencesDomain(domain string) bool {
	for _, p := range e.VarPaths() {
		d, _, ok := simstate.SplitPath(p)
		if ok && strings.EqualFold(d, domain) {
			return true
		}
	}
	return false
}
