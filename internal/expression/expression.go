// Package expression models expression definitions: named visual or
// behavioral outputs guarded by prerequisite logic trees over sampled
// state variables. The package evaluates trees against contexts and
// extracts the flat non-axis clauses the feasibility analyzer consumes.
package expression

import (
	"fmt"
	"math"

	"exprdiag/internal/simstate"
)

// Comparison operators a condition may use.
const (
	OpGT  = ">"
	OpGTE = ">="
	OpLT  = "<"
	OpLTE = "<="
	OpEQ  = "=="
	OpNEQ = "!="
)

// KnownOp reports whether op is one of the supported comparison operators.
func KnownOp(op string) bool {
	switch op {
	case OpGT, OpGTE, OpLT, OpLTE, OpEQ, OpNEQ:
		return true
	}
	return false
}

// Compare applies op to (value, threshold). Equality is exact; sampled
// corpora quantize values, so exact comparison is the intended contract.
func Compare(value float64, op string, threshold float64) bool {
	switch op {
	case OpGT:
		return value > threshold
	case OpGTE:
		return value >= threshold
	case OpLT:
		return value < threshold
	case OpLTE:
		return value <= threshold
	case OpEQ:
		return value == threshold
	case OpNEQ:
		return value != threshold
	}
	return false
}

// Condition is one leaf comparison against a dotted variable path. When
// IsDelta is set the compared value is current − previous at the path.
type Condition struct {
	VarPath   string  `json:"varPath" yaml:"varPath"`
	Op        string  `json:"op" yaml:"op"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	IsDelta   bool    `json:"isDelta,omitempty" yaml:"isDelta,omitempty"`
}

// Node is one vertex of a prerequisite logic tree. Exactly one of the
// group fields (And, Or, Not) or Cond is set.
type Node struct {
	And  []*Node    `json:"and,omitempty" yaml:"and,omitempty"`
	Or   []*Node    `json:"or,omitempty" yaml:"or,omitempty"`
	Not  *Node      `json:"not,omitempty" yaml:"not,omitempty"`
	Cond *Condition `json:"cond,omitempty" yaml:"cond,omitempty"`
}

// Expression is one expression definition with its prerequisite trees.
// Prerequisites combine with AND semantics: all must hold.
type Expression struct {
	ID            string  `json:"id" yaml:"id"`
	Name          string  `json:"name,omitempty" yaml:"name,omitempty"`
	Prerequisites []*Node `json:"prerequisites" yaml:"prerequisites"`
}

// Validate checks that every node carries exactly one variant and every
// condition a known operator, a finite threshold, and a variable path.
func (e Expression) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("expression id is empty")
	}
	for i, n := range e.Prerequisites {
		if err := validateNode(n, fmt.Sprintf("prerequisites[%d]", i)); err != nil {
			return fmt.Errorf("expression %s: %w", e.ID, err)
		}
	}
	return nil
}

func validateNode(n *Node, at string) error {
	if n == nil {
		return fmt.Errorf("%s: nil node", at)
	}
	variants := 0
	if len(n.And) > 0 {
		variants++
	}
	if len(n.Or) > 0 {
		variants++
	}
	if n.Not != nil {
		variants++
	}
	if n.Cond != nil {
		variants++
	}
	if variants != 1 {
		return fmt.Errorf("%s: node must carry exactly one of and/or/not/cond", at)
	}
	switch {
	case n.Cond != nil:
		c := n.Cond
		if c.VarPath == "" {
			return fmt.Errorf("%s: condition has no varPath", at)
		}
		if !KnownOp(c.Op) {
			return fmt.Errorf("%s: unknown operator %q", at, c.Op)
		}
		if math.IsNaN(c.Threshold) || math.IsInf(c.Threshold, 0) {
			return fmt.Errorf("%s: threshold is not finite", at)
		}
	case n.Not != nil:
		return validateNode(n.Not, at+".not")
	case len(n.And) > 0:
		for i, child := range n.And {
			if err := validateNode(child, fmt.Sprintf("%s.and[%d]", at, i)); err != nil {
				return err
			}
		}
	default:
		for i, child := range n.Or {
			if err := validateNode(child, fmt.Sprintf("%s.or[%d]", at, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Evaluate reports whether every prerequisite tree admits the context.
// A condition whose variable cannot be resolved evaluates to false.
func (e Expression) Evaluate(ctx simstate.Context) bool {
	for _, n := range e.Prerequisites {
		if !evalNode(n, ctx) {
			return false
		}
	}
	return true
}

func evalNode(n *Node, ctx simstate.Context) bool {
	switch {
	case n == nil:
		return false
	case n.Cond != nil:
		v, ok := resolveCond(n.Cond, ctx)
		if !ok {
			return false
		}
		return Compare(v, n.Cond.Op, n.Cond.Threshold)
	case n.Not != nil:
		return !evalNode(n.Not, ctx)
	case len(n.And) > 0:
		for _, child := range n.And {
			if !evalNode(child, ctx) {
				return false
			}
		}
		return true
	case len(n.Or) > 0:
		for _, child := range n.Or {
			if evalNode(child, ctx) {
				return true
			}
		}
		return false
	}
	return false
}

func resolveCond(c *Condition, ctx simstate.Context) (float64, bool) {
	if c.IsDelta {
		return ctx.ResolveDelta(c.VarPath)
	}
	return ctx.Resolve(c.VarPath)
}
