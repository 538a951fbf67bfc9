// Package catalog loads the JSON artifacts the command line consumes:
// prototype catalogs, expression definitions, and upstream axis-conflict
// records. It also derives the known variable-path vocabulary from a
// loaded registry.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"exprdiag/internal/conflict"
	"exprdiag/internal/expression"
	"exprdiag/internal/prototype"
	"exprdiag/internal/simstate"
	"exprdiag/internal/varpath"
)

// LoadRegistry reads a JSON array of prototypes and builds a validated
// registry from it.
func LoadRegistry(path string) (*prototype.InMemoryRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prototype catalog: %w", err)
	}
	var protos []prototype.Prototype
	if err := json.Unmarshal(data, &protos); err != nil {
		return nil, fmt.Errorf("parse prototype catalog: %w", err)
	}
	reg, err := prototype.NewInMemoryRegistry(protos)
	if err != nil {
		return nil, fmt.Errorf("build prototype registry: %w", err)
	}
	return reg, nil
}

// LoadExpressions reads expression definitions from a JSON file holding
// either an array of expressions or a single expression object. Every
// expression is validated.
func LoadExpressions(path string) ([]expression.Expression, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read expressions: %w", err)
	}
	var exprs []expression.Expression
	if err := json.Unmarshal(data, &exprs); err != nil {
		var one expression.Expression
		if err2 := json.Unmarshal(data, &one); err2 != nil {
			return nil, fmt.Errorf("parse expressions: %w", err)
		}
		exprs = []expression.Expression{one}
	}
	for _, e := range exprs {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	return exprs, nil
}

// FindExpression returns the expression with the given id. An empty id
// selects the only expression in single-expression files.
func FindExpression(exprs []expression.Expression, id string) (expression.Expression, error) {
	if id == "" {
		if len(exprs) == 1 {
			return exprs[0], nil
		}
		return expression.Expression{}, fmt.Errorf("expression id required: file holds %d expressions", len(exprs))
	}
	for _, e := range exprs {
		if e.ID == id {
			return e, nil
		}
	}
	return expression.Expression{}, fmt.Errorf("expression %s not found", id)
}

// LoadConflicts reads a JSON array of axis-conflict records and drops
// untyped placeholder rows.
func LoadConflicts(path string) ([]conflict.AxisConflict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read conflicts: %w", err)
	}
	var conflicts []conflict.AxisConflict
	if err := json.Unmarshal(data, &conflicts); err != nil {
		return nil, fmt.Errorf("parse conflicts: %w", err)
	}
	return conflict.Normalize(conflicts), nil
}

// KnownKeys derives the variable-path vocabulary from a registry:
// emotion and sexual-state keys come from prototype ids, mood axes from
// the union of weighted and gated axes. previous* domains mirror their
// base domains.
func KnownKeys(reg prototype.Registry) varpath.KnownKeys {
	emotions := idSet(reg.ByFamily(prototype.FamilyEmotion))
	sexual := idSet(reg.ByFamily(prototype.FamilySexual))

	axes := make(map[string]struct{})
	for _, p := range reg.List() {
		for axis := range p.Weights {
			axes[axis] = struct{}{}
		}
		for _, g := range p.Gates {
			axes[g.Axis] = struct{}{}
		}
	}

	nested := map[string]map[string]struct{}{
		simstate.DomainEmotions:             emotions,
		simstate.DomainMoodAxes:             axes,
		simstate.DomainSexualStates:         sexual,
		simstate.DomainPreviousEmotions:     emotions,
		simstate.DomainPreviousMoodAxes:     axes,
		simstate.DomainPreviousSexualStates: sexual,
	}
	top := make(map[string]struct{}, len(nested))
	for domain := range nested {
		top[domain] = struct{}{}
	}
	return varpath.KnownKeys{
		TopLevel:   top,
		ScalarKeys: map[string]struct{}{},
		NestedKeys: nested,
	}
}

func idSet(protos []prototype.Prototype) map[string]struct{} {
	set := make(map[string]struct{}, len(protos))
	for _, p := range protos {
		set[p.ID] = struct{}{}
	}
	return set
}
