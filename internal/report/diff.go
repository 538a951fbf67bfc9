package report

import (
	"fmt"
	"sort"
)

// DiffEntry describes one clause's classification across two runs.
// Before is empty for added clauses, After for removed ones.
type DiffEntry struct {
	ClauseID string `json:"clauseId"`
	VarPath  string `json:"varPath"`
	Before   string `json:"before,omitempty"`
	After    string `json:"after,omitempty"`
}

// Diff contrasts two archived feasibility runs by clause id. Clause ids
// are pure functions of clause identity, so Added and Removed reflect
// real expression edits while Changed isolates classification movement
// on clauses present in both runs.
type Diff struct {
	RunA    string      `json:"runA"`
	RunB    string      `json:"runB"`
	Added   []DiffEntry `json:"added"`
	Removed []DiffEntry `json:"removed"`
	Changed []DiffEntry `json:"changed"`
}

type clauseRow struct {
	varPath        string
	classification string
}

// DiffFeasibilityRuns compares runB against the runA baseline. Both runs
// must exist in the archive.
func (s *Store) DiffFeasibilityRuns(runA, runB string) (*Diff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range []string{runA, runB} {
		ok, err := s.runExists(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("run %s not found", id)
		}
	}

	before, err := s.clauseRows(runA)
	if err != nil {
		return nil, err
	}
	after, err := s.clauseRows(runB)
	if err != nil {
		return nil, err
	}

	diff := &Diff{
		RunA:    runA,
		RunB:    runB,
		Added:   []DiffEntry{},
		Removed: []DiffEntry{},
		Changed: []DiffEntry{},
	}
	for id, a := range before {
		b, ok := after[id]
		switch {
		case !ok:
			diff.Removed = append(diff.Removed, DiffEntry{
				ClauseID: id, VarPath: a.varPath, Before: a.classification,
			})
		case b.classification != a.classification:
			diff.Changed = append(diff.Changed, DiffEntry{
				ClauseID: id, VarPath: a.varPath, Before: a.classification, After: b.classification,
			})
		}
	}
	for id, b := range after {
		if _, ok := before[id]; !ok {
			diff.Added = append(diff.Added, DiffEntry{
				ClauseID: id, VarPath: b.varPath, After: b.classification,
			})
		}
	}
	sortEntries(diff.Added)
	sortEntries(diff.Removed)
	sortEntries(diff.Changed)
	return diff, nil
}

func (s *Store) runExists(runID string) (bool, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&n); err != nil {
		return false, fmt.Errorf("look up run %s: %w", runID, err)
	}
	return n > 0, nil
}

func (s *Store) clauseRows(runID string) (map[string]clauseRow, error) {
	rows, err := s.db.Query(`
		SELECT clause_id, var_path, classification FROM clause_results
		WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load clause rows for %s: %w", runID, err)
	}
	defer rows.Close()

	out := make(map[string]clauseRow)
	for rows.Next() {
		var id string
		var row clauseRow
		if err := rows.Scan(&id, &row.varPath, &row.classification); err != nil {
			return nil, fmt.Errorf("scan clause row: %w", err)
		}
		out[id] = row
	}
	return out, rows.Err()
}

func sortEntries(entries []DiffEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ClauseID < entries[j].ClauseID })
}
