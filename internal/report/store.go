// Package report archives analysis runs in SQLite and diffs feasibility
// results across runs by their stable clause ids.
package report

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"exprdiag/internal/conflict"
	"exprdiag/internal/feasibility"
	"exprdiag/internal/logging"
	"exprdiag/internal/overlap"
)

// Run kinds stored in the archive.
const (
	RunKindOverlap     = "overlap"
	RunKindFeasibility = "feasibility"
	RunKindConflicts   = "conflicts"
)

// Run is one archived analysis run.
type Run struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	CreatedAt  time.Time `json:"createdAt"`
	Subject    string    `json:"subject,omitempty"`
	CorpusSize int       `json:"corpusSize"`
}

// Store is the SQLite-backed run archive. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
	log    *zap.Logger
}

// Open creates or opens the archive at path, creating the parent
// directory if needed. A nil logger disables logging.
func Open(path string, log *zap.Logger) (*Store, error) {
	log = logging.For(log, logging.CategoryStore)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			log.Debug("pragma failed", zap.String("pragma", pragma), zap.Error(err))
		}
	}

	s := &Store{db: db, dbPath: path, log: log}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize archive schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the archive file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		created_at TEXT NOT NULL,
		subject TEXT,
		corpus_size INTEGER NOT NULL DEFAULT 0,
		payload_json TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

	CREATE TABLE IF NOT EXISTS clause_results (
		run_id TEXT NOT NULL,
		clause_id TEXT NOT NULL,
		var_path TEXT NOT NULL,
		classification TEXT NOT NULL,
		result_json TEXT NOT NULL,
		PRIMARY KEY (run_id, clause_id),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS recommendations (
		run_id TEXT NOT NULL,
		pair_key TEXT NOT NULL,
		classification TEXT NOT NULL,
		severity TEXT NOT NULL,
		recommendation_json TEXT NOT NULL,
		PRIMARY KEY (run_id, pair_key),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveFeasibilityRun archives one expression's feasibility results under
// runID. subject names the analyzed expression.
func (s *Store) SaveFeasibilityRun(runID, subject string, corpusSize int, results []feasibility.ClauseResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin archive write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO runs (id, kind, created_at, subject, corpus_size)
		VALUES (?, ?, ?, ?, ?)
	`, runID, RunKindFeasibility, now(), subject, corpusSize); err != nil {
		return fmt.Errorf("record run %s: %w", runID, err)
	}
	for _, r := range results {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode clause %s: %w", r.ClauseID, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO clause_results (run_id, clause_id, var_path, classification, result_json)
			VALUES (?, ?, ?, ?, ?)
		`, runID, r.ClauseID, r.Clause.VarPath, string(r.Classification), payload); err != nil {
			return fmt.Errorf("record clause %s: %w", r.ClauseID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", runID, err)
	}

	s.log.Info("feasibility run archived",
		zap.String("run_id", runID),
		zap.String("subject", subject),
		zap.Int("clauses", len(results)))
	return nil
}

// SaveOverlapReport archives an overlap report under its metadata run id.
// subject names the analyzed scope, usually a family or "all".
func (s *Store) SaveOverlapReport(report overlap.Report, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := json.Marshal(report.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin archive write: %w", err)
	}
	defer tx.Rollback()

	runID := report.Metadata.RunID
	if _, err := tx.Exec(`
		INSERT INTO runs (id, kind, created_at, subject, corpus_size, payload_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, RunKindOverlap, now(), subject, report.Metadata.CorpusSize, meta); err != nil {
		return fmt.Errorf("record run %s: %w", runID, err)
	}
	for _, rec := range report.Recommendations {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode recommendation %s/%s: %w", rec.PrototypeA, rec.PrototypeB, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO recommendations (run_id, pair_key, classification, severity, recommendation_json)
			VALUES (?, ?, ?, ?, ?)
		`, runID, rec.PrototypeA+"|"+rec.PrototypeB, string(rec.Classification), rec.Severity, payload); err != nil {
			return fmt.Errorf("record recommendation %s/%s: %w", rec.PrototypeA, rec.PrototypeB, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", runID, err)
	}

	s.log.Info("overlap run archived",
		zap.String("run_id", runID),
		zap.Int("recommendations", len(report.Recommendations)))
	return nil
}

// SaveConflictRun archives one prototype's conflict analysis under runID.
func (s *Store) SaveConflictRun(runID, prototypeID string, moodSampleCount int, analysis conflict.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	if _, err := s.db.Exec(`
		INSERT INTO runs (id, kind, created_at, subject, corpus_size, payload_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, RunKindConflicts, now(), prototypeID, moodSampleCount, payload); err != nil {
		return fmt.Errorf("record run %s: %w", runID, err)
	}

	s.log.Info("conflict run archived",
		zap.String("run_id", runID),
		zap.String("prototype", prototypeID))
	return nil
}

// ListRuns returns archived runs, newest first. kind filters when
// non-empty; limit <= 0 returns everything.
func (s *Store) ListRuns(kind string, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, kind, created_at, subject, corpus_size FROM runs`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		var created string
		var subject sql.NullString
		if err := rows.Scan(&r.ID, &r.Kind, &created, &subject, &r.CorpusSize); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		r.Subject = subject.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// now renders archive timestamps; stored as text so ordering and parsing
// never depend on driver-side time conversion.
func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// ClauseResults loads one archived feasibility run's results ordered by
// clause id.
func (s *Store) ClauseResults(runID string) ([]feasibility.ClauseResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT result_json FROM clause_results
		WHERE run_id = ?
		ORDER BY clause_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load clause results: %w", err)
	}
	defer rows.Close()

	results := []feasibility.ClauseResult{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan clause result: %w", err)
		}
		var r feasibility.ClauseResult
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, fmt.Errorf("decode clause result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// OverlapRecommendations loads one archived overlap run's
// recommendations ordered by pair key.
func (s *Store) OverlapRecommendations(runID string) ([]overlap.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT recommendation_json FROM recommendations
		WHERE run_id = ?
		ORDER BY pair_key
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load recommendations: %w", err)
	}
	defer rows.Close()

	recs := []overlap.Recommendation{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		var rec overlap.Recommendation
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
