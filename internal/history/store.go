// Package history persists RunRecord rows to a sqlite database, giving
// the doctor/history CLI surface something to query. The store never
// participates in pass/fail decisions; it is a write-behind log.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/JustGoscha/zentest/internal/types"
)

// RunStore wraps a sqlite connection holding the runs table.
type RunStore struct {
	conn *sql.DB
}

// New opens (creating if necessary) the sqlite database at dbPath and
// ensures its schema exists.
func New(dbPath string) (*RunStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	store := &RunStore{conn: conn}
	if err := store.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *RunStore) Close() error {
	return s.conn.Close()
}

func (s *RunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		suite TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		passed INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		healed_by TEXT,
		total_actions INTEGER NOT NULL,
		input_tokens INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		cost_usd REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_suite ON runs(suite);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Record inserts one row after a suite run, success or failure.
func (s *RunStore) Record(rec types.RunRecord) error {
	query := `
		INSERT INTO runs (suite, started_at, finished_at, passed, failed, healed_by, total_actions, input_tokens, output_tokens, cost_usd)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.conn.Exec(query,
		rec.Suite,
		rec.StartedAt,
		rec.FinishedAt,
		rec.Passed,
		rec.Failed,
		rec.HealedBy,
		rec.TotalActions,
		rec.TokenUsage.InputTokens,
		rec.TokenUsage.OutputTokens,
		rec.TokenUsage.CostUSD,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// History returns the most recent runs for suite, newest first. A limit
// of 0 or less defaults to 20.
func (s *RunStore) History(suite string, limit int) ([]types.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT suite, started_at, finished_at, passed, failed, healed_by, total_actions, input_tokens, output_tokens, cost_usd
		FROM runs
		WHERE suite = ?
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := s.conn.Query(query, suite, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	var records []types.RunRecord
	for rows.Next() {
		var rec types.RunRecord
		var healedBy sql.NullString
		if err := rows.Scan(
			&rec.Suite,
			&rec.StartedAt,
			&rec.FinishedAt,
			&rec.Passed,
			&rec.Failed,
			&healedBy,
			&rec.TotalActions,
			&rec.TokenUsage.InputTokens,
			&rec.TokenUsage.OutputTokens,
			&rec.TokenUsage.CostUSD,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		rec.HealedBy = healedBy.String
		records = append(records, rec)
	}
	return records, nil
}

// AllSuites returns the distinct suite names with at least one recorded run.
func (s *RunStore) AllSuites() ([]string, error) {
	rows, err := s.conn.Query(`SELECT DISTINCT suite FROM runs ORDER BY suite ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suites: %w", err)
	}
	defer rows.Close()

	var suites []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan suite name: %w", err)
		}
		suites = append(suites, name)
	}
	return suites, nil
}
