package database

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"imagecert/logging"
	"imagecert/types"

	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase opens the run history database and creates its tables
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		submission TEXT NOT NULL,
		generated_at TEXT NOT NULL,
		total INTEGER,
		passed INTEGER,
		failed INTEGER,
		errored INTEGER
	);
	CREATE TABLE IF NOT EXISTS case_results (
		run_id TEXT NOT NULL REFERENCES runs(id),
		case_name TEXT NOT NULL,
		metric TEXT NOT NULL,
		value REAL,
		passed INTEGER,
		UNIQUE(run_id, case_name, metric)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_submission ON runs(submission);
	CREATE INDEX IF NOT EXISTS idx_case_results_run ON case_results(run_id);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create history tables: %w", err)
	}

	logging.DebugLog("History database ready at %s", dbPath)
	return db, nil
}

// OpenDatabase opens an existing database connection
func OpenDatabase(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite3", dbPath)
}

// RunRecord is one stored run summary
type RunRecord struct {
	ID          string
	Submission  string
	GeneratedAt time.Time
	Total       int
	Passed      int
	Failed      int
	Errored     int
}

// CaseMetric is one stored metric value of a case
type CaseMetric struct {
	CaseName string
	Metric   string
	Value    types.Score
	// Passed is nil for metrics without a threshold
	Passed *bool
}

// RecordRun stores the summary and every metric value of a report in one transaction
func RecordRun(db *sql.DB, report *types.Report) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("cannot start transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs (id, submission, generated_at, total, passed, failed, errored)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Submission, report.GeneratedAt.UTC().Format(time.RFC3339),
		report.Summary.Total, report.Summary.Passed, report.Summary.Failed, report.Summary.Errored)
	if err != nil {
		return fmt.Errorf("cannot insert run %s: %w", report.RunID, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO case_results (run_id, case_name, metric, value, passed)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("cannot prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range report.Cases {
		for _, name := range report.MetricOrder {
			score, ok := c.Metrics[name]
			if !ok {
				continue
			}
			var passed interface{}
			if p, judged := c.Passed[name]; judged {
				passed = p
			}
			if _, err := stmt.Exec(report.RunID, c.Name, name, scoreValue(score), passed); err != nil {
				return fmt.Errorf("cannot insert %s/%s: %w", c.Name, name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cannot commit run %s: %w", report.RunID, err)
	}
	logging.DebugLog("Recorded run %s with %d cases", report.RunID, len(report.Cases))
	return nil
}

// ListRuns returns stored runs newest first, optionally filtered by submission.
// A limit of zero or less returns every run.
func ListRuns(db *sql.DB, submission string, limit int) ([]RunRecord, error) {
	query := `SELECT id, submission, generated_at, total, passed, failed, errored FROM runs`
	var args []interface{}
	if submission != "" {
		query += ` WHERE submission = ?`
		args = append(args, submission)
	}
	query += ` ORDER BY generated_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("cannot list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var generated string
		if err := rows.Scan(&r.ID, &r.Submission, &generated, &r.Total, &r.Passed, &r.Failed, &r.Errored); err != nil {
			return nil, fmt.Errorf("cannot read run: %w", err)
		}
		r.GeneratedAt, err = time.Parse(time.RFC3339, generated)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q for run %s: %w", generated, r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRunMetrics returns the stored metric values of one run ordered by case
func GetRunMetrics(db *sql.DB, runID string) ([]CaseMetric, error) {
	rows, err := db.Query(`SELECT case_name, metric, value, passed FROM case_results
		WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("cannot query run %s: %w", runID, err)
	}
	defer rows.Close()

	var metrics []CaseMetric
	for rows.Next() {
		var m CaseMetric
		var value sql.NullFloat64
		var passed sql.NullBool
		if err := rows.Scan(&m.CaseName, &m.Metric, &value, &passed); err != nil {
			return nil, fmt.Errorf("cannot read metric: %w", err)
		}
		m.Value = types.Score(math.NaN())
		if value.Valid {
			m.Value = types.Score(value.Float64)
		}
		if passed.Valid {
			p := passed.Bool
			m.Passed = &p
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// scoreValue maps undefined scores to NULL. SQLite stores infinities natively.
func scoreValue(s types.Score) interface{} {
	if !s.IsDefined() {
		return nil
	}
	return float64(s)
}
