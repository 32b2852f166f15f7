package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/blackwell-systems/perfadvisor/internal/metric"
	"github.com/blackwell-systems/perfadvisor/internal/report"
)

// Run is a persisted summary of one analysis run.
type Run struct {
	ID              int64
	CreatedAt       time.Time
	Metrics         int
	Recommendations int
	Critical        int
	High            int
	Medium          int
	Low             int
	Phases          int
	NotScheduled    int
	AutoApplied     int
}

// SaveRun stores a report summary plus the full report JSON.
func (db *DB) SaveRun(rep *report.Report) (int64, error) {
	raw, err := json.Marshal(rep)
	if err != nil {
		return 0, err
	}

	res, err := db.conn.Exec(`
		INSERT INTO runs (
			created_at, metric_count, rec_count,
			critical, high, medium, low,
			phases, not_scheduled, auto_applied, report_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.GeneratedAt.UTC().Format(time.RFC3339),
		rep.Summary.Metrics,
		rep.Summary.Recommendations,
		rep.Summary.BySeverity[metric.SeverityCritical],
		rep.Summary.BySeverity[metric.SeverityHigh],
		rep.Summary.BySeverity[metric.SeverityMedium],
		rep.Summary.BySeverity[metric.SeverityLow],
		len(rep.Plan.Phases),
		rep.Summary.NotScheduled,
		len(rep.AutoApplied),
		string(raw),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.conn.Query(`
		SELECT id, created_at, metric_count, rec_count,
		       critical, high, medium, low,
		       phases, not_scheduled, auto_applied
		FROM runs
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRunN returns the run n positions back from the most recent,
// where 0 is the latest run. Returns nil if no such run exists.
func (db *DB) GetRunN(n int) (*Run, error) {
	row := db.conn.QueryRow(`
		SELECT id, created_at, metric_count, rec_count,
		       critical, high, medium, low,
		       phases, not_scheduled, auto_applied
		FROM runs
		ORDER BY id DESC
		LIMIT 1 OFFSET ?`, n)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// GetRunReport returns the stored report for a run ID, or nil if the run
// does not exist.
func (db *DB) GetRunReport(id int64) (*report.Report, error) {
	var raw string
	err := db.conn.QueryRow("SELECT report_json FROM runs WHERE id = ?", id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rep report.Report
	if err := json.Unmarshal([]byte(raw), &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var created string
	err := row.Scan(
		&r.ID, &created, &r.Metrics, &r.Recommendations,
		&r.Critical, &r.High, &r.Medium, &r.Low,
		&r.Phases, &r.NotScheduled, &r.AutoApplied,
	)
	if err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = ts
	return &r, nil
}
