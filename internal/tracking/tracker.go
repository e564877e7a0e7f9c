package tracking

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Tracker logs conversions in SQLite.
type Tracker struct {
	db *sql.DB
}

// NewTracker opens or creates a SQLite database for tracking.
func NewTracker(dbPath string) (*Tracker, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &Tracker{db: db}, nil
}

// Track records one conversion.
func (t *Tracker) Track(r Record) error {
	failed := 0
	if r.Failed {
		failed = 1
	}
	if _, err := t.db.Exec(insertSQL, r.Mode, r.Source, r.Filters, r.ESLevel, r.InputBytes, r.OutputBytes, failed, r.ExecTimeMs); err != nil {
		return fmt.Errorf("track: %w", err)
	}

	// Cleanup old records
	t.db.Exec(cleanupSQL)

	return nil
}

// GetSummary returns aggregate tracking stats.
func (t *Tracker) GetSummary() (*Summary, error) {
	var s Summary
	err := t.db.QueryRow(summarySQL).Scan(&s.Total, &s.Failures, &s.InputBytes, &s.OutputBytes, &s.TotalTimeMs)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	return &s, nil
}

// GetRecent returns the last n tracked conversions, newest first.
func (t *Tracker) GetRecent(n int) ([]Record, error) {
	rows, err := t.db.Query(recentSQL, n)
	if err != nil {
		return nil, fmt.Errorf("recent: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var failed int
		if err := rows.Scan(&r.Mode, &r.Source, &r.Filters, &r.ESLevel, &r.InputBytes, &r.OutputBytes, &failed, &r.ExecTimeMs, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("recent scan: %w", err)
		}
		r.Failed = failed != 0
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetByFilters returns usage per filter combination, most used first.
func (t *Tracker) GetByFilters(limit int) ([]FilterStats, error) {
	rows, err := t.db.Query(byFiltersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("by filters: %w", err)
	}
	defer rows.Close()

	var stats []FilterStats
	for rows.Next() {
		var s FilterStats
		if err := rows.Scan(&s.Filters, &s.Count, &s.Failures, &s.AvgTimeMs); err != nil {
			return nil, fmt.Errorf("by filters scan: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Close closes the database connection.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// DBPath resolves the tracking database path.
func DBPath(configPath string) string {
	if p := os.Getenv("RUBY2JS_DEMO_DB_PATH"); p != "" {
		return p
	}
	if configPath != "" {
		return configPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".local", "share", "ruby2js-demo", "conversions.db")
}
