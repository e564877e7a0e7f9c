package tracking

const createTableSQL = `
CREATE TABLE IF NOT EXISTS conversions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME DEFAULT (datetime('now')),
	mode TEXT NOT NULL,
	source TEXT NOT NULL,
	filters TEXT NOT NULL,
	eslevel INTEGER NOT NULL,
	input_bytes INTEGER NOT NULL,
	output_bytes INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	exec_time_ms INTEGER NOT NULL
);
`

const cleanupSQL = `DELETE FROM conversions WHERE timestamp < datetime('now', '-90 days');`

const insertSQL = `
INSERT INTO conversions (mode, source, filters, eslevel, input_bytes, output_bytes, failed, exec_time_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`

const summarySQL = `
SELECT
	COUNT(*) as total,
	COALESCE(SUM(failed), 0) as failures,
	COALESCE(SUM(input_bytes), 0) as input_bytes,
	COALESCE(SUM(output_bytes), 0) as output_bytes,
	COALESCE(SUM(exec_time_ms), 0) as total_time_ms
FROM conversions;
`

const recentSQL = `
SELECT mode, source, filters, eslevel, input_bytes, output_bytes, failed, exec_time_ms, timestamp
FROM conversions
ORDER BY id DESC
LIMIT ?;
`

const byFiltersSQL = `
SELECT
	filters,
	COUNT(*) as count,
	COALESCE(SUM(failed), 0) as failures,
	COALESCE(AVG(exec_time_ms), 0) as avg_time_ms
FROM conversions
GROUP BY filters
ORDER BY count DESC
LIMIT ?;
`

// Summary holds aggregate conversion stats.
type Summary struct {
	Total       int
	Failures    int
	InputBytes  int64
	OutputBytes int64
	TotalTimeMs int64
}

// Record is one tracked conversion.
type Record struct {
	Mode        string // "batch", "cgi" or "server"
	Source      string // input file name, "-" for stdin, request path for pages
	Filters     string // comma separated, in application order
	ESLevel     int
	InputBytes  int
	OutputBytes int
	Failed      bool
	ExecTimeMs  int64
	Timestamp   string
}

// FilterStats aggregates conversions per filter combination.
type FilterStats struct {
	Filters   string
	Count     int
	Failures  int
	AvgTimeMs float64
}
