// Package store persists scan history to a local SQLite database, serves
// cached reads for the status entrypoint and fits the growth prediction from
// historical totals.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fenilsonani/storage-intel/internal/model"
)

// DatabaseFile is the store's file name under the state directory.
const DatabaseFile = "scan_cache.db"

// historyLimit is how many scan rows survive eviction.
const historyLimit = 10

// mtimeTolerance absorbs filesystem timestamp rounding when comparing a
// path's mtime against its checkpoint.
const mtimeTolerance = 0.01

// ErrNoScans reports an empty history.
var ErrNoScans = errors.New("no cached scan results")

const schema = `
CREATE TABLE IF NOT EXISTS scan_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	scan_time TEXT NOT NULL,
	items_json TEXT NOT NULL,
	tree_json TEXT NOT NULL,
	metrics_json TEXT NOT NULL,
	total_bytes INTEGER NOT NULL,
	duration_seconds REAL NOT NULL,
	signature TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS scan_state (
	path TEXT PRIMARY KEY,
	crawl_status TEXT,
	last_mtime REAL,
	size_bytes INTEGER,
	last_scan_ts TEXT
);
CREATE TABLE IF NOT EXISTS scan_meta (
	key TEXT PRIMARY KEY,
	value TEXT
);
`

// Store wraps the scan-history database. Open one per entrypoint; the
// database serializes concurrent writers.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database under stateDir.
func Open(stateDir string) (*Store, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(stateDir, DatabaseFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open scan cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize scan cache: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveScan inserts one history row and evicts everything beyond the
// retention limit.
func (s *Store) SaveScan(rec model.ScanRecord) error {
	itemsJSON, err := json.Marshal(rec.Items)
	if err != nil {
		return err
	}
	treeJSON, err := json.Marshal(rec.Tree)
	if err != nil {
		return err
	}
	metricsJSON, err := json.Marshal(rec.Metrics)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`INSERT INTO scan_results (scan_time, items_json, tree_json, metrics_json, total_bytes, duration_seconds, signature)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ScanTime.Format(time.RFC3339), string(itemsJSON), string(treeJSON), string(metricsJSON),
		rec.TotalBytes, rec.DurationSecs, rec.Signature,
	)
	if err != nil {
		return fmt.Errorf("failed to save scan: %w", err)
	}

	_, err = s.db.Exec(
		`DELETE FROM scan_results WHERE id NOT IN (SELECT id FROM scan_results ORDER BY id DESC LIMIT ?)`,
		historyLimit,
	)
	return err
}

// LatestScan returns the most recent history row, or ErrNoScans.
func (s *Store) LatestScan() (*model.ScanRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, scan_time, items_json, tree_json, metrics_json, total_bytes, duration_seconds, signature
		 FROM scan_results ORDER BY id DESC LIMIT 1`)
	return scanRow(row)
}

// History returns up to limit rows, newest first.
func (s *Store) History(limit int) ([]model.ScanRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, scan_time, items_json, tree_json, metrics_json, total_bytes, duration_seconds, signature
		 FROM scan_results ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ScanRecord
	for rows.Next() {
		rec, err := scanRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*model.ScanRecord, error) {
	var rec model.ScanRecord
	var scanTime, itemsJSON, treeJSON, metricsJSON string

	err := row.Scan(&rec.ID, &scanTime, &itemsJSON, &treeJSON, &metricsJSON,
		&rec.TotalBytes, &rec.DurationSecs, &rec.Signature)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoScans
	}
	if err != nil {
		return nil, err
	}

	if t, err := time.Parse(time.RFC3339, scanTime); err == nil {
		rec.ScanTime = t
	}
	if err := json.Unmarshal([]byte(itemsJSON), &rec.Items); err != nil {
		return nil, fmt.Errorf("corrupt items row: %w", err)
	}
	if err := json.Unmarshal([]byte(treeJSON), &rec.Tree); err != nil {
		return nil, fmt.Errorf("corrupt tree row: %w", err)
	}
	if err := json.Unmarshal([]byte(metricsJSON), &rec.Metrics); err != nil {
		return nil, fmt.Errorf("corrupt metrics row: %w", err)
	}
	return &rec, nil
}

func scanRows(rows *sql.Rows) (*model.ScanRecord, error) {
	return scanRow(rows)
}

// ShouldRescan compares a path's current mtime against its checkpoint.
// Unknown paths always rescan.
func (s *Store) ShouldRescan(path string, currentMtime float64) bool {
	var lastMtime sql.NullFloat64
	err := s.db.QueryRow(`SELECT last_mtime FROM scan_state WHERE path = ?`, path).Scan(&lastMtime)
	if err != nil || !lastMtime.Valid {
		return true
	}
	return math.Abs(lastMtime.Float64-currentMtime) > mtimeTolerance
}

// UpdateState records a path's crawl checkpoint.
func (s *Store) UpdateState(path, crawlStatus string, mtime float64, sizeBytes int64) error {
	_, err := s.db.Exec(
		`INSERT INTO scan_state (path, crawl_status, last_mtime, size_bytes, last_scan_ts)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			crawl_status = excluded.crawl_status,
			last_mtime = excluded.last_mtime,
			size_bytes = excluded.size_bytes,
			last_scan_ts = excluded.last_scan_ts`,
		path, crawlStatus, mtime, sizeBytes, time.Now().Format(time.RFC3339),
	)
	return err
}

// SetMeta stores one key/value pair.
func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO scan_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// GetMeta reads one value; empty string when absent.
func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM scan_meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// PredictGrowth fits a linear byte rate over the stored history and projects
// when the disk fills. Needs at least two rows and a positive rate;
// otherwise no prediction is made.
func (s *Store) PredictGrowth(diskFree int64) (*model.GrowthPrediction, error) {
	rows, err := s.db.Query(`SELECT scan_time, total_bytes FROM scan_results ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type sample struct {
		when  time.Time
		total int64
	}
	var samples []sample
	for rows.Next() {
		var ts string
		var total int64
		if err := rows.Scan(&ts, &total); err != nil {
			return nil, err
		}
		when, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			continue
		}
		samples = append(samples, sample{when, total})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(samples) < 2 {
		return nil, nil
	}

	first, last := samples[0], samples[len(samples)-1]
	daysSpan := last.when.Sub(first.when).Hours() / 24
	if daysSpan <= 0 {
		return nil, nil
	}

	rate := float64(last.total-first.total) / daysSpan
	if rate <= 0 {
		return nil, nil
	}

	return &model.GrowthPrediction{
		RateBytesPerDay: rate,
		DaysUntilFull:   float64(diskFree) / rate,
		SampleCount:     len(samples),
	}, nil
}
