// Package store persists the four record streams in SQLite. History is
// append-only: rows are inserted once and never updated or deleted, and the
// autoincrement id is the authoritative ordering. Upstream timestamps are
// display data only; they are never used to decide which record is "latest".
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mossburn/hk-conditions-monitor/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS warnings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	level TEXT NOT NULL,
	message TEXT NOT NULL,
	observed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rain (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	district TEXT NOT NULL,
	intensity TEXT NOT NULL,
	observed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS aqhi (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	station TEXT NOT NULL,
	category TEXT NOT NULL,
	value REAL NOT NULL,
	observed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS traffic (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	severity TEXT NOT NULL,
	description TEXT NOT NULL,
	observed_at TEXT NOT NULL
);
`

// Store is the append-only history for the four record streams.
type Store struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at path and ensures the schema
// exists. The parent directory is created when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append inserts one record into its stream's history. The database assigns
// the sequence id; the insert is atomic, so readers never observe a partial
// row.
func (s *Store) Append(rec domain.Record) error {
	observed := rec.ObservedAt().Format(time.RFC3339)

	var err error
	switch r := rec.(type) {
	case domain.WarningRecord:
		_, err = s.db.Exec(
			"INSERT INTO warnings(level, message, observed_at) VALUES (?, ?, ?)",
			r.Level, r.Message, observed)
	case *domain.WarningRecord:
		return s.Append(*r)
	case domain.RainRecord:
		_, err = s.db.Exec(
			"INSERT INTO rain(district, intensity, observed_at) VALUES (?, ?, ?)",
			r.District, r.Intensity, observed)
	case *domain.RainRecord:
		return s.Append(*r)
	case domain.AQHIRecord:
		_, err = s.db.Exec(
			"INSERT INTO aqhi(station, category, value, observed_at) VALUES (?, ?, ?, ?)",
			r.Station, r.Risk, r.Value, observed)
	case *domain.AQHIRecord:
		return s.Append(*r)
	case domain.TrafficRecord:
		_, err = s.db.Exec(
			"INSERT INTO traffic(severity, description, observed_at) VALUES (?, ?, ?)",
			r.Severity, r.Detail, observed)
	case *domain.TrafficRecord:
		return s.Append(*r)
	default:
		return fmt.Errorf("unknown record type %T", rec)
	}

	if err != nil {
		return fmt.Errorf("append to %s: %w", rec.Stream(), err)
	}
	return nil
}

// Latest returns the most recently appended record for a stream, or nil when
// the stream is empty.
func (s *Store) Latest(stream domain.Stream) (domain.Record, error) {
	records, err := s.History(stream, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// LatestTwo returns up to the two newest records for a stream, newest first.
func (s *Store) LatestTwo(stream domain.Stream) ([]domain.Record, error) {
	return s.History(stream, 2)
}

// History returns up to limit records for a stream, newest first by sequence
// id.
func (s *Store) History(stream domain.Stream, limit int) ([]domain.Record, error) {
	switch stream {
	case domain.StreamWarnings:
		return s.queryWarnings(limit)
	case domain.StreamRain:
		return s.queryRain(limit)
	case domain.StreamAQHI:
		return s.queryAQHI(limit)
	case domain.StreamTraffic:
		return s.queryTraffic(limit)
	default:
		return nil, fmt.Errorf("unknown stream %q", stream)
	}
}

// Snapshot returns the latest record per stream in one call, for dashboards.
func (s *Store) Snapshot() (domain.Snapshot, error) {
	var snap domain.Snapshot

	for _, stream := range domain.Streams() {
		rec, err := s.Latest(stream)
		if err != nil {
			return domain.Snapshot{}, err
		}
		if rec == nil {
			continue
		}
		switch r := rec.(type) {
		case domain.WarningRecord:
			snap.Warnings = &r
		case domain.RainRecord:
			snap.Rain = &r
		case domain.AQHIRecord:
			snap.AQHI = &r
		case domain.TrafficRecord:
			snap.Traffic = &r
		}
	}
	return snap, nil
}

func (s *Store) queryWarnings(limit int) ([]domain.Record, error) {
	rows, err := s.db.Query(
		"SELECT level, message, observed_at FROM warnings ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query warnings: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var rec domain.WarningRecord
		var observed string
		if err := rows.Scan(&rec.Level, &rec.Message, &observed); err != nil {
			return nil, fmt.Errorf("scan warnings row: %w", err)
		}
		if rec.Observed, err = parseStored(observed); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) queryRain(limit int) ([]domain.Record, error) {
	rows, err := s.db.Query(
		"SELECT district, intensity, observed_at FROM rain ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query rain: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var rec domain.RainRecord
		var observed string
		if err := rows.Scan(&rec.District, &rec.Intensity, &observed); err != nil {
			return nil, fmt.Errorf("scan rain row: %w", err)
		}
		if rec.Observed, err = parseStored(observed); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) queryAQHI(limit int) ([]domain.Record, error) {
	rows, err := s.db.Query(
		"SELECT station, category, value, observed_at FROM aqhi ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query aqhi: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var rec domain.AQHIRecord
		var observed string
		if err := rows.Scan(&rec.Station, &rec.Risk, &rec.Value, &observed); err != nil {
			return nil, fmt.Errorf("scan aqhi row: %w", err)
		}
		if rec.Observed, err = parseStored(observed); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) queryTraffic(limit int) ([]domain.Record, error) {
	rows, err := s.db.Query(
		"SELECT severity, description, observed_at FROM traffic ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query traffic: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var rec domain.TrafficRecord
		var observed string
		if err := rows.Scan(&rec.Severity, &rec.Detail, &observed); err != nil {
			return nil, fmt.Errorf("scan traffic row: %w", err)
		}
		if rec.Observed, err = parseStored(observed); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// parseStored reads back a timestamp this store wrote itself. Failure here
// means the history was corrupted outside this subsystem, which is an
// integrity error, not a runtime condition to absorb.
func parseStored(observed string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, observed)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt observed_at %q: %w", observed, err)
	}
	return t, nil
}
