// Package index persists scan runs and their detected sequences to a
// SQLite database, backing the --index flag and the history command.
package index

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/seqscan/internal/seq"
)

//go:embed schema.sql
var schemaSQL string

// ScanRecord is the stored summary of one scan run.
type ScanRecord struct {
	ID            string
	CreatedAt     time.Time
	Roots         []string
	Recursive     bool
	Mask          string
	MinLen        int
	ElapsedMS     float64
	SequenceCount int
	ErrorCount    int
}

// Store manages the SQLite scan index
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the index database at dbPath and
// initializes the schema. ":memory:" yields an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}

	// busy_timeout first so subsequent statements wait on locks instead of
	// failing when another seqscan process writes concurrently.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveScan records one scan run and its sequences in a single transaction,
// returning the generated run ID.
func (s *Store) SaveScan(ctx context.Context, rec ScanRecord, seqs []seq.Seq) (string, error) {
	id := uuid.New().String()

	rootsJSON, err := json.Marshal(rec.Roots)
	if err != nil {
		return "", fmt.Errorf("marshal roots: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO scans
		(id, created_at, roots, recursive, mask, min_len, elapsed_ms, sequence_count, error_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), string(rootsJSON), rec.Recursive, rec.Mask,
		rec.MinLen, rec.ElapsedMS, len(seqs), rec.ErrorCount)
	if err != nil {
		return "", fmt.Errorf("insert scan: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sequences
		(scan_id, pattern, first_frame, last_frame, padding, frame_count, missed_count, indices, missed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare sequence insert: %w", err)
	}
	defer stmt.Close()

	for _, sq := range seqs {
		indicesJSON, err := json.Marshal(sq.Indices)
		if err != nil {
			return "", fmt.Errorf("marshal indices: %w", err)
		}
		missedJSON, err := json.Marshal(sq.Missed)
		if err != nil {
			return "", fmt.Errorf("marshal missed: %w", err)
		}
		_, err = stmt.ExecContext(ctx, id, sq.Pattern, sq.Start, sq.End,
			sq.Padding, sq.Len(), len(sq.Missed), string(indicesJSON), string(missedJSON))
		if err != nil {
			return "", fmt.Errorf("insert sequence %q: %w", sq.Pattern, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// ListScans returns the most recent scan records, newest first.
// limit <= 0 means no limit.
func (s *Store) ListScans(ctx context.Context, limit int) ([]ScanRecord, error) {
	query := `SELECT id, created_at, roots, recursive, mask, min_len, elapsed_ms, sequence_count, error_count
		FROM scans ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		var rec ScanRecord
		var rootsJSON string
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rootsJSON, &rec.Recursive,
			&rec.Mask, &rec.MinLen, &rec.ElapsedMS, &rec.SequenceCount, &rec.ErrorCount); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(rootsJSON), &rec.Roots); err != nil {
			return nil, fmt.Errorf("unmarshal roots for scan %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Sequences returns the sequences recorded for one scan run, in insertion
// order.
func (s *Store) Sequences(ctx context.Context, scanID string) ([]seq.Seq, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT pattern, first_frame, last_frame, padding, indices, missed
		FROM sequences WHERE scan_id = ? ORDER BY id`, scanID)
	if err != nil {
		return nil, fmt.Errorf("query sequences: %w", err)
	}
	defer rows.Close()

	var seqs []seq.Seq
	for rows.Next() {
		var sq seq.Seq
		var indicesJSON, missedJSON string
		if err := rows.Scan(&sq.Pattern, &sq.Start, &sq.End, &sq.Padding, &indicesJSON, &missedJSON); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(indicesJSON), &sq.Indices); err != nil {
			return nil, fmt.Errorf("unmarshal indices: %w", err)
		}
		if err := json.Unmarshal([]byte(missedJSON), &sq.Missed); err != nil {
			return nil, fmt.Errorf("unmarshal missed: %w", err)
		}
		seqs = append(seqs, sq)
	}
	return seqs, rows.Err()
}
