// Package storage persists finished search rounds to a SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/rubiojr/gsuggest/pkg/coordinator"
	"github.com/rubiojr/gsuggest/pkg/db"
	"github.com/rubiojr/gsuggest/pkg/log"
)

// ErrNotFound is returned when a stored round does not exist.
var ErrNotFound = errors.New("round not found")

// RoundRecord is a stored round.
type RoundRecord struct {
	ID         string          `json:"id"`
	Generation uint64          `json:"generation"`
	Phrase     string          `json:"phrase"`
	Status     string          `json:"status"`
	Completed  int             `json:"completed"`
	Total      int             `json:"total"`
	Results    []string        `json:"results"`
	Regions    []string        `json:"regions"`
	Failures   []FailureRecord `json:"failures"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

type FailureRecord struct {
	Region  string `json:"region"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SuggestionHit is a full text search match.
type SuggestionHit struct {
	RoundID    string `json:"round_id"`
	Phrase     string `json:"phrase"`
	Suggestion string `json:"suggestion"`
}

// RecordFromSnapshot converts a round snapshot. regions are the ids the
// round queried, in catalog order.
func RecordFromSnapshot(s coordinator.Snapshot, regions []string) RoundRecord {
	rec := RoundRecord{
		Generation: s.Generation,
		Phrase:     s.Phrase,
		Status:     s.Status,
		Completed:  s.Completed,
		Total:      s.Total,
		Results:    s.Results,
		Regions:    regions,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
	for _, f := range s.Failures {
		rec.Failures = append(rec.Failures, FailureRecord{Region: f.RegionID, Kind: f.Kind, Message: f.Message})
	}
	return rec
}

// History is the round history database.
type History struct {
	db     *sql.DB
	logger *log.Logger
}

// Open opens (creating if needed) the database at dbPath and migrates it.
func Open(dbPath string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA temp_store = memory",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if err := db.InitializeDatabase(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &History{db: conn, logger: log.ForService("storage")}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

// SaveRound stores rec under a new id, which is returned. Suggestions keep
// their result order.
func (h *History) SaveRound(ctx context.Context, rec RoundRecord) (string, error) {
	id := uuid.NewString()

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				h.logger.Warnf("failed to rollback transaction: %v", err)
			}
		}
	}()

	var finished sql.NullTime
	if rec.FinishedAt != nil {
		finished = sql.NullTime{Time: rec.FinishedAt.UTC(), Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO rounds (id, generation, phrase, status, completed, total, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, int64(rec.Generation), rec.Phrase, rec.Status, rec.Completed, rec.Total, rec.StartedAt.UTC(), finished)
	if err != nil {
		return "", fmt.Errorf("inserting round: %w", err)
	}

	for i, s := range rec.Results {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO suggestions (round_id, position, text) VALUES (?, ?, ?)", id, i, s); err != nil {
			return "", fmt.Errorf("inserting suggestion %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO suggestions_fts (text, phrase, round_id) VALUES (?, ?, ?)", s, rec.Phrase, id); err != nil {
			return "", fmt.Errorf("indexing suggestion %d: %w", i, err)
		}
	}
	for _, r := range rec.Regions {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO round_regions (round_id, region) VALUES (?, ?)", id, r); err != nil {
			return "", fmt.Errorf("inserting region %s: %w", r, err)
		}
	}
	for _, f := range rec.Failures {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO region_failures (round_id, region, kind, message) VALUES (?, ?, ?, ?)",
			id, f.Region, f.Kind, f.Message); err != nil {
			return "", fmt.Errorf("inserting failure for %s: %w", f.Region, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing round: %w", err)
	}
	committed = true
	h.logger.Debugf("stored round %s (%q, %d suggestions)", id, rec.Phrase, len(rec.Results))
	return id, nil
}

// Recent returns the latest rounds, newest first, with their suggestions.
func (h *History) Recent(ctx context.Context, limit int) ([]RoundRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, generation, phrase, status, completed, total, started_at, finished_at
		FROM rounds
		ORDER BY started_at DESC, created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying rounds: %w", err)
	}

	var records []RoundRecord
	for rows.Next() {
		rec, err := scanRound(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	if err := rows.Close(); err != nil {
		h.logger.Warnf("failed to close rows: %v", err)
	}

	for i := range records {
		if err := h.loadDetails(ctx, &records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// Get returns one stored round.
func (h *History) Get(ctx context.Context, id string) (*RoundRecord, error) {
	row := h.db.QueryRowContext(ctx, `
		SELECT id, generation, phrase, status, completed, total, started_at, finished_at
		FROM rounds WHERE id = ?
	`, id)
	rec, err := scanRound(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if err := h.loadDetails(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Count returns the number of stored rounds.
func (h *History) Count(ctx context.Context) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rounds").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting rounds: %w", err)
	}
	return n, nil
}

// Search runs an FTS5 query over every stored suggestion, best match first.
func (h *History) Search(ctx context.Context, query string, limit int) ([]SuggestionHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT round_id, phrase, text
		FROM suggestions_fts
		WHERE suggestions_fts MATCH ?
		ORDER BY bm25(suggestions_fts)
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching suggestions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			h.logger.Warnf("failed to close rows: %v", err)
		}
	}()

	var hits []SuggestionHit
	for rows.Next() {
		var hit SuggestionHit
		if err := rows.Scan(&hit.RoundID, &hit.Phrase, &hit.Suggestion); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRound(s scanner) (RoundRecord, error) {
	var (
		rec        RoundRecord
		generation int64
		finished   sql.NullTime
	)
	err := s.Scan(&rec.ID, &generation, &rec.Phrase, &rec.Status, &rec.Completed, &rec.Total, &rec.StartedAt, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scanning round: %w", err)
	}
	rec.Generation = uint64(generation)
	if finished.Valid {
		t := finished.Time
		rec.FinishedAt = &t
	}
	return rec, nil
}

func (h *History) loadDetails(ctx context.Context, rec *RoundRecord) error {
	results, err := h.queryStrings(ctx, "SELECT text FROM suggestions WHERE round_id = ? ORDER BY position", rec.ID)
	if err != nil {
		return fmt.Errorf("loading suggestions for %s: %w", rec.ID, err)
	}
	rec.Results = results

	regions, err := h.queryStrings(ctx, "SELECT region FROM round_regions WHERE round_id = ? ORDER BY rowid", rec.ID)
	if err != nil {
		return fmt.Errorf("loading regions for %s: %w", rec.ID, err)
	}
	rec.Regions = regions

	rows, err := h.db.QueryContext(ctx,
		"SELECT region, kind, message FROM region_failures WHERE round_id = ? ORDER BY rowid", rec.ID)
	if err != nil {
		return fmt.Errorf("loading failures for %s: %w", rec.ID, err)
	}
	defer rows.Close()
	rec.Failures = nil
	for rows.Next() {
		var f FailureRecord
		if err := rows.Scan(&f.Region, &f.Kind, &f.Message); err != nil {
			return fmt.Errorf("scanning failure: %w", err)
		}
		rec.Failures = append(rec.Failures, f)
	}
	return rows.Err()
}

func (h *History) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
