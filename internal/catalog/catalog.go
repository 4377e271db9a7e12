// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog keeps the history of processed batches in SQLite.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-podcast/pkg/types"
)

// ErrNotFound reports an unknown batch ID.
var ErrNotFound = errors.New("batch not found")

const defaultLimit = 20

// Catalog manages the batch history database.
type Catalog struct {
	db *sql.DB
}

// Open opens or creates the database at path and creates the schema if it
// does not exist.
func Open(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			items INTEGER NOT NULL,
			failures INTEGER NOT NULL,
			topics TEXT,
			synthesis TEXT,
			synthesis_audio TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS citations (
			batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			source TEXT NOT NULL,
			topic TEXT NOT NULL,
			audio TEXT,
			errors TEXT,
			PRIMARY KEY (batch_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_batches_started_at ON batches(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_citations_source ON citations(source)`,
	}

	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a completed batch, replacing an earlier record with the
// same ID.
func (c *Catalog) Record(ctx context.Context, rec types.BatchRecord) error {
	if rec.Response == nil {
		return fmt.Errorf("batch %s has no response", rec.ID)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	topicsJSON, _ := json.Marshal(rec.Topics)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (id, started_at, duration_ms, items, failures, topics, synthesis, synthesis_audio)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			started_at=excluded.started_at, duration_ms=excluded.duration_ms,
			items=excluded.items, failures=excluded.failures, topics=excluded.topics,
			synthesis=excluded.synthesis, synthesis_audio=excluded.synthesis_audio`,
		rec.ID, rec.StartedAt.UTC().Format(time.RFC3339Nano), rec.Duration.Milliseconds(),
		rec.Items, rec.Failures, string(topicsJSON),
		rec.Response.Synthesis.Text, nullable(rec.Response.Synthesis.AudioFilename),
	)
	if err != nil {
		return fmt.Errorf("upserting batch: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM citations WHERE batch_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("deleting old citations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO citations (batch_id, position, source, topic, audio, errors) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, cit := range rec.Response.Citations {
		var errs any
		if len(cit.Errors) > 0 {
			b, _ := json.Marshal(cit.Errors)
			errs = string(b)
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, i, cit.Source, cit.Topic, nullable(cit.Audio), errs); err != nil {
			return fmt.Errorf("inserting citation %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// List returns the most recent batches without their citations. A limit
// of zero or less uses the default of 20.
func (c *Catalog) List(ctx context.Context, limit int) ([]types.BatchRecord, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, items, failures, topics
		 FROM batches ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close()

	var out []types.BatchRecord
	for rows.Next() {
		rec, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns one batch with its full response.
func (c *Catalog) Get(ctx context.Context, id string) (types.BatchRecord, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, started_at, duration_ms, items, failures, topics, synthesis, synthesis_audio
		 FROM batches WHERE id = ?`, id)

	var (
		rec            types.BatchRecord
		started        string
		durationMS     int64
		topics         sql.NullString
		synthesis      sql.NullString
		synthesisAudio sql.NullString
	)
	err := row.Scan(&rec.ID, &started, &durationMS, &rec.Items, &rec.Failures, &topics, &synthesis, &synthesisAudio)
	if errors.Is(err, sql.ErrNoRows) {
		return types.BatchRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return types.BatchRecord{}, fmt.Errorf("querying batch %s: %w", id, err)
	}
	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	rec.Topics = decodeStrings(topics)

	resp := &types.BatchResponse{
		BatchID:   rec.ID,
		Synthesis: types.SynthesisResult{Text: synthesis.String, AudioFilename: pointer(synthesisAudio)},
		Citations: []types.Citation{},
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT source, topic, audio, errors FROM citations WHERE batch_id = ? ORDER BY position`, id)
	if err != nil {
		return types.BatchRecord{}, fmt.Errorf("querying citations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cit types.Citation
		var audio, errs sql.NullString
		if err := rows.Scan(&cit.Source, &cit.Topic, &audio, &errs); err != nil {
			return types.BatchRecord{}, fmt.Errorf("scanning citation: %w", err)
		}
		cit.Audio = pointer(audio)
		cit.Errors = decodeStrings(errs)
		resp.Citations = append(resp.Citations, cit)
	}
	if err := rows.Err(); err != nil {
		return types.BatchRecord{}, err
	}

	rec.Response = resp
	return rec, nil
}

// BatchesForSource returns the IDs of batches that included source, most
// recent first.
func (c *Catalog) BatchesForSource(ctx context.Context, source string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT DISTINCT b.id FROM batches b JOIN citations c ON c.batch_id = b.id
		 WHERE c.source = ? ORDER BY b.started_at DESC`, source)
	if err != nil {
		return nil, fmt.Errorf("querying citations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ExportYAML writes the most recent batches, with responses, to w.
func (c *Catalog) ExportYAML(ctx context.Context, w io.Writer, limit int) error {
	list, err := c.List(ctx, limit)
	if err != nil {
		return err
	}
	full := make([]types.BatchRecord, 0, len(list))
	for _, r := range list {
		rec, err := c.Get(ctx, r.ID)
		if err != nil {
			return err
		}
		full = append(full, rec)
	}

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(full); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(s scanner) (types.BatchRecord, error) {
	var (
		rec        types.BatchRecord
		started    string
		durationMS int64
		topics     sql.NullString
	)
	if err := s.Scan(&rec.ID, &started, &durationMS, &rec.Items, &rec.Failures, &topics); err != nil {
		return types.BatchRecord{}, fmt.Errorf("scanning batch: %w", err)
	}
	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	rec.Topics = decodeStrings(topics)
	return rec, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func pointer(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func decodeStrings(ns sql.NullString) []string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil
	}
	return out
}
