// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps a local record of finished runs in SQLite so past
// posts can be listed without asking the channel.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/newsdesk/pkg/types"
)

// ErrDisabled is returned by Open when no archive path is configured.
var ErrDisabled = errors.New("archive disabled")

// DefaultListLimit bounds List when the caller passes a non-positive limit.
const DefaultListLimit = 20

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Run is one archived run as stored in the runs table.
type Run struct {
	ID          string        `json:"id" yaml:"id"`
	Topic       string        `json:"topic" yaml:"topic"`
	StartedAt   time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time     `json:"finished_at" yaml:"finished_at"`
	Status      string        `json:"status" yaml:"status"`
	Degraded    bool          `json:"degraded" yaml:"degraded"`
	AbortReason string        `json:"abort_reason,omitempty" yaml:"abort_reason,omitempty"`
	Snippets    int           `json:"snippets" yaml:"snippets"`
	MessageID   int           `json:"message_id,omitempty" yaml:"message_id,omitempty"`
	Message     string        `json:"message" yaml:"message"`
	Stages      []StageRecord `json:"stages" yaml:"stages"`
}

// StageRecord is the stored form of a stage result.
type StageRecord struct {
	Stage string `json:"stage" yaml:"stage"`
	Model string `json:"model" yaml:"model"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Store manages the archive database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive database at cfg.Path and creates the
// schema if it does not exist. An empty path returns ErrDisabled.
func Open(cfg types.ArchiveConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, ErrDisabled
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			status TEXT NOT NULL,
			degraded INTEGER NOT NULL,
			abort_reason TEXT,
			snippets INTEGER NOT NULL,
			message_id INTEGER,
			message TEXT,
			stages TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores the outcome of one run. Recording the same run id twice
// replaces the earlier row.
func (s *Store) Record(ctx context.Context, report types.RunReport) error {
	stages := make([]StageRecord, 0, len(report.Stages))
	for _, st := range report.Stages {
		rec := StageRecord{Stage: st.Stage, Model: st.Model}
		if st.Err != nil {
			rec.Error = st.Err.Error()
		}
		stages = append(stages, rec)
	}
	stagesJSON, err := json.Marshal(stages)
	if err != nil {
		return fmt.Errorf("marshaling stages: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs
			(id, topic, started_at, finished_at, status, degraded, abort_reason, snippets, message_id, message, stages)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.Topic,
		report.StartedAt.UTC().Format(timeLayout),
		report.FinishedAt.UTC().Format(timeLayout),
		report.Status(),
		boolToInt(report.Degraded()),
		report.AbortReason,
		report.Research.Snippets,
		report.Publish.MessageID,
		report.Message,
		string(stagesJSON),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", report.RunID, err)
	}
	return nil
}

// List returns up to limit runs, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, started_at, finished_at, status, degraded,
			COALESCE(abort_reason, ''), snippets, COALESCE(message_id, 0),
			COALESCE(message, ''), COALESCE(stages, '[]')
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
			degraded          int
			stagesJSON        string
		)
		if err := rows.Scan(&r.ID, &r.Topic, &started, &finished, &r.Status, &degraded,
			&r.AbortReason, &r.Snippets, &r.MessageID, &r.Message, &stagesJSON); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parsing started_at of %s: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("parsing finished_at of %s: %w", r.ID, err)
		}
		r.Degraded = degraded != 0
		if err := json.Unmarshal([]byte(stagesJSON), &r.Stages); err != nil {
			return nil, fmt.Errorf("decoding stages of %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
