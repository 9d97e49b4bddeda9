// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists pipeline runs in SQLite and exports them as
// Markdown, YAML, or JSON.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/curriculum-engine/internal/logging"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// ErrNotFound is returned when no run has the requested ID.
var ErrNotFound = errors.New("run not found")

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const defaultListLimit = 20

// Run is one archived pipeline run.
type Run struct {
	ID        string              `json:"id" yaml:"id"`
	CreatedAt time.Time           `json:"created_at" yaml:"created_at"`
	State     types.PipelineState `json:"state" yaml:"state"`
}

// Summary is the listing view of a run.
type Summary struct {
	ID          string                 `json:"id" yaml:"id"`
	Topic       string                 `json:"topic" yaml:"topic"`
	CreatedAt   time.Time              `json:"created_at" yaml:"created_at"`
	Stage       types.Stage            `json:"stage" yaml:"stage"`
	Source      types.GenerationSource `json:"source" yaml:"source"`
	Backend     string                 `json:"backend,omitempty" yaml:"backend,omitempty"`
	NeedsReview bool                   `json:"needs_review" yaml:"needs_review"`
}

// ListOptions filters List.
type ListOptions struct {
	// Query matches topic or curriculum text, case-insensitively.
	Query string

	// Limit caps the result count. Zero uses the default (20).
	Limit int
}

// Store manages the run archive database.
type Store struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

// NewStore opens or creates the archive database at cfg.Path and creates
// the schema if it does not exist.
func NewStore(cfg types.ArchiveConfig, log *zap.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("archive path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, log: logging.Named(log, "archive"), now: time.Now}
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
			created_at TEXT NOT NULL,
			stage TEXT NOT NULL,
			source TEXT NOT NULL,
			backend TEXT,
			needs_review INTEGER NOT NULL DEFAULT 0,
			curriculum TEXT NOT NULL,
			state TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_topic ON runs(topic)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save archives a finished pipeline state under a new ID.
func (s *Store) Save(ctx context.Context, st types.PipelineState) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		State:     st,
	}

	data, err := json.Marshal(st)
	if err != nil {
		return Run{}, fmt.Errorf("marshaling state: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, topic, created_at, stage, source, backend, needs_review, curriculum, state)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, st.Topic, run.CreatedAt.Format(timeLayout), string(st.Stage),
		string(st.Curriculum.Source), st.Curriculum.Backend, st.NeedsReview,
		st.Draft(), string(data),
	)
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}

	s.log.Debug("run saved", zap.String("id", run.ID), zap.String("topic", st.Topic))
	return run, nil
}

// Get returns the run with the given ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	var (
		created string
		state   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, state FROM runs WHERE id = ?`, id,
	).Scan(&created, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("querying run %s: %w", id, err)
	}

	run := Run{ID: id}
	if run.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return Run{}, fmt.Errorf("parsing created_at of run %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(state), &run.State); err != nil {
		return Run{}, fmt.Errorf("decoding run %s: %w", id, err)
	}
	return run, nil
}

// List returns run summaries, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT id, topic, created_at, stage, source, backend, needs_review
		FROM runs WHERE 1=1`)
	if q := strings.TrimSpace(opts.Query); q != "" {
		qb.WriteString(` AND (topic LIKE ? ESCAPE '\' OR curriculum LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(q) + "%"
		args = append(args, pattern, pattern)
	}
	qb.WriteString(` ORDER BY created_at DESC, rowid DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum     Summary
			created string
			stage   string
			source  string
			backend sql.NullString
		)
		if err := rows.Scan(&sum.ID, &sum.Topic, &created, &stage, &source, &backend, &sum.NeedsReview); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		sum.CreatedAt, _ = time.Parse(timeLayout, created)
		sum.Stage = types.Stage(stage)
		sum.Source = types.GenerationSource(source)
		sum.Backend = backend.String
		out = append(out, sum)
	}
	return out, rows.Err()
}

// escapeLike escapes LIKE wildcards so the query matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
