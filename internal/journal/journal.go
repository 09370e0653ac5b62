// Package journal keeps a history of SDK operations in a local SQLite database.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/adamancini/sdkctl/internal/types"
)

// FileName is the database file inside the project's .sdkctl directory.
const FileName = "history.db"

// Entry is one recorded operation.
type Entry struct {
	ID         int64        `json:"id" yaml:"id"`
	Action     types.Action `json:"action" yaml:"action"`
	Version    string       `json:"version,omitempty" yaml:"version,omitempty"`
	SDKPath    string       `json:"sdk_path,omitempty" yaml:"sdk_path,omitempty"`
	Packages   []string     `json:"packages,omitempty" yaml:"packages,omitempty"`
	Succeeded  bool         `json:"succeeded" yaml:"succeeded"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty"`
	DryRun     bool         `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time    `json:"finished_at" yaml:"finished_at"`
}

// Duration returns how long the operation ran.
func (e Entry) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}

// ListOptions filters List results.
type ListOptions struct {
	Action types.Action // empty for all actions
	Limit  int          // zero for no limit
}

// Journal stores entries in SQLite.
type Journal struct {
	db *sql.DB
}

// DefaultPath returns the journal location for a project.
func DefaultPath(projectDir string) string {
	return filepath.Join(projectDir, ".sdkctl", FileName)
}

// Open opens or creates the journal at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.Initialize(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Initialize creates the database schema
func (j *Journal) Initialize(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS operations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			version TEXT NOT NULL DEFAULT '',
			sdk_path TEXT NOT NULL DEFAULT '',
			packages TEXT NOT NULL DEFAULT '[]',
			succeeded BOOLEAN NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			dry_run BOOLEAN NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create operations table: %w", err)
	}
	return nil
}

// Record appends e and sets its ID.
func (j *Journal) Record(ctx context.Context, e *Entry) error {
	if err := e.Action.Validate(); err != nil {
		return err
	}

	packages, err := json.Marshal(nonNil(e.Packages))
	if err != nil {
		return fmt.Errorf("failed to encode packages: %w", err)
	}

	result, err := j.db.ExecContext(ctx, `
		INSERT INTO operations (
			action, version, sdk_path, packages, succeeded, error, dry_run,
			started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(e.Action), e.Version, e.SDKPath, string(packages), e.Succeeded, e.Error, e.DryRun,
		formatTime(e.StartedAt), formatTime(e.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert operation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get operation id: %w", err)
	}
	e.ID = id
	return nil
}

// List returns entries newest first.
func (j *Journal) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	query := `
		SELECT id, action, version, sdk_path, packages, succeeded, error, dry_run,
			   started_at, finished_at
		FROM operations`
	var args []interface{}
	if opts.Action != "" {
		query += ` WHERE action = ?`
		args = append(args, string(opts.Action))
	}
	query += ` ORDER BY id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                   Entry
			action, packages    string
			startedAt, finished string
		)
		err := rows.Scan(
			&e.ID, &action, &e.Version, &e.SDKPath, &packages, &e.Succeeded, &e.Error, &e.DryRun,
			&startedAt, &finished,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}

		e.Action = types.Action(action)
		if err := json.Unmarshal([]byte(packages), &e.Packages); err != nil {
			return nil, fmt.Errorf("failed to decode packages of operation %d: %w", e.ID, err)
		}
		if e.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("operation %d: %w", e.ID, err)
		}
		if e.FinishedAt, err = parseTime(finished); err != nil {
			return nil, fmt.Errorf("operation %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operations: %w", err)
	}

	return entries, nil
}

// Last returns the newest entry for action, or nil when there is none.
func (j *Journal) Last(ctx context.Context, action types.Action) (*Entry, error) {
	entries, err := j.List(ctx, ListOptions{Action: action, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	return j.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
