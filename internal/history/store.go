// Package history records generation attempts in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/KaramelBytes/rams-cli/internal/history/migrations"
	"github.com/KaramelBytes/rams-cli/internal/rams"
)

// Entry is one recorded generation.
type Entry struct {
	ID               string        `json:"id"`
	Draft            string        `json:"draft"`
	Provider         string        `json:"provider"`
	Model            string        `json:"model"`
	Source           rams.Source   `json:"source"`
	Reason           string        `json:"reason,omitempty"`
	Repairs          []string      `json:"repairs"`
	RequestID        string        `json:"request_id,omitempty"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	Duration         time.Duration `json:"duration"`
	CreatedAt        time.Time     `json:"created_at"`
}

// FromOutcome builds an entry for a finished generation.
func FromOutcome(draft, provider string, out rams.Outcome) Entry {
	return Entry{
		Draft:            draft,
		Provider:         provider,
		Model:            out.Model,
		Source:           out.Source,
		Reason:           out.Reason,
		Repairs:          out.Repairs,
		RequestID:        out.RequestID,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
		Duration:         out.Duration,
	}
}

// Store is the SQLite-backed generation log.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates the database at path and applies pending migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	s := &Store{db: db, path: path, now: time.Now}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Path() string { return s.path }

func (s *Store) migrate(fsys embed.FS) error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var ups []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			version, s.now().UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Record stores e, filling in ID and CreatedAt when empty.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	if e.Repairs == nil {
		e.Repairs = []string{}
	}
	repairs, err := json.Marshal(e.Repairs)
	if err != nil {
		return e, fmt.Errorf("marshalling repairs: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO generations (id, draft, provider, model, source, reason, repairs, request_id,
			prompt_tokens, completion_tokens, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Draft, e.Provider, e.Model, string(e.Source), e.Reason, string(repairs), e.RequestID,
		e.PromptTokens, e.CompletionTokens, e.Duration.Milliseconds(), e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return e, fmt.Errorf("recording generation: %w", err)
	}
	return e, nil
}

// List returns the newest entries first. An empty draft lists every draft;
// limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, draft string, limit int) ([]Entry, error) {
	q := `SELECT id, draft, provider, model, source, reason, repairs, request_id,
		prompt_tokens, completion_tokens, duration_ms, created_at FROM generations`
	var args []any
	if draft != "" {
		q += " WHERE draft = ?"
		args = append(args, draft)
	}
	q += " ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing generations: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e               Entry
			source, repairs string
			createdAt       string
			durationMS      int64
		)
		if err := rows.Scan(&e.ID, &e.Draft, &e.Provider, &e.Model, &source, &e.Reason, &repairs,
			&e.RequestID, &e.PromptTokens, &e.CompletionTokens, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning generation: %w", err)
		}
		e.Source = rams.Source(source)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if err := json.Unmarshal([]byte(repairs), &e.Repairs); err != nil {
			return nil, fmt.Errorf("decoding repairs for %s: %w", e.ID, err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("decoding created_at for %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
