package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"storyreel/internal/config"
	"storyreel/internal/services"
)

// Store manages canonical document persistence backed by SQLite. The
// read-merge-write cycle is not safe against concurrent writers for the same
// story: a second writer's read can be stale by the time it writes back,
// silently discarding the first writer's update to any field both touch.
// Single writer per story is the supported workload; the store holds a file
// lock so at most one process owns the database.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the document database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.DataDir, "storyreel.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire data lock: %w", err)
	}
	if !locked {
		return nil, errors.New("document database is in use by another storyreel process")
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "documents.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection and releases the lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); err == nil {
			err = unlockErr
		}
	}
	return err
}

func (s *Store) applySchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS documents (
    story_id   TEXT PRIMARY KEY,
    payload    TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// CreateInitial writes a new document with all pipeline-output fields empty.
// Seed fields (title, source path) are stored as-is; creating an id that
// already exists is an error.
func (s *Store) CreateInitial(ctx context.Context, storyID string, seed map[string]any) (*Document, error) {
	storyID = strings.TrimSpace(storyID)
	if storyID == "" {
		return nil, services.Wrap(services.ErrValidation, "document", "create", "story id is required", nil)
	}

	payload := map[string]any{FieldStoryID: storyID}
	for k, v := range seed {
		payload[k] = v
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	payload[FieldCreatedAt] = now
	payload[FieldUpdatedAt] = now

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	err = s.execWithRetry(ctx,
		`INSERT INTO documents (story_id, payload, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		storyID, string(raw), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return newDocument(storyID, payload), nil
}

// Get fetches a document by story id. A missing document is reported with
// the not-found marker.
func (s *Store) Get(ctx context.Context, storyID string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM documents WHERE story_id = ?`, storyID)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.Wrap(services.ErrNotFound, "document", "get",
				fmt.Sprintf("no document for story %s", storyID), nil)
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return newDocument(storyID, payload), nil
}

// SyncUpdate performs the read-current, whitelist-filter, shallow-merge,
// stamp, write-back cycle. Non-whitelisted keys in partial are dropped;
// stored fields outside the update are preserved verbatim. The error return
// is the contract: callers decide whether a persistence failure is fatal.
func (s *Store) SyncUpdate(ctx context.Context, storyID string, partial map[string]any) (*Document, error) {
	current, err := s.Get(ctx, storyID)
	if err != nil {
		return nil, err
	}

	payload := current.Raw()
	for k, v := range filterToWhitelist(partial) {
		payload[k] = v
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	payload[FieldUpdatedAt] = now

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	err = s.execWithRetry(ctx,
		`UPDATE documents SET payload = ?, updated_at = ? WHERE story_id = ?`,
		string(raw), now, storyID,
	)
	if err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return newDocument(storyID, payload), nil
}

// ListIDs returns every stored story id ordered by creation time.
func (s *Store) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT story_id FROM documents ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan story id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx, query, args...)
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
