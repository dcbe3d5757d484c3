// Package cache memoizes computed plans by input fingerprint so a user
// can resume where they left off without re-running detection. The core
// pipeline knows nothing about this layer; callers decide when to
// consult it.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/silencecut/silencecut/internal/plan"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a sqlite-backed plan cache.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the cache database and applies
// pending migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	s := &Store{conn: conn, logger: logger}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if s.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		if s.logger != nil {
			s.logger.Info("applied migration", "name", name)
		}
	}
	return nil
}

func (s *Store) isMigrationApplied(name string) bool {
	var exists int
	err := s.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}

	var applied int
	err = s.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// Get looks up a cached plan by fingerprint. The boolean is false on a
// cache miss.
func (s *Store) Get(ctx context.Context, fingerprint string) (*plan.Plan, bool, error) {
	var blob []byte
	err := s.conn.QueryRowContext(ctx,
		"SELECT plan_json FROM plans WHERE fingerprint = ?", fingerprint).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup: %w", err)
	}

	var p plan.Plan
	if err := json.Unmarshal(blob, &p); err != nil {
		// A corrupt row is treated as a miss; the caller recomputes.
		if s.logger != nil {
			s.logger.Warn("discarding corrupt cached plan", "fingerprint", fingerprint, "error", err)
		}
		return nil, false, nil
	}
	return &p, true, nil
}

// Put stores a plan under its fingerprint, replacing any prior entry.
func (s *Store) Put(ctx context.Context, fingerprint, sourcePath string, p *plan.Plan) error {
	blob, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	_, err = s.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO plans (fingerprint, source_path, plan_json) VALUES (?, ?, ?)",
		fingerprint, sourcePath, blob)
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// InvalidateSource drops all cached plans for one source file.
func (s *Store) InvalidateSource(ctx context.Context, sourcePath string) error {
	_, err := s.conn.ExecContext(ctx, "DELETE FROM plans WHERE source_path = ?", sourcePath)
	if err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// Fingerprint derives the cache key for one (input file, parameter set)
// pair from the file's size and modification time plus the parameters.
// Content is deliberately not hashed; size+mtime is cheap and good
// enough to detect a changed source.
func Fingerprint(path string, params plan.Params) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("fingerprint stat: %w", err)
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|", path, info.Size(), info.ModTime().UnixNano())
	fmt.Fprintf(h, "%.6f|%.6f|%.6f|%.6f|%d",
		params.ThresholdDb, params.MinSilenceSec, params.PadSec, params.MinKeepSec, params.AudioStreamIndex)
	return hex.EncodeToString(h.Sum(nil)), nil
}
