package persistence

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// Store wraps the single-file SQLite database handle. The handle is injected
// into repositories rather than held as process-wide state so tests can run
// against isolated instances.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens the database file, creating its directory when missing.
func NewStore(cfg config.SQLiteConfig, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	// _time_format=sqlite stores time.Time values in a layout SQLite's own
	// date functions (julianday, DATE) can parse.
	db, err := sql.Open("sqlite", "file:"+cfg.Path+"?_time_format=sqlite")
	if err != nil {
		return nil, err
	}

	// Single writer; the driver serializes access and WAL keeps readers off
	// the write path.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("connected to sqlite", zap.String("path", cfg.Path))
	return &Store{db: db, path: cfg.Path}, nil
}

// NewMemoryStore opens an in-memory database for tests.
func NewMemoryStore() (*Store, error) {
	db, err := sql.Open("sqlite", "file::memory:?_time_format=sqlite")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: ":memory:"}, nil
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not configured")
	}
	return s.db.PingContext(ctx)
}

// Close releases the handle.
func (s *Store) Close() {
	if s != nil && s.db != nil {
		_ = s.db.Close()
	}
}
