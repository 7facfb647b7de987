package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig configures a SQLiteStore.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteStore keeps snapshots in a SQLite table.
type SQLiteStore struct {
	db         *sql.DB
	lookupStmt *sql.Stmt
	logger     *slog.Logger
	closeOnce  sync.Once
}

// NewSQLiteStore opens (and if needed creates) a snapshot database.
func NewSQLiteStore(cfg SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db, logger: logger.With("component", "snapshot.sqlite")}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.lookupStmt, err = db.Prepare(`SELECT value, generated_at FROM snapshots WHERE key = ?`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare lookup statement: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		generated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Lookup implements Store. Database errors are logged and reported as not
// found.
func (s *SQLiteStore) Lookup(ctx context.Context, key string) (Snapshot, bool) {
	var (
		value       []byte
		generatedAt int64
	)

	err := s.lookupStmt.QueryRowContext(ctx, key).Scan(&value, &generatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("snapshot lookup failed", "key", key, "error", err)
		}
		return Snapshot{}, false
	}

	return Snapshot{
		Key:         key,
		Value:       value,
		GeneratedAt: time.Unix(0, generatedAt).UTC(),
	}, true
}

// Replace swaps the full snapshot set in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, snapshots []Snapshot) error {
	for _, snap := range snapshots {
		if err := validate(snap); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO snapshots (key, value, generated_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, snap := range snapshots {
		generatedAt := snap.GeneratedAt
		if generatedAt.IsZero() {
			generatedAt = now
		}
		if _, err := stmt.ExecContext(ctx, snap.Key, []byte(snap.Value), generatedAt.UnixNano()); err != nil {
			return fmt.Errorf("insert snapshot %q: %w", snap.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshots: %w", err)
	}

	s.logger.Info("snapshots replaced", "count", len(snapshots))
	return nil
}

// Len returns the number of stored snapshots.
func (s *SQLiteStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.lookupStmt != nil {
			s.lookupStmt.Close()
		}
		err = s.db.Close()
	})
	return err
}
