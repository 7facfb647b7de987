package server

import (
	"context"
	"fmt"
	"log/slog"

	"fundwatch-hq/fundwatch/pkg/config"
	"fundwatch-hq/fundwatch/pkg/holdings"
	"fundwatch-hq/fundwatch/pkg/snapshot"
)

// OpenHoldings opens the holdings database described by cfg.
func OpenHoldings(cfg *config.DatabaseConfig) (*holdings.Repository, error) {
	return holdings.Open(&holdings.Config{
		Path:         cfg.Path,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
		WALMode:      cfg.WALMode,
		BusyTimeout:  cfg.BusyTimeout,
	})
}

// Snapshots is an opened snapshot backend.
type Snapshots struct {
	Store  snapshot.Store
	Writer snapshot.Writer

	// Files is set for the file backend, which can be reloaded and watched.
	Files *snapshot.FileStore

	count func(ctx context.Context) (int, error)
	close func() error
}

// Count returns the number of stored snapshots.
func (s *Snapshots) Count(ctx context.Context) (int, error) {
	return s.count(ctx)
}

// Close releases the backend.
func (s *Snapshots) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenSnapshots opens the snapshot backend selected by cfg.Backend.
func OpenSnapshots(cfg *config.SnapshotConfig, logger *slog.Logger) (*Snapshots, error) {
	switch cfg.Backend {
	case "", "file":
		fs, err := snapshot.NewFileStore(cfg.Dir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot directory: %w", err)
		}
		return &Snapshots{
			Store:  fs,
			Writer: fs,
			Files:  fs,
			count:  func(context.Context) (int, error) { return fs.Len(), nil },
		}, nil

	case "sqlite":
		ss, err := snapshot.NewSQLiteStore(snapshot.SQLiteConfig{Path: cfg.SQLitePath}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot database: %w", err)
		}
		return &Snapshots{
			Store:  ss,
			Writer: ss,
			count:  ss.Len,
			close:  ss.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported snapshot backend: %s", cfg.Backend)
	}
}

// NewGenerator creates the snapshot generator configured by cfg.
func NewGenerator(source snapshot.Source, cfg *config.SnapshotConfig, logger *slog.Logger) *snapshot.Generator {
	return snapshot.NewGenerator(source, snapshot.GeneratorConfig{
		TopSizes:   cfg.TopSizes,
		AllTickers: cfg.AllTickers,
		Logger:     logger,
	})
}
