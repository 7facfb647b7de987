package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const fileExt = ".json"

// FileStore keeps one <key>.json file per snapshot in a directory.
//
// Lookups are served from an in-memory index. Reload rebuilds the index
// from disk and swaps it in one step, so readers see either the old set or
// the new set, never a mix.
type FileStore struct {
	dir    string
	logger *slog.Logger

	mu       sync.RWMutex
	index    map[string]Snapshot
	loadedAt time.Time
}

// NewFileStore opens dir, creating it if needed, and loads its snapshots.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("snapshot directory cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}

	s := &FileStore{
		dir:    dir,
		logger: logger.With("component", "snapshot.file"),
		index:  make(map[string]Snapshot),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the snapshot directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Lookup implements Store.
func (s *FileStore) Lookup(_ context.Context, key string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.index[key]
	return snap, ok
}

// Len returns the number of indexed snapshots.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}

// Keys returns the indexed keys in sorted order.
func (s *FileStore) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.index))
	for k := range s.index {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// LoadedAt returns when the index was last rebuilt.
func (s *FileStore) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Reload rebuilds the index from disk. Files that are not valid JSON are
// skipped. If the directory cannot be read the current index is kept.
func (s *FileStore) Reload() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read snapshot directory: %w", err)
	}

	index := make(map[string]Snapshot, len(entries))
	skipped := 0

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}

		key := strings.TrimSuffix(name, fileExt)
		snap, err := s.readFile(key)
		if err != nil {
			s.logger.Warn("skipping snapshot file", "file", name, "error", err)
			skipped++
			continue
		}
		index[key] = snap
	}

	s.mu.Lock()
	s.index = index
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("snapshots loaded",
		"dir", s.dir,
		"count", len(index),
		"skipped", skipped,
	)
	return nil
}

// Replace writes snapshots as the new full set. Every file is written to a
// staging directory first and renamed into place; files for keys not in
// snapshots are removed. The index is rebuilt afterwards.
func (s *FileStore) Replace(ctx context.Context, snapshots []Snapshot) error {
	for _, snap := range snapshots {
		if err := validate(snap); err != nil {
			return err
		}
	}

	staging, err := os.MkdirTemp(s.dir, ".staging-")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	keep := make(map[string]bool, len(snapshots))
	for _, snap := range snapshots {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := snap.Key + fileExt
		path := filepath.Join(staging, name)
		if err := os.WriteFile(path, snap.Value, 0o644); err != nil {
			return fmt.Errorf("write snapshot %q: %w", snap.Key, err)
		}
		if !snap.GeneratedAt.IsZero() {
			if err := os.Chtimes(path, snap.GeneratedAt, snap.GeneratedAt); err != nil {
				return fmt.Errorf("stamp snapshot %q: %w", snap.Key, err)
			}
		}
		keep[name] = true
	}

	for name := range keep {
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(s.dir, name)); err != nil {
			return fmt.Errorf("install snapshot %q: %w", name, err)
		}
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read snapshot directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) || keep[name] {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove stale snapshot", "file", name, "error", err)
		}
	}

	return s.Reload()
}

func (s *FileStore) readFile(key string) (Snapshot, error) {
	if err := ValidateKey(key); err != nil {
		return Snapshot{}, err
	}

	path := filepath.Join(s.dir, key+fileExt)
	info, err := os.Stat(path)
	if err != nil {
		return Snapshot{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Key: key, Value: raw, GeneratedAt: info.ModTime()}
	if err := validate(snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
