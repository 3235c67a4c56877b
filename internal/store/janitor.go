package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Sweep deletes regular files older than maxAge under the storage root and
// returns how many were removed. Individual deletion failures are skipped so
// one stuck file never stops the sweep. Running twice back-to-back with no
// new files deletes nothing the second time.
func (s *Store) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("scan storage root: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	deleted := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.root, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Debug("janitor.delete.failed", "path", path, "error", err)
			continue
		}
		deleted++
	}
	if deleted > 0 {
		s.logger.Info("janitor.sweep.ok", "files_deleted", deleted, "max_age", maxAge.String())
	}
	return deleted, nil
}

// SweepEvery runs Sweep on a fixed interval until ctx is canceled. A zero or
// negative interval disables the loop.
func (s *Store) SweepEvery(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(maxAge); err != nil {
				s.logger.Warn("janitor.sweep.failed", "error", err)
			}
		}
	}
}
