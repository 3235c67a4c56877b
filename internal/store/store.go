// Package store owns the temporary upload directory: collision-free writes,
// best-effort removal, and the retention sweep.
package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Store struct {
	root   string
	logger *slog.Logger
}

// New creates the storage root if needed and returns a Store over it.
func New(root string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{root: root, logger: logger}, nil
}

func (s *Store) Root() string {
	return s.root
}

// Save writes content under a collision-free name derived from the original
// filename: sanitized stem, timestamp, short uuid suffix. Concurrent uploads
// sharing a base filename never collide.
func (s *Store) Save(filename string, content []byte) (string, error) {
	base := filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(base))
	stem := sanitizeStem(strings.TrimSuffix(base, filepath.Ext(base)))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := fmt.Sprintf("%s_%s_%s%s", stem, time.Now().Format("20060102_150405"), suffix, ext)

	path := filepath.Join(s.root, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	s.logger.Debug("store.save.ok", "path", path, "bytes", len(content))
	return path, nil
}

// Remove deletes a stored file, best effort.
func (s *Store) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("store.remove.failed", "path", path, "error", err)
	}
}

var reUnsafeStem = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeStem keeps stored names shell- and path-safe whatever the client
// declared as a filename.
func sanitizeStem(stem string) string {
	clean := reUnsafeStem.ReplaceAllString(stem, "_")
	clean = strings.Trim(clean, "._")
	if clean == "" {
		clean = "upload"
	}
	if len(clean) > 80 {
		clean = clean[:80]
	}
	return clean
}
