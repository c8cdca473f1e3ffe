// Package imagestore keeps canonical notification images on disk, named by content hash.
package imagestore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/miracleos/notifyd/internal/atomicfile"
)

const fileExt = ".png"

// Store writes each distinct image once. A file already present under a hash
// name is trusted and never rewritten or re-hashed.
type Store struct {
	dir string
	log zerolog.Logger
	mu  sync.Mutex
}

// New creates a store rooted at dir. The directory is created on first write.
func New(dir string, logger zerolog.Logger) *Store {
	return &Store{dir: dir, log: logger}
}

// Dir returns the base directory.
func (s *Store) Dir() string {
	return s.dir
}

// Key returns the hex sha256 of data.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// PathFor returns where data would be stored.
func (s *Store) PathFor(data []byte) string {
	return filepath.Join(s.dir, Key(data)+fileExt)
}

// Put stores canonical image bytes and returns their path.
func (s *Store) Put(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty image")
	}

	path := s.PathFor(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		s.log.Debug().Str("path", path).Msg("duplicate image")
		return path, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat image: %w", err)
	}

	if err := atomicfile.Write(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}

	s.log.Debug().
		Str("path", path).
		Str("size", humanize.IBytes(uint64(len(data)))).
		Msg("saved image")
	return path, nil
}
