// Package state persists the per-keyword dedup slot that keeps repeated
// runs from re-sending a notification for an occurrence already handled.
//
// One slot is one file holding one record id. Reads fail open: a slot that
// cannot produce a valid id reports "no record", because a broken slot must
// never block a detection pass. Writes replace the whole value atomically.
//
// There is no cross-process lock around the slot. Two overlapping passes
// that both read before either writes can both notify; suppression is
// best-effort under concurrent invocation and exact under sequential runs.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const slotSuffix = ".last"

// Store reads and writes one record id per sanitized keyword.
type Store struct {
	dir string
	log zerolog.Logger
}

// NewStore returns a Store rooted at dir. The directory is created lazily
// on first write.
func NewStore(dir string, log zerolog.Logger) *Store {
	return &Store{dir: dir, log: log}
}

// Path returns the slot file for key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+slotSuffix)
}

// Read returns the persisted record id for key. Missing, unreadable, or
// corrupt slots report (0, false) and are logged, never fatal.
func (s *Store) Read(key string) (int64, bool) {
	path := s.Path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", path).Msg("dedup slot unreadable, treating as empty")
		}
		return 0, false
	}

	id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || id < 0 {
		s.log.Warn().Str("path", path).Str("content", excerpt(string(data))).Msg("dedup slot corrupt, treating as empty")
		return 0, false
	}
	return id, true
}

// Write replaces the slot for key with id, creating the state directory if
// needed. The write goes through a temp file and rename so a crash never
// leaves a half-written slot.
func (s *Store) Write(key string, id int64) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	path := s.Path(key)
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, []byte(strconv.FormatInt(id, 10)+"\n"), 0644); err != nil {
		return fmt.Errorf("writing temp slot file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp slot file: %w", err)
	}
	return nil
}

// Clear removes the slot for key. A missing slot is not an error.
func (s *Store) Clear(key string) error {
	err := os.Remove(s.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing slot file: %w", err)
	}
	return nil
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
