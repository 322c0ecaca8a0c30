// Package state persists the set of registrations already notified about.
package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrCorrupt wraps load failures of an existing state file. Callers treat
// it as a warning: losing dedup history is recoverable, crashing and never
// notifying again is not.
var ErrCorrupt = errors.New("state file corrupt")

// Record is the per-UID metadata kept in the state file.
type Record struct {
	SentAt time.Time `json:"sent_at"`
}

type document struct {
	Sent      map[string]Record `json:"sent"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Store is the in-memory notified-set bound to its file path. It is not
// safe for concurrent use; runs are single-threaded by design.
type Store struct {
	path string
	sent map[string]Record
}

// Load reads the state file at path.
//
//   - Missing file: empty store, nil error.
//   - Unreadable or invalid file: empty store and an error wrapping
//     ErrCorrupt, so the caller can log and continue.
func Load(path string) (*Store, error) {
	s := &Store{path: path, sent: make(map[string]Record)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return s, errors.Join(ErrCorrupt, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return s, errors.Join(ErrCorrupt, err)
	}
	if doc.Sent != nil {
		s.sent = doc.Sent
	}
	return s, nil
}

// Contains reports whether uid has already been notified.
func (s *Store) Contains(uid string) bool {
	_, ok := s.sent[uid]
	return ok
}

// MarkSent records uid as notified at t. In-memory only; call Save to
// persist.
func (s *Store) MarkSent(uid string, t time.Time) {
	s.sent[uid] = Record{SentAt: t.UTC()}
}

// Len returns the number of notified UIDs.
func (s *Store) Len() int { return len(s.sent) }

// UIDs returns the notified UIDs in sorted order.
func (s *Store) UIDs() []string {
	out := make([]string, 0, len(s.sent))
	for uid := range s.sent {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}

// Save atomically replaces the state file with the current set: the
// document is written to a temp file in the same directory, synced, then
// renamed over the target. A crash mid-save leaves the previous file
// intact.
func (s *Store) Save() error {
	if s.path == "" {
		return errors.New("state path is empty")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	doc := document{Sent: s.sent, UpdatedAt: time.Now().UTC()}
	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".sent-events-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, s.path)
}
