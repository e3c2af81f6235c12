package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/oxtoacart/bpool"

	"github.com/qa-labs/ecom-e2e/api"
	"github.com/qa-labs/ecom-e2e/common"
)

// SessionState is an authenticated browser session: the captured storage
// state plus the token and user id the shop's front end reads.
type SessionState struct {
	api.StorageState
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// Validate reports a missing token or user id.
func (s *SessionState) Validate() error {
	var missing []string
	if s.Token == "" {
		missing = append(missing, "token")
	}
	if s.UserID == "" {
		missing = append(missing, "userId")
	}
	if len(missing) > 0 {
		return &common.MalformedResponseError{Missing: missing}
	}
	return nil
}

// SessionStore keeps one cache entry per worker lane under a directory,
// named <workerID>.json. Lanes never share an entry, so the store does no
// locking.
type SessionStore struct {
	dir       string
	persister FilePersister
	buffers   *bpool.BufferPool
}

// NewSessionStore returns a store writing under dir through persister. A nil
// persister writes to the local disk.
func NewSessionStore(dir string, persister FilePersister) *SessionStore {
	if persister == nil {
		persister = &LocalFilePersister{}
	}
	return &SessionStore{
		dir:       dir,
		persister: persister,
		buffers:   bpool.NewBufferPool(4),
	}
}

// Dir is the directory holding the entries.
func (s *SessionStore) Dir() string { return s.dir }

// EntryPath is the path of the entry for workerID.
func (s *SessionStore) EntryPath(workerID int) string {
	return filepath.Join(s.dir, strconv.Itoa(workerID)+".json")
}

// Exists reports whether the entry for workerID is present. Stat failures
// other than absence are returned as a CacheIOError.
func (s *SessionStore) Exists(workerID int) (bool, error) {
	p := s.EntryPath(workerID)
	_, err := os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, &common.CacheIOError{Op: "stat", Path: p, Err: err}
	}
}

// Save writes state as the entry for workerID, as 2-space indented JSON,
// creating the directory if needed.
func (s *SessionStore) Save(ctx context.Context, workerID int, state *SessionState) (string, error) {
	p := s.EntryPath(workerID)
	if err := state.Validate(); err != nil {
		return "", fmt.Errorf("refusing to cache session for worker %d: %w", workerID, err)
	}

	buf := s.buffers.Get()
	defer s.buffers.Put(buf)

	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		return "", &common.CacheIOError{Op: "encode", Path: p, Err: err}
	}
	if err := s.persister.Persist(ctx, p, buf); err != nil {
		return "", &common.CacheIOError{Op: "write", Path: p, Err: err}
	}

	return p, nil
}

// Load reads the entry for workerID.
func (s *SessionStore) Load(workerID int) (*SessionState, error) {
	p := s.EntryPath(workerID)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, &common.CacheIOError{Op: "read", Path: p, Err: err}
	}

	var state SessionState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, &common.CacheIOError{Op: "decode", Path: p, Err: err}
	}
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("session cache entry %q: %w", p, err)
	}

	return &state, nil
}

// Clear removes every entry by deleting the directory.
func (s *SessionStore) Clear() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return &common.CacheIOError{Op: "remove", Path: s.dir, Err: err}
	}
	return nil
}

// Remove deletes the entry for workerID. A missing entry is not an error.
func (s *SessionStore) Remove(workerID int) error {
	p := s.EntryPath(workerID)
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &common.CacheIOError{Op: "remove", Path: p, Err: err}
	}
	return nil
}
