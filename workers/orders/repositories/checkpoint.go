package repositories

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// CheckpointStore persists the last scan boundary as a single RFC 3339
// timestamp in a flat file.
type CheckpointStore struct {
	path string
}

func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{path: path}
}

// Load returns the last scan boundary. ok is false when no checkpoint
// exists yet; a checkpoint that exists but cannot be parsed also returns
// ok false alongside the error, so callers can fall back to a full scan.
func (s *CheckpointStore) Load() (time.Time, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	boundary, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	return boundary, true, nil
}

// Save advances the checkpoint. A boundary at or before the stored one is
// ignored so the checkpoint never moves backwards.
func (s *CheckpointStore) Save(boundary time.Time) error {
	if boundary.IsZero() {
		return nil
	}
	if current, ok, _ := s.Load(); ok && !boundary.After(current) {
		return nil
	}
	return WriteFileAtomic(s.path, []byte(boundary.Format(time.RFC3339)+"\n"))
}
