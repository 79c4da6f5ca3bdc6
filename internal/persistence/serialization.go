package persistence

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rushboard/solo-board/internal/board"
	"golang.org/x/crypto/blake2b"
)

// SnapshotVersion is the envelope format version written by Encode.
const SnapshotVersion = 1

// ErrCorruptSnapshot wraps every failure to decode a stored snapshot.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// envelope is the stored form of a snapshot.
type envelope struct {
	Version  int             `json:"version"`
	Checksum string          `json:"checksum"`
	SavedAt  time.Time       `json:"saved_at"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// Encode serializes s together with a checksum of its canonical form.
func Encode(s board.Snapshot, savedAt time.Time) ([]byte, error) {
	canonical, err := json.Marshal(s.Normalized())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	env := envelope{
		Version:  SnapshotVersion,
		Checksum: checksum(canonical),
		SavedAt:  savedAt.UTC(),
		Snapshot: canonical,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return data, nil
}

// Decode parses an encoded snapshot, verifying version, checksum and board
// invariants. It returns the snapshot and the time it was saved.
func Decode(data []byte) (board.Snapshot, time.Time, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return board.Snapshot{}, time.Time{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if env.Version != SnapshotVersion {
		return board.Snapshot{}, time.Time{}, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, env.Version)
	}

	var s board.Snapshot
	if err := json.Unmarshal(env.Snapshot, &s); err != nil {
		return board.Snapshot{}, time.Time{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	// Re-marshal so whitespace changes made by a store do not break the sum.
	canonical, err := json.Marshal(s)
	if err != nil {
		return board.Snapshot{}, time.Time{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if got := checksum(canonical); got != env.Checksum {
		return board.Snapshot{}, time.Time{}, fmt.Errorf("%w: checksum mismatch", ErrCorruptSnapshot)
	}

	if err := s.Validate(); err != nil {
		return board.Snapshot{}, time.Time{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return s, env.SavedAt, nil
}

func checksum(canonical []byte) string {
	sum := blake2b.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
