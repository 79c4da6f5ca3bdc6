// Package persistence saves and restores board snapshots across restarts.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rushboard/solo-board/internal/board"
	"github.com/rushboard/solo-board/internal/config"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned by Store.Get when nothing is stored under a key.
	ErrNotFound = errors.New("snapshot not found")
	// ErrInvalidKey is returned for keys that cannot name a stored snapshot.
	ErrInvalidKey = errors.New("invalid snapshot key")
)

// Store is a keyed blob store for encoded snapshots.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Bridge loads, saves and clears the persisted snapshot of one board.
type Bridge interface {
	// Load returns the stored snapshot. ok is false when nothing is stored.
	// A stored but malformed snapshot is reported as an error wrapping
	// ErrCorruptSnapshot.
	Load(ctx context.Context) (s board.Snapshot, ok bool, err error)
	Save(ctx context.Context, s board.Snapshot) error
	Clear(ctx context.Context) error
}

type binding struct {
	store Store
	key   string
	now   func() time.Time
}

// Bind returns a Bridge that keeps one board's snapshot in store under key.
func Bind(store Store, key string) Bridge {
	return &binding{store: store, key: key, now: time.Now}
}

func (b *binding) Load(ctx context.Context) (board.Snapshot, bool, error) {
	data, err := b.store.Get(ctx, b.key)
	if errors.Is(err, ErrNotFound) {
		return board.Snapshot{}, false, nil
	}
	if err != nil {
		return board.Snapshot{}, false, fmt.Errorf("failed to load snapshot %s: %w", b.key, err)
	}

	s, _, err := Decode(data)
	if err != nil {
		return board.Snapshot{}, false, err
	}
	return s, true, nil
}

func (b *binding) Save(ctx context.Context, s board.Snapshot) error {
	data, err := Encode(s, b.now())
	if err != nil {
		return err
	}
	if err := b.store.Put(ctx, b.key, data); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", b.key, err)
	}
	return nil
}

func (b *binding) Clear(ctx context.Context) error {
	err := b.store.Delete(ctx, b.key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to clear snapshot %s: %w", b.key, err)
	}
	return nil
}

// Open creates the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverMemory:
		store = NewMemoryStore()
	case config.DriverFile:
		store, err = NewFileStore(cfg.Directory)
	case config.DriverPostgres:
		store, err = NewPostgresStore(ctx, cfg.DSN, cfg.MaxConns)
	case config.DriverSQLite:
		store, err = NewSQLiteStore(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("snapshot store opened", zap.String("driver", cfg.Driver))
	}
	return store, nil
}

// ValidateKey reports whether key can name a stored snapshot: 1 to 128
// ASCII letters, digits, dashes or underscores.
func ValidateKey(key string) error {
	if key == "" || len(key) > 128 {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
