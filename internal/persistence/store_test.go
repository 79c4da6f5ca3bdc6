package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rushboard/solo-board/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "board-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "board-1", []byte("first")))
	got, err := store.Get(ctx, "board-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)

	require.NoError(t, store.Put(ctx, "board-1", []byte("second")))
	got, err = store.Get(ctx, "board-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	require.NoError(t, store.Put(ctx, "board_2", []byte("other")))

	require.NoError(t, store.Delete(ctx, "board-1"))
	_, err = store.Get(ctx, "board-1")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting twice is fine
	require.NoError(t, store.Delete(ctx, "board-1"))

	got, err = store.Get(ctx, "board_2")
	require.NoError(t, err)
	assert.Equal(t, []byte("other"), got)

	assert.ErrorIs(t, store.Put(ctx, "../escape", []byte("x")), ErrInvalidKey)
	assert.ErrorIs(t, store.Put(ctx, "", []byte("x")), ErrInvalidKey)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	exerciseStore(t, store)
}

func TestMemoryStoreCopiesData(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", data))
	data[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "nested", "boards"))
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "board", []byte("payload")))
	require.NoError(t, store.Put(ctx, "board", []byte("payload2")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "board"+fileExt, entries[0].Name())
}

func TestFileStoreRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "board"+fileExt), []byte("not gzip"), 0o600))
	_, err = store.Get(ctx, "board")
	assert.ErrorIs(t, err, ErrCorruptSnapshot)

	// truncated gzip stream
	data, err := Encode(sampleSnapshot(t), time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "board", data))
	path := filepath.Join(dir, "board"+fileExt)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:len(raw)/2], 0o600))
	_, err = store.Get(ctx, "board")
	assert.ErrorIs(t, err, ErrCorruptSnapshot)

	// the bridge reports it as corrupt and can clear it
	bridge := Bind(store, "board")
	_, ok, err := bridge.Load(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
	require.NoError(t, bridge.Clear(ctx))
	_, ok, err = bridge.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "db", "boards.db"))
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestSQLiteStoreInMemory(t *testing.T) {
	store, err := NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("BOARD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BOARD_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	store, err := NewPostgresStore(ctx, dsn, 2)
	require.NoError(t, err)
	defer store.Close()

	_ = store.Delete(ctx, "board-1")
	_ = store.Delete(ctx, "board_2")
	exerciseStore(t, store)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	store, err := Open(ctx, config.StorageConfig{Driver: config.DriverMemory}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(ctx, config.StorageConfig{Driver: config.DriverFile, Directory: t.TempDir()}, logger)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	store, err = Open(ctx, config.StorageConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "boards.db"),
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, store.Close())

	_, err = Open(ctx, config.StorageConfig{Driver: "tape"}, logger)
	assert.Error(t, err)
}
