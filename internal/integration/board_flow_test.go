package integration

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushboard/solo-board/internal/board"
	"github.com/rushboard/solo-board/internal/config"
	"github.com/rushboard/solo-board/internal/deck"
	"github.com/rushboard/solo-board/internal/game"
	"github.com/rushboard/solo-board/internal/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const starterManifest = `
name: Starter
main: [m01.png, m02.png, m03.png, m04.png, m05.png, m06.png, m07.png, m08.png, m09.png, m10.png,
       m11.png, m12.png, m13.png, m14.png, m15.png, m16.png, m17.png, m18.png, m19.png, m20.png]
extra: [e01.png, e02.png, e03.png]
`

type boardEnv struct {
	cfg     config.StorageConfig
	store   persistence.Store
	manager *game.Manager
	logger  *zap.Logger
}

func newBoardEnv(t testing.TB, cfg config.StorageConfig) *boardEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)

	store, err := persistence.Open(context.Background(), cfg, logger)
	require.NoError(t, err)

	seed := uint64(1)
	manager := game.NewManager(store, game.ManagerOptions{
		HistoryLimit: 50,
		NewRNG: func() board.RNG {
			seed++
			return rand.New(rand.NewPCG(seed, seed))
		},
	}, logger)

	env := &boardEnv{cfg: cfg, store: store, manager: manager, logger: logger}
	t.Cleanup(env.close)
	return env
}

func (e *boardEnv) close() {
	e.manager.CloseAll()
	e.store.Close()
}

func storageDrivers(t *testing.T) map[string]config.StorageConfig {
	return map[string]config.StorageConfig{
		config.DriverFile:   {Driver: config.DriverFile, Directory: filepath.Join(t.TempDir(), "boards")},
		config.DriverSQLite: {Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "boards.db")},
	}
}

func TestBoardSurvivesRestart(t *testing.T) {
	for name, cfg := range storageDrivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			manifest, err := deck.ParseManifest([]byte(starterManifest))
			require.NoError(t, err)

			env := newBoardEnv(t, cfg)
			s, err := env.manager.Open(ctx, "duel-1")
			require.NoError(t, err)

			mainCards, extra := manifest.Cards()
			opening, err := s.LoadDeck(mainCards, extra)
			require.NoError(t, err)
			require.Len(t, opening.Hand, board.OpeningHandSize)
			require.Len(t, opening.Deck, 16)

			monster := opening.Hand[0].ID
			_, ok := s.Move(monster, string(board.ZoneMonster1))
			require.True(t, ok)
			_, ok = s.SetFaceDownDefense(monster)
			require.True(t, ok)
			_, ok = s.Move(extra[0].ID, string(board.ZoneField))
			require.True(t, ok)
			_, ok = s.SmartDraw()
			require.True(t, ok)
			_, ok = s.SendTopToGrave()
			require.True(t, ok)
			played := s.Snapshot()
			require.NoError(t, played.Validate())

			env.close()

			// second process on the same storage
			restarted := newBoardEnv(t, cfg)
			resumed, err := restarted.manager.Open(ctx, "duel-1")
			require.NoError(t, err)

			assert.Equal(t, played, resumed.Snapshot())
			assert.Equal(t, 0, resumed.HistoryLen())
			assert.True(t, resumed.Snapshot().State(monster).FaceDownDefense())

			// resets start from the opening deal, not the resumed board
			resumed.Draw(2)
			assert.Equal(t, opening, resumed.Origin())
			assert.Equal(t, opening, resumed.FullReset())

			_, ok = resumed.Move(resumed.Snapshot().Hand[0].ID, string(board.ZoneSpell1))
			require.True(t, ok)
			shuffled := resumed.ShuffleReset()
			assert.Len(t, shuffled.Hand, board.OpeningHandSize)
			assert.Equal(t, len(opening.Deck)+len(opening.Hand), len(shuffled.Deck)+len(shuffled.Hand))
			assert.Empty(t, shuffled.Grave)
			assert.Empty(t, shuffled.Free)
			assert.Empty(t, shuffled.States)
			assert.Equal(t, opening.Extra, shuffled.Extra)
			for z, c := range shuffled.Zones {
				assert.Nil(t, c, "zone %s", z)
			}
			require.NoError(t, shuffled.Validate())
		})
	}
}

func TestCorruptSavedBoardFallsBackToOpeningDeal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "boards")
	cfg := config.StorageConfig{Driver: config.DriverFile, Directory: dir}
	ctx := context.Background()

	env := newBoardEnv(t, cfg)
	s, err := env.manager.Open(ctx, "duel-2")
	require.NoError(t, err)
	opening, err := s.LoadDeck(deck.NewCards([]string{"a", "b", "c", "d", "e", "f"}), nil)
	require.NoError(t, err)
	_, ok := s.Move(opening.Hand[0].ID, string(board.ZoneMonster1))
	require.True(t, ok)
	env.close()

	path := filepath.Join(dir, "duel-2.json.gz")
	_, err = os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	restarted := newBoardEnv(t, cfg)
	resumed, err := restarted.manager.Open(ctx, "duel-2")
	require.NoError(t, err)
	assert.Equal(t, opening, resumed.Snapshot())

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist, "corrupt board is cleared")
}

func TestCorruptSavedBoardsFallBackToEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "boards")
	cfg := config.StorageConfig{Driver: config.DriverFile, Directory: dir}
	ctx := context.Background()

	env := newBoardEnv(t, cfg)
	s, err := env.manager.Open(ctx, "duel-4")
	require.NoError(t, err)
	_, err = s.LoadDeck(deck.NewCards([]string{"a", "b", "c", "d", "e", "f"}), nil)
	require.NoError(t, err)
	env.close()

	for _, name := range []string{"duel-4.json.gz", "duel-4-origin.json.gz"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		// truncated gzip stream
		require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0o600))
	}

	restarted := newBoardEnv(t, cfg)
	resumed, err := restarted.manager.Open(ctx, "duel-4")
	require.NoError(t, err)
	assert.Equal(t, board.EmptySnapshot(), resumed.Snapshot())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadingNewDeckReplacesSavedBoard(t *testing.T) {
	cfg := config.StorageConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "boards.db")}
	ctx := context.Background()

	env := newBoardEnv(t, cfg)
	s, err := env.manager.Open(ctx, "duel-3")
	require.NoError(t, err)
	_, err = s.LoadDeck(deck.NewCards([]string{"a", "b", "c", "d", "e", "f", "g"}), nil)
	require.NoError(t, err)

	second, err := s.LoadDeck(deck.NewCards([]string{"h", "i", "j", "k", "l", "m", "n", "o"}), nil)
	require.NoError(t, err)
	env.close()

	restarted := newBoardEnv(t, cfg)
	resumed, err := restarted.manager.Open(ctx, "duel-3")
	require.NoError(t, err)
	assert.Equal(t, second, resumed.Snapshot())
	assert.Equal(t, second, resumed.Origin())
	assert.Equal(t, 8, resumed.Snapshot().CardCount())
}
