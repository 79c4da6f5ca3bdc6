package game

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rushboard/solo-board/internal/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func frames(n int) []ReplayFrame {
	out := make([]ReplayFrame, n)
	for i := range out {
		out[i] = ReplayFrame{Event: NotifyBoardChanged, Timestamp: time.Unix(int64(i), 0).UTC(), Snapshot: deckOf(i + 1)}
	}
	return out
}

func TestNewReplay(t *testing.T) {
	replay := NewReplay("board-1")
	assert.Equal(t, "board-1", replay.BoardID)
	assert.Equal(t, 0, replay.CurrentIndex)
	assert.Equal(t, 0, replay.Size())
}

func TestReplayNavigation(t *testing.T) {
	replay := NewReplay("board-1")
	for _, f := range frames(5) {
		replay.Record(f)
	}
	assert.Equal(t, 5, replay.Size())

	replay.Start()
	frame, ok := replay.Next()
	require.True(t, ok)
	assert.Len(t, frame.Snapshot.Deck, 1)
	assert.Equal(t, 1, replay.CurrentIndex)

	frame, ok = replay.Next()
	require.True(t, ok)
	assert.Len(t, frame.Snapshot.Deck, 2)

	frame, ok = replay.Previous()
	require.True(t, ok)
	assert.Len(t, frame.Snapshot.Deck, 2)
	assert.Equal(t, 1, replay.CurrentIndex)

	frame, ok = replay.Skip(10)
	require.True(t, ok)
	assert.Len(t, frame.Snapshot.Deck, 5)
	assert.Equal(t, 4, replay.CurrentIndex)

	frame, ok = replay.Skip(-10)
	require.True(t, ok)
	assert.Len(t, frame.Snapshot.Deck, 1)

	_, ok = replay.Previous()
	assert.False(t, ok)

	replay.Skip(4)
	replay.Next()
	_, ok = replay.Next()
	assert.False(t, ok)

	_, ok = replay.FrameAt(5)
	assert.False(t, ok)
	frame, ok = replay.FrameAt(2)
	require.True(t, ok)
	assert.Len(t, frame.Snapshot.Deck, 3)
}

func TestReplaySkipEmpty(t *testing.T) {
	_, ok := NewReplay("board-1").Skip(1)
	assert.False(t, ok)
}

func TestReplaySaveLoad(t *testing.T) {
	dir := t.TempDir()
	replay := NewReplay("board-1")
	for _, f := range frames(3) {
		replay.Record(f)
	}

	require.NoError(t, replay.SaveToFile(dir))
	_, err := os.Stat(filepath.Join(dir, "board-1.replay"))
	require.NoError(t, err)

	loaded, err := LoadReplayFromFile(dir, "board-1")
	require.NoError(t, err)
	assert.Equal(t, "board-1", loaded.BoardID)
	require.Equal(t, 3, loaded.Size())
	for i := range replay.Frames {
		assert.Equal(t, replay.Frames[i].Snapshot, loaded.Frames[i].Snapshot)
		assert.True(t, replay.Frames[i].Timestamp.Equal(loaded.Frames[i].Timestamp))
	}

	_, err = LoadReplayFromFile(dir, "missing")
	assert.Error(t, err)
}

type failingCloser struct {
	bytes.Buffer
}

func (*failingCloser) Close() error { return errors.New("short write") }

func TestReplaySaveReportsCloseError(t *testing.T) {
	orig := createReplayFile
	t.Cleanup(func() { createReplayFile = orig })
	createReplayFile = func(string) (io.WriteCloser, error) { return &failingCloser{}, nil }

	replay := NewReplay("board-1")
	replay.Record(frames(1)[0])
	err := replay.SaveToFile(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "short write")
}

func TestReplayRecorderThroughManager(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(nil, ManagerOptions{
		NewRNG:    func() board.RNG { return identityRNG{} },
		ReplayDir: dir,
	}, zap.NewNop())

	s, err := m.Open(context.Background(), "board-1")
	require.NoError(t, err)
	_, err = s.LoadDeck(cards("c", 8), nil)
	require.NoError(t, err)
	s.Draw(1)
	s.Undo()

	live, ok := m.Replays().GetReplay("board-1")
	require.True(t, ok)
	assert.Equal(t, 4, live.Size())

	require.True(t, m.Remove("board-1"))
	_, ok = m.Replays().GetReplay("board-1")
	assert.False(t, ok)

	saved, err := m.Replays().LoadReplay("board-1")
	require.NoError(t, err)
	require.Equal(t, 4, saved.Size())

	events := make([]string, 0, saved.Size())
	for _, f := range saved.Frames {
		events = append(events, f.Event)
	}
	assert.Equal(t, []string{"opened", NotifyDeckLoaded, NotifyBoardChanged, NotifyUndo}, events)
	assert.Equal(t, saved.Frames[1].Snapshot, saved.Frames[3].Snapshot)
}

func TestReplayRecorderIgnoresUnknownBoard(t *testing.T) {
	rr := NewReplayRecorder(nil, t.TempDir())
	rr.Record(GameNotification{BoardID: "ghost", Data: map[string]interface{}{"snapshot": board.EmptySnapshot()}})
	_, ok := rr.GetReplay("ghost")
	assert.False(t, ok)
	assert.Error(t, rr.SaveReplay("ghost"))
}
