package game

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rushboard/solo-board/internal/board"
	"go.uber.org/zap"
)

const replayVersion = 1

// ReplayFrame is one committed board state.
type ReplayFrame struct {
	Event     string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Snapshot  board.Snapshot `json:"snapshot"`
}

// Replay is the sequence of board states a session went through, for
// step-by-step playback.
type Replay struct {
	BoardID      string
	Frames       []ReplayFrame
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(boardID string) *Replay {
	return &Replay{
		BoardID: boardID,
		Frames:  make([]ReplayFrame, 0, 32),
	}
}

// Record appends a frame.
func (r *Replay) Record(frame ReplayFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Frames = append(r.Frames, frame)
}

// Start rewinds playback.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CurrentIndex = 0
}

// Next returns the frame at the playback position and advances it.
func (r *Replay) Next() (ReplayFrame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.Frames) {
		frame := r.Frames[r.CurrentIndex]
		r.CurrentIndex++
		return frame, true
	}
	return ReplayFrame{}, false
}

// Previous steps playback back one frame and returns it.
func (r *Replay) Previous() (ReplayFrame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.Frames[r.CurrentIndex], true
	}
	return ReplayFrame{}, false
}

// Skip moves playback by count frames, clamped to the recorded range.
func (r *Replay) Skip(count int) (ReplayFrame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.Frames) == 0 {
		return ReplayFrame{}, false
	}
	r.CurrentIndex = min(max(r.CurrentIndex+count, 0), len(r.Frames)-1)
	return r.Frames[r.CurrentIndex], true
}

// Size returns the number of recorded frames.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Frames)
}

// FrameAt returns the frame at index.
func (r *Replay) FrameAt(index int) (ReplayFrame, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.Frames) {
		return r.Frames[index], true
	}
	return ReplayFrame{}, false
}

// replayMetadata is the first record of a saved replay.
type replayMetadata struct {
	BoardID    string    `json:"board_id"`
	Timestamp  time.Time `json:"timestamp"`
	Version    int       `json:"version"`
	FrameCount int       `json:"frame_count"`
}

// createReplayFile opens the destination of SaveToFile.
var createReplayFile = func(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

// SaveToFile writes the replay to <directory>/<board id>.replay as a gzipped
// stream of JSON records: the metadata, then one record per frame.
func (r *Replay) SaveToFile(directory string) (err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.BoardID))
	file, err := createReplayFile(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	gzipWriter := gzip.NewWriter(file)
	encoder := json.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		BoardID:    r.BoardID,
		Timestamp:  time.Now(),
		Version:    replayVersion,
		FrameCount: len(r.Frames),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i, frame := range r.Frames {
		if err := encoder.Encode(&frame); err != nil {
			return fmt.Errorf("failed to encode frame %d: %w", i, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, boardID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", boardID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := json.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.BoardID)
	for i := 0; i < metadata.FrameCount; i++ {
		var frame ReplayFrame
		if err := decoder.Decode(&frame); err != nil {
			return nil, fmt.Errorf("failed to decode frame %d: %w", i, err)
		}
		replay.Frames = append(replay.Frames, frame)
	}
	return replay, nil
}

// ReplayRecorder keeps a replay per open board and writes it to disk when the
// board is closed.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay // boardID -> Replay
	saveDir string
}

// NewReplayRecorder creates a recorder saving into saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		saveDir: saveDir,
	}
}

// StartRecording begins recording a board, seeded with its current state.
func (rr *ReplayRecorder) StartRecording(boardID string, initial board.Snapshot) {
	replay := NewReplay(boardID)
	replay.Record(ReplayFrame{Event: "opened", Timestamp: time.Now(), Snapshot: initial})

	rr.mu.Lock()
	rr.replays[boardID] = replay
	rr.mu.Unlock()

	if rr.logger != nil {
		rr.logger.Debug("started replay recording", zap.String("board_id", boardID))
	}
}

// Record appends the board state carried by a notification.
func (rr *ReplayRecorder) Record(n GameNotification) {
	snap, ok := n.Data["snapshot"].(board.Snapshot)
	if !ok {
		return
	}

	rr.mu.RLock()
	replay := rr.replays[n.BoardID]
	rr.mu.RUnlock()
	if replay == nil {
		return
	}

	replay.Record(ReplayFrame{Event: n.Type, Timestamp: n.Timestamp, Snapshot: snap})
}

// GetReplay returns the in-memory replay of a board.
func (rr *ReplayRecorder) GetReplay(boardID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	replay, exists := rr.replays[boardID]
	return replay, exists
}

// SaveReplay writes a board's replay to disk and forgets it.
func (rr *ReplayRecorder) SaveReplay(boardID string) error {
	rr.mu.Lock()
	replay, exists := rr.replays[boardID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for board %s", boardID)
	}
	delete(rr.replays, boardID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	if rr.logger != nil {
		rr.logger.Info("saved replay to disk",
			zap.String("board_id", boardID),
			zap.Int("frame_count", replay.Size()),
			zap.String("directory", rr.saveDir),
		)
	}
	return nil
}

// LoadReplay reads a saved replay.
func (rr *ReplayRecorder) LoadReplay(boardID string) (*Replay, error) {
	return LoadReplayFromFile(rr.saveDir, boardID)
}
