package game

import (
	"context"
	"sync"
	"time"

	"github.com/rushboard/solo-board/internal/board"
	"github.com/rushboard/solo-board/internal/persistence"
	"go.uber.org/zap"
)

// saver writes snapshots in the background. Only the latest pending snapshot
// is written; intermediate ones are dropped. The starting snapshot of the
// game goes to its own bridge, when there is one.
type saver struct {
	bridge  persistence.Bridge
	origin  persistence.Bridge
	logger  *zap.Logger
	boardID string
	timeout time.Duration

	mu            sync.Mutex
	pending       *board.Snapshot
	pendingOrigin *board.Snapshot
	clear         bool
	closed        bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func newSaver(bridge, origin persistence.Bridge, boardID string, timeout time.Duration, logger *zap.Logger) *saver {
	sv := &saver{
		bridge:  bridge,
		origin:  origin,
		logger:  logger,
		boardID: boardID,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go sv.run()
	return sv
}

// save queues s. Boards with an empty deck are never written, so an
// unfinished setup cannot overwrite a saved game.
func (sv *saver) save(s board.Snapshot) {
	if len(s.Deck) == 0 {
		return
	}
	sv.mu.Lock()
	if sv.closed {
		sv.mu.Unlock()
		return
	}
	sv.pending = &s
	sv.mu.Unlock()
	sv.signal()
}

// clearStored drops any pending write and queues removal of the stored snapshot.
func (sv *saver) clearStored() {
	sv.mu.Lock()
	if sv.closed {
		sv.mu.Unlock()
		return
	}
	sv.pending = nil
	sv.clear = true
	sv.mu.Unlock()
	sv.signal()
}

// saveOrigin queues the starting snapshot. It is written even when its deck
// is empty, since resets need it whatever the deck size.
func (sv *saver) saveOrigin(s board.Snapshot) {
	if sv.origin == nil {
		return
	}
	sv.mu.Lock()
	if sv.closed {
		sv.mu.Unlock()
		return
	}
	sv.pendingOrigin = &s
	sv.mu.Unlock()
	sv.signal()
}

func (sv *saver) signal() {
	select {
	case sv.wake <- struct{}{}:
	default:
	}
}

func (sv *saver) run() {
	defer close(sv.done)
	for {
		select {
		case <-sv.wake:
			sv.flush()
		case <-sv.stop:
			sv.flush()
			return
		}
	}
}

func (sv *saver) flush() {
	sv.mu.Lock()
	snap, origin, clearFirst := sv.pending, sv.pendingOrigin, sv.clear
	sv.pending, sv.pendingOrigin, sv.clear = nil, nil, false
	sv.mu.Unlock()

	if clearFirst {
		ctx, cancel := context.WithTimeout(context.Background(), sv.timeout)
		err := sv.bridge.Clear(ctx)
		cancel()
		if err != nil && sv.logger != nil {
			sv.logger.Warn("failed to clear saved board",
				zap.String("board_id", sv.boardID),
				zap.Error(err),
			)
		}
	}

	if origin != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sv.timeout)
		err := sv.origin.Save(ctx, *origin)
		cancel()
		if err != nil && sv.logger != nil {
			sv.logger.Warn("failed to save starting board",
				zap.String("board_id", sv.boardID),
				zap.Error(err),
			)
		}
	}

	if snap == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sv.timeout)
	defer cancel()
	if err := sv.bridge.Save(ctx, *snap); err != nil {
		if sv.logger != nil {
			sv.logger.Warn("failed to save board",
				zap.String("board_id", sv.boardID),
				zap.Error(err),
			)
		}
		return
	}
	if sv.logger != nil {
		sv.logger.Debug("board saved",
			zap.String("board_id", sv.boardID),
			zap.Int("deck", len(snap.Deck)),
		)
	}
}

// close writes whatever is pending and stops the goroutine.
func (sv *saver) close() {
	sv.mu.Lock()
	if sv.closed {
		sv.mu.Unlock()
		<-sv.done
		return
	}
	sv.closed = true
	sv.mu.Unlock()

	close(sv.stop)
	<-sv.done
}
