package game

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rushboard/solo-board/internal/board"
	"github.com/rushboard/solo-board/internal/persistence"
	"go.uber.org/zap"
)

// originSuffix names the key holding a board's starting snapshot.
const originSuffix = "-origin"

// ManagerOptions configure the sessions a Manager opens.
type ManagerOptions struct {
	HistoryLimit int
	SaveTimeout  time.Duration
	// NewRNG creates the random source for each new session. Nil uses the
	// Session default.
	NewRNG func() board.RNG
	// ReplayDir, when set, records every board and writes its replay there
	// when the board is closed.
	ReplayDir string
}

// Manager keeps the live sessions, one per board id. Every session persists
// through the shared store under its board id, and its starting snapshot
// under the board id plus "-origin".
type Manager struct {
	logger   *zap.Logger
	store    persistence.Store
	opts     ManagerOptions
	recorder *ReplayRecorder

	mu       sync.RWMutex
	sessions map[string]*Session
	refs     map[string]int
	closing  map[string]chan struct{}

	handlerMu           sync.RWMutex
	notificationHandler NotificationHandler
}

// NewManager creates a manager. store may be nil to disable persistence.
func NewManager(store persistence.Store, opts ManagerOptions, logger *zap.Logger) *Manager {
	m := &Manager{
		logger:   logger,
		store:    store,
		opts:     opts,
		sessions: make(map[string]*Session),
		refs:     make(map[string]int),
		closing:  make(map[string]chan struct{}),
	}
	if opts.ReplayDir != "" {
		m.recorder = NewReplayRecorder(logger, opts.ReplayDir)
	}
	return m
}

// SetNotificationHandler sets the handler for notifications from every
// session.
func (m *Manager) SetNotificationHandler(handler NotificationHandler) {
	m.handlerMu.Lock()
	defer m.handlerMu.Unlock()
	m.notificationHandler = handler
}

// Replays returns the replay recorder, or nil when recording is off.
func (m *Manager) Replays() *ReplayRecorder {
	return m.recorder
}

func (m *Manager) dispatch(n GameNotification) {
	if m.recorder != nil {
		m.recorder.Record(n)
	}

	m.handlerMu.RLock()
	handler := m.notificationHandler
	m.handlerMu.RUnlock()

	if handler != nil {
		handler(n)
	}
}

// Open returns the session for boardID, resuming it from the store the first
// time it is opened. An empty boardID creates a new board with a fresh id.
// Ids ending in "-origin" are reserved.
//
// Every Open takes a reference on the session; Release drops it and closes
// the session once the last reference is gone. A board that is still being
// closed is reopened only after its final save.
func (m *Manager) Open(ctx context.Context, boardID string) (*Session, error) {
	if boardID == "" {
		boardID = uuid.NewString()
	}
	if err := validateBoardID(boardID); err != nil {
		return nil, fmt.Errorf("failed to open board: %w", err)
	}

	for {
		m.mu.Lock()
		if s, ok := m.sessions[boardID]; ok {
			m.refs[boardID]++
			m.mu.Unlock()
			return s, nil
		}
		closing, ok := m.closing[boardID]
		if !ok {
			break
		}
		m.mu.Unlock()

		select {
		case <-closing:
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to open board: %w", ctx.Err())
		}
	}
	defer m.mu.Unlock()

	opts := Options{
		HistoryLimit: m.opts.HistoryLimit,
		SaveTimeout:  m.opts.SaveTimeout,
		Logger:       m.logger,
	}
	if m.opts.NewRNG != nil {
		opts.RNG = m.opts.NewRNG()
	}
	if m.store != nil {
		opts.Bridge = persistence.Bind(m.store, boardID)
		opts.OriginBridge = persistence.Bind(m.store, boardID+originSuffix)
	}

	s := OpenSession(ctx, boardID, opts)
	s.SetNotificationHandler(m.dispatch)
	if m.recorder != nil {
		m.recorder.StartRecording(boardID, s.Snapshot())
	}
	m.sessions[boardID] = s
	m.refs[boardID] = 1

	if m.logger != nil {
		m.logger.Info("board opened", zap.String("board_id", boardID))
	}
	return s, nil
}

// Get returns an open session.
func (m *Manager) Get(boardID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[boardID]
	return s, ok
}

// Release drops one reference taken by Open. The session is closed, and its
// pending save and replay flushed, when no references remain. It reports
// whether the session was closed.
func (m *Manager) Release(s *Session) bool {
	m.mu.Lock()
	if m.sessions[s.ID()] != s {
		m.mu.Unlock()
		return false
	}
	m.refs[s.ID()]--
	if m.refs[s.ID()] > 0 {
		m.mu.Unlock()
		return false
	}
	done := m.detach(s.ID())
	m.mu.Unlock()

	m.finish(s, done)
	return true
}

// Remove closes a session whatever its references, flushing its pending save
// and replay.
func (m *Manager) Remove(boardID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[boardID]
	if !ok {
		m.mu.Unlock()
		return false
	}
	done := m.detach(boardID)
	m.mu.Unlock()

	m.finish(s, done)
	return true
}

// detach must be called with m.mu held.
func (m *Manager) detach(boardID string) chan struct{} {
	delete(m.sessions, boardID)
	delete(m.refs, boardID)
	done := make(chan struct{})
	m.closing[boardID] = done
	return done
}

func (m *Manager) finish(s *Session, done chan struct{}) {
	m.closeSession(s)

	m.mu.Lock()
	delete(m.closing, s.ID())
	m.mu.Unlock()
	close(done)
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.refs = make(map[string]int)
	m.mu.Unlock()

	for _, s := range sessions {
		m.closeSession(s)
	}
	if m.logger != nil {
		m.logger.Info("all boards closed", zap.Int("count", len(sessions)))
	}
}

func (m *Manager) closeSession(s *Session) {
	s.Close()
	if m.recorder != nil {
		if err := m.recorder.SaveReplay(s.ID()); err != nil && m.logger != nil {
			m.logger.Warn("failed to save replay", zap.String("board_id", s.ID()), zap.Error(err))
		}
	}
	if m.logger != nil {
		m.logger.Info("board closed", zap.String("board_id", s.ID()))
	}
}

func validateBoardID(boardID string) error {
	if strings.HasSuffix(boardID, originSuffix) {
		return fmt.Errorf("%w: %q is reserved", persistence.ErrInvalidKey, boardID)
	}
	return persistence.ValidateKey(boardID + originSuffix)
}
