// Package game hosts live boards: each Session owns one board snapshot, its
// undo history, the starting snapshot used by resets, and the background
// saver that persists it.
package game

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rushboard/solo-board/internal/board"
	"github.com/rushboard/solo-board/internal/persistence"
	"go.uber.org/zap"
)

// DefaultSaveTimeout bounds a single background save.
const DefaultSaveTimeout = 5 * time.Second

// Options configure a Session.
type Options struct {
	// HistoryLimit caps the undo stack; zero or less keeps every step.
	HistoryLimit int
	// SaveTimeout bounds each background save. Defaults to DefaultSaveTimeout.
	SaveTimeout time.Duration
	// RNG drives shuffles, dice and coins. Defaults to a randomly seeded PCG.
	RNG board.RNG
	// Bridge persists the board. Nil disables persistence.
	Bridge persistence.Bridge
	// OriginBridge persists the snapshot built when the deck was loaded, so
	// resets after a restart start from a fresh game. Only used with Bridge.
	OriginBridge persistence.Bridge
	Logger *zap.Logger
}

// Session is one live board. All methods are safe for concurrent use;
// mutations are applied strictly one at a time in call order.
type Session struct {
	id           string
	logger       *zap.Logger
	rng          board.RNG
	bridge       persistence.Bridge
	originBridge persistence.Bridge
	saver        *saver

	mu      sync.Mutex
	current board.Snapshot
	origin  board.Snapshot
	history *board.History

	handlerMu           sync.RWMutex
	notificationHandler NotificationHandler
}

// NewSession creates a session holding an empty board.
func NewSession(id string, opts Options) *Session {
	rng := opts.RNG
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	timeout := opts.SaveTimeout
	if timeout <= 0 {
		timeout = DefaultSaveTimeout
	}

	s := &Session{
		id:      id,
		logger:  opts.Logger,
		rng:     rng,
		bridge:  opts.Bridge,
		current: board.EmptySnapshot(),
		origin:  board.EmptySnapshot(),
		history: board.NewHistory(opts.HistoryLimit),
	}
	if opts.Bridge != nil {
		s.originBridge = opts.OriginBridge
		s.saver = newSaver(opts.Bridge, opts.OriginBridge, id, timeout, opts.Logger)
	}
	return s
}

// OpenSession creates a session and resumes the persisted board if there is
// one. Resets start from the persisted starting snapshot; without one the
// resumed board stands in for it. A board whose live snapshot is missing but
// whose starting snapshot is stored resumes as that fresh game. A corrupt
// stored snapshot is discarded.
func OpenSession(ctx context.Context, id string, opts Options) *Session {
	s := NewSession(id, opts)
	if s.bridge == nil {
		return s
	}

	snap, ok := s.load(ctx, s.bridge, "board")
	var (
		origin   board.Snapshot
		originOK bool
	)
	if s.originBridge != nil {
		origin, originOK = s.load(ctx, s.originBridge, "starting board")
	}

	switch {
	case ok && originOK:
		s.current, s.origin = snap, origin
	case ok:
		s.current, s.origin = snap, snap
		if s.logger != nil && s.originBridge != nil {
			s.logger.Warn("no saved starting board, resets use the resumed board",
				zap.String("board_id", id),
			)
		}
	case originOK:
		s.current, s.origin = origin, origin
	default:
		return s
	}

	if s.logger != nil {
		s.logger.Info("resumed saved board",
			zap.String("board_id", id),
			zap.Int("cards", s.current.CardCount()),
		)
	}
	return s
}

// load reads one persisted snapshot. Corrupt snapshots are cleared; any
// failure leaves ok false.
func (s *Session) load(ctx context.Context, bridge persistence.Bridge, what string) (board.Snapshot, bool) {
	snap, ok, err := bridge.Load(ctx)
	switch {
	case errors.Is(err, persistence.ErrCorruptSnapshot):
		if s.logger != nil {
			s.logger.Warn("discarding corrupt saved "+what,
				zap.String("board_id", s.id),
				zap.Error(err),
			)
		}
		if err := bridge.Clear(ctx); err != nil && s.logger != nil {
			s.logger.Warn("failed to clear corrupt "+what, zap.String("board_id", s.id), zap.Error(err))
		}
		return board.Snapshot{}, false
	case err != nil:
		if s.logger != nil {
			s.logger.Warn("failed to load saved "+what,
				zap.String("board_id", s.id),
				zap.Error(err),
			)
		}
		return board.Snapshot{}, false
	}
	return snap, ok
}

// ID returns the board id.
func (s *Session) ID() string {
	return s.id
}

// SetNotificationHandler sets the handler for board notifications.
func (s *Session) SetNotificationHandler(handler NotificationHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.notificationHandler = handler
}

// Snapshot returns the current board.
func (s *Session) Snapshot() board.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Origin returns the starting snapshot used by resets.
func (s *Session) Origin() board.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.origin
}

// HistoryLen returns the number of undoable steps.
func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len()
}

// Apply runs an action against the board. A committed action records the
// previous board for undo, replaces the board, notifies and schedules a save.
// Uncommitted actions leave everything untouched.
func (s *Session) Apply(action board.Action) (board.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := board.Reduce(s.current, action, s.rng)
	if !ok {
		if s.logger != nil {
			s.logger.Debug("board action ignored",
				zap.String("board_id", s.id),
				zap.String("action", string(action.Kind)),
				zap.String("card_id", action.CardID),
				zap.String("anchor", action.Anchor),
			)
		}
		return s.current, false
	}

	s.history.Record(s.current)
	s.commit(next, NotifyBoardChanged, map[string]interface{}{"action": string(action.Kind)})
	return next, true
}

// Move drops cardID onto anchor (a card id or zone id).
func (s *Session) Move(cardID, anchor string) (board.Snapshot, bool) {
	return s.Apply(board.Action{Kind: board.ActionMove, CardID: cardID, Anchor: anchor})
}

// Draw moves n cards from the top of the deck to the hand.
func (s *Session) Draw(n int) (board.Snapshot, bool) {
	return s.Apply(board.Action{Kind: board.ActionDraw, Count: n})
}

// SmartDraw fills the hand up to five cards, or draws one.
func (s *Session) SmartDraw() (board.Snapshot, bool) {
	return s.Apply(board.Action{Kind: board.ActionSmartDraw})
}

func (s *Session) ShuffleDeck() (board.Snapshot, bool) {
	return s.Apply(board.Action{Kind: board.ActionShuffleDeck})
}

func (s *Session) ReturnFreeToTop() (board.Snapshot, bool) {
	return s.Apply(board.Action{Kind: board.ActionReturnFreeTop})
}

func (s *Session) ReturnFreeToBottom() (board.Snapshot, bool) {
	return s.Apply(board.Action{Kind: board.ActionReturnFreeBottom})
}

func (s *Session) SendTopToGrave() (board.Snapshot, bool) {
	return s.Apply(board.Action{Kind: board.ActionSendTopToGrave})
}

func (s *Session) ToggleDisplay(cardID string) (board.Snapshot, bool) {
	return s.Apply(board.Action{Kind: board.ActionToggleDisplay, CardID: cardID})
}

func (s *Session) SetFaceDownDefense(cardID string) (board.Snapshot, bool) {
	return s.Apply(board.Action{Kind: board.ActionSetFaceDownDefense, CardID: cardID})
}

// Undo restores the board from before the last committed action.
func (s *Session) Undo() (board.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.history.Undo(s.current)
	if !ok {
		return s.current, false
	}
	s.commit(prev, NotifyUndo, nil)
	return prev, true
}

// FullReset restores the starting snapshot and clears history.
func (s *Session) FullReset() board.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Clear()
	next := board.FullReset(s.origin)
	s.commit(next, NotifyReset, map[string]interface{}{"mode": "full"})
	return next
}

// ShuffleReset redeals the starting deck and hand and clears history.
func (s *Session) ShuffleReset() board.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Clear()
	next := board.ShuffleReset(s.origin, s.rng)
	s.commit(next, NotifyReset, map[string]interface{}{"mode": "shuffle"})
	return next
}

// LoadDeck replaces the board with a fresh game built from main and extra.
// The stored board is discarded and the new board becomes the starting
// snapshot for resets, persisted alongside the live board.
func (s *Session) LoadDeck(main, extra []board.Card) (board.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := board.NewInitialSnapshot(main, extra, s.rng)
	if err != nil {
		return s.current, err
	}

	if s.saver != nil {
		s.saver.clearStored()
		s.saver.saveOrigin(next)
	}
	s.origin = next
	s.history.Clear()
	s.commit(next, NotifyDeckLoaded, map[string]interface{}{
		"main":  len(main),
		"extra": len(extra),
	})

	if s.logger != nil {
		s.logger.Info("deck loaded",
			zap.String("board_id", s.id),
			zap.Int("main", len(main)),
			zap.Int("extra", len(extra)),
		)
	}
	return next, nil
}

// RollDie returns a six-sided die result. The board is not changed.
func (s *Session) RollDie() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return board.RollDie(s.rng)
}

// FlipCoin returns heads or tails. The board is not changed.
func (s *Session) FlipCoin() board.CoinFace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return board.FlipCoin(s.rng)
}

// Close writes any pending save and stops the background saver.
func (s *Session) Close() {
	if s.saver != nil {
		s.saver.close()
	}
}

// commit must be called with s.mu held.
func (s *Session) commit(next board.Snapshot, kind string, data map[string]interface{}) {
	s.current = next
	if s.saver != nil {
		s.saver.save(next)
	}

	if data == nil {
		data = make(map[string]interface{}, 2)
	}
	data["snapshot"] = next
	data["history"] = s.history.Len()
	s.emitNotification(GameNotification{
		Type:      kind,
		BoardID:   s.id,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (s *Session) emitNotification(notification GameNotification) {
	s.handlerMu.RLock()
	handler := s.notificationHandler
	s.handlerMu.RUnlock()

	if handler != nil {
		handler(notification)
	}
}
