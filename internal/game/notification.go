package game

import "time"

// Notification types emitted by a Session.
const (
	NotifyBoardChanged = "board_changed"
	NotifyUndo         = "undo"
	NotifyReset        = "reset"
	NotifyDeckLoaded   = "deck_loaded"
)

// GameNotification describes a committed change to a board.
type GameNotification struct {
	Type      string                 // One of the Notify* constants
	BoardID   string                 // Board the change happened on
	Timestamp time.Time              // When the change was committed
	Data      map[string]interface{} // "snapshot", "history" and, for actions, "action"
}

// NotificationHandler receives notifications in commit order. It is called
// while the session is locked and must not call back into the session.
type NotificationHandler func(notification GameNotification)
