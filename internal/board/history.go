package board

import "slices"

// DefaultHistoryLimit bounds the undo stack when no limit is configured.
const DefaultHistoryLimit = 200

// History is the undo stack. It stores whole snapshots; since snapshots share
// unchanged zones, consecutive entries are cheap.
//
// History is not safe for concurrent use; its owner serialises access.
type History struct {
	limit   int
	entries []Snapshot
}

// NewHistory creates a history holding at most limit snapshots. A limit of
// zero or less keeps every snapshot.
func NewHistory(limit int) *History {
	return &History{
		limit:   limit,
		entries: make([]Snapshot, 0, 32),
	}
}

// Record pushes the state a mutation is about to replace. When the stack is
// full the oldest entry is dropped.
func (h *History) Record(s Snapshot) {
	h.entries = append(h.entries, s)
	if h.limit > 0 && len(h.entries) > h.limit {
		h.entries = slices.Clone(h.entries[len(h.entries)-h.limit:])
	}
}

// Undo pops the most recent snapshot. With an empty stack it returns current
// and false.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.entries) == 0 {
		return current, false
	}
	idx := len(h.entries) - 1
	prev := h.entries[idx]
	h.entries[idx] = Snapshot{}
	h.entries = h.entries[:idx]
	return prev, true
}

// Clear drops every recorded snapshot.
func (h *History) Clear() {
	clear(h.entries)
	h.entries = h.entries[:0]
}

// Len returns the number of undoable steps.
func (h *History) Len() int {
	return len(h.entries)
}

// Limit returns the configured bound (<= 0 means unbounded).
func (h *History) Limit() int {
	return h.limit
}
