package board

// ActionKind names a board mutation that can be dispatched through Reduce.
type ActionKind string

const (
	ActionMove               ActionKind = "move"
	ActionDraw               ActionKind = "draw"
	ActionSmartDraw          ActionKind = "smart_draw"
	ActionShuffleDeck        ActionKind = "shuffle_deck"
	ActionReturnFreeTop      ActionKind = "return_free_top"
	ActionReturnFreeBottom   ActionKind = "return_free_bottom"
	ActionSendTopToGrave     ActionKind = "send_top_to_grave"
	ActionToggleDisplay      ActionKind = "toggle_display"
	ActionSetFaceDownDefense ActionKind = "set_face_down_defense"
)

// Valid reports whether k is a known action kind.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionMove, ActionDraw, ActionSmartDraw, ActionShuffleDeck,
		ActionReturnFreeTop, ActionReturnFreeBottom, ActionSendTopToGrave,
		ActionToggleDisplay, ActionSetFaceDownDefense:
		return true
	}
	return false
}

// Action is a single user gesture translated into board terms.
type Action struct {
	Kind   ActionKind `json:"type"`
	CardID string     `json:"card_id,omitempty"`
	Anchor string     `json:"anchor,omitempty"`
	Count  int        `json:"count,omitempty"`
}

// Reduce applies an action to a snapshot. It is a pure function of its
// inputs (plus rng for shuffles) and reports whether anything changed; an
// uncommitted action returns s unchanged.
func Reduce(s Snapshot, a Action, rng RNG) (Snapshot, bool) {
	switch a.Kind {
	case ActionMove:
		return s.Move(a.CardID, a.Anchor)
	case ActionDraw:
		return s.Draw(a.Count)
	case ActionSmartDraw:
		return s.SmartDraw()
	case ActionShuffleDeck:
		return s.ShuffleDeck(rng)
	case ActionReturnFreeTop:
		return s.ReturnFreeToTop()
	case ActionReturnFreeBottom:
		return s.ReturnFreeToBottom()
	case ActionSendTopToGrave:
		return s.SendTopToGrave()
	case ActionToggleDisplay:
		zone, ok := s.Locate(a.CardID)
		if !ok {
			return s, false
		}
		return s.ToggleDisplay(a.CardID, zone)
	case ActionSetFaceDownDefense:
		return s.SetFaceDownDefense(a.CardID)
	}
	return s, false
}
