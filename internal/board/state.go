package board

// State returns the presentation state of a card, or DefaultCardState when
// none has been recorded.
func (s Snapshot) State(cardID string) CardState {
	if st, ok := s.States[cardID]; ok {
		return st
	}
	return DefaultCardState
}

// ToggleDisplay advances the presentation of a card sitting in zone.
//
// In a monster zone the card cycles face-down -> face-up attack -> face-up
// defense -> face-up attack. In a spell or field zone only the face-down flag
// flips. Cards in ordered zones, and cards not on the board, are left alone.
func (s Snapshot) ToggleDisplay(cardID string, zone ZoneID) (Snapshot, bool) {
	if _, ok := s.Locate(cardID); !ok {
		return s, false
	}

	st := s.State(cardID)
	switch {
	case zone.Monster():
		switch {
		case st.Hidden:
			st = CardState{Rotation: RotationAttack, Hidden: false}
		case st.Rotation == RotationAttack:
			st.Rotation = RotationDefense
		default:
			st.Rotation = RotationAttack
		}
	case zone.SpellOrField():
		st.Hidden = !st.Hidden
	default:
		return s, false
	}
	return s.withState(cardID, st), true
}

// SetFaceDownDefense puts a card in the face-down defense ("set") position
// regardless of its current state.
func (s Snapshot) SetFaceDownDefense(cardID string) (Snapshot, bool) {
	if _, ok := s.Locate(cardID); !ok {
		return s, false
	}
	return s.withState(cardID, CardState{Rotation: RotationDefense, Hidden: true}), true
}
