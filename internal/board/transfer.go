package board

// Move drops the card cardID onto anchor, which is either another card's id
// or a zone id. It returns the resulting snapshot and whether the move was
// committed. Uncommitted moves return s unchanged:
//   - the card was dropped onto itself
//   - the card is not on the board
//   - the anchor is neither a card nor a zone
//   - the destination is an occupied single-card zone
//
// Dropping onto a card in the same ordered zone reorders that zone. Any other
// drop transfers the card: onto a deck card puts it on top of the deck, onto
// the empty deck area puts it at the bottom, onto a card in another ordered
// zone inserts it right after that card, and onto an ordered zone's empty
// area appends it. A card leaving or entering a single-card zone has its
// state reset to DefaultCardState.
func (s Snapshot) Move(cardID, anchor string) (Snapshot, bool) {
	if cardID == anchor {
		return s, false
	}

	from, ok := s.Locate(cardID)
	if !ok {
		return s, false
	}

	to, anchorIsCard := s.Locate(anchor)
	if !anchorIsCard {
		to = ZoneID(anchor)
		if !to.Valid() {
			return s, false
		}
	}

	if to.Single() && s.Zones[to] != nil {
		return s, false
	}

	if from == to && from.Ordered() && anchorIsCard {
		return s.reorder(from, cardID, anchor), true
	}
	return s.transfer(from, to, cardID, anchor, anchorIsCard), true
}

// reorder moves cardID to the index currently held by anchorID, shifting the
// cards in between.
func (s Snapshot) reorder(z ZoneID, cardID, anchorID string) Snapshot {
	cards := s.zone(z)
	return s.withZone(z, arrayMove(cards, indexOf(cards, cardID), indexOf(cards, anchorID)))
}

func (s Snapshot) transfer(from, to ZoneID, cardID, anchor string, anchorIsCard bool) Snapshot {
	card, _ := s.Card(cardID)
	next := s

	if from.Single() {
		next = next.withState(cardID, DefaultCardState)
		next = next.withSlot(from, nil)
	} else {
		next = next.withZone(from, withoutCard(next.zone(from), cardID))
	}

	if to.Single() {
		next = next.withSlot(to, &card)
		return next.withState(card.ID, DefaultCardState)
	}

	target := next.zone(to)
	switch {
	case to == ZoneDeck && anchorIsCard:
		target = insertCard(target, 0, card)
	case to == ZoneDeck:
		target = insertCard(target, len(target), card)
	default:
		at := len(target)
		if anchorIsCard {
			if i := indexOf(target, anchor); i >= 0 {
				at = i + 1
			}
		}
		target = insertCard(target, at, card)
	}
	return next.withZone(to, target)
}

// arrayMove returns a copy of cards with the element at from relocated to
// index to.
func arrayMove(cards []Card, from, to int) []Card {
	out := make([]Card, 0, len(cards))
	out = append(out, cards[:from]...)
	out = append(out, cards[from+1:]...)
	return insertCard(out, to, cards[from])
}
