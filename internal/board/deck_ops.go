package board

import "slices"

// SmartDrawHandSize is the hand size SmartDraw draws up to.
const SmartDrawHandSize = 5

// Draw moves the top n cards of the deck to the end of the hand, keeping
// their order. It does nothing when the deck holds fewer than n cards.
func (s Snapshot) Draw(n int) (Snapshot, bool) {
	if n <= 0 || len(s.Deck) < n {
		return s, false
	}
	next := s
	next.Hand = concat(s.Hand, s.Deck[:n])
	next.Deck = slices.Clone(s.Deck[n:])
	return next, true
}

// SmartDraw fills the hand up to SmartDrawHandSize cards, or draws a single
// card when the hand is already that large.
func (s Snapshot) SmartDraw() (Snapshot, bool) {
	if n := SmartDrawHandSize - len(s.Hand); n > 0 {
		return s.Draw(n)
	}
	return s.Draw(1)
}

// ShuffleDeck permutes the deck.
func (s Snapshot) ShuffleDeck(rng RNG) (Snapshot, bool) {
	if len(s.Deck) == 0 {
		return s, false
	}
	return s.withZone(ZoneDeck, shuffle(s.Deck, rng)), true
}

// ReturnFreeToTop puts the free zone, in order, on top of the deck.
func (s Snapshot) ReturnFreeToTop() (Snapshot, bool) {
	if len(s.Free) == 0 {
		return s, false
	}
	next := s
	next.Deck = concat(s.Free, s.Deck)
	next.Free = []Card{}
	return next, true
}

// ReturnFreeToBottom puts the free zone, in order, at the bottom of the deck.
func (s Snapshot) ReturnFreeToBottom() (Snapshot, bool) {
	if len(s.Free) == 0 {
		return s, false
	}
	next := s
	next.Deck = concat(s.Deck, s.Free)
	next.Free = []Card{}
	return next, true
}

// SendTopToGrave moves the top card of the deck to the front of the grave;
// the grave is kept most-recent-first.
func (s Snapshot) SendTopToGrave() (Snapshot, bool) {
	if len(s.Deck) == 0 {
		return s, false
	}
	next := s
	next.Grave = insertCard(s.Grave, 0, s.Deck[0])
	next.Deck = slices.Clone(s.Deck[1:])
	return next, true
}
