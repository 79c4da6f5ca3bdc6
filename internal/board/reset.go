package board

import (
	"fmt"
	"maps"
	"slices"
)

// OpeningHandSize is the number of cards dealt to the hand at game start and
// on a shuffle reset.
const OpeningHandSize = 4

// RNG is the source of randomness for shuffles, dice and coins.
// *math/rand/v2.Rand satisfies it; tests inject deterministic stubs.
type RNG interface {
	// Perm returns a permutation of [0, n).
	Perm(n int) []int
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// NewInitialSnapshot builds the starting board for a freshly cut deck: the
// main deck is shuffled, the first OpeningHandSize cards form the hand and
// the rest the deck. The extra deck keeps its order. All other zones and the
// state map start empty.
func NewInitialSnapshot(main, extra []Card, rng RNG) (Snapshot, error) {
	s := EmptySnapshot()
	s.Hand, s.Deck = deal(shuffle(main, rng))
	s.Extra = slices.Clone(extra)
	if s.Extra == nil {
		s.Extra = []Card{}
	}
	if err := s.Validate(); err != nil {
		return EmptySnapshot(), fmt.Errorf("build initial snapshot: %w", err)
	}
	return s, nil
}

// FullReset returns the starting snapshot unchanged.
func FullReset(origin Snapshot) Snapshot {
	return origin
}

// ShuffleReset reshuffles the starting deck and hand together and deals a new
// opening hand. Every other zone and the state map come from origin.
func ShuffleReset(origin Snapshot, rng RNG) Snapshot {
	next := origin
	next.Hand, next.Deck = deal(shuffle(concat(origin.Deck, origin.Hand), rng))
	next.States = maps.Clone(origin.States)
	if next.States == nil {
		next.States = map[string]CardState{}
	}
	return next
}

// shuffle returns a uniformly permuted copy of cards.
func shuffle(cards []Card, rng RNG) []Card {
	perm := rng.Perm(len(cards))
	out := make([]Card, len(cards))
	for i, p := range perm {
		out[i] = cards[p]
	}
	return out
}

// deal splits cards into an opening hand and the remaining deck.
func deal(cards []Card) (hand, deck []Card) {
	n := min(OpeningHandSize, len(cards))
	hand = slices.Clone(cards[:n])
	deck = slices.Clone(cards[n:])
	if hand == nil {
		hand = []Card{}
	}
	if deck == nil {
		deck = []Card{}
	}
	return hand, deck
}
