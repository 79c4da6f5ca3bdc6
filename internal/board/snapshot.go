package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrInvalidSnapshot is returned by Validate when a snapshot breaks a board invariant.
var ErrInvalidSnapshot = errors.New("invalid board snapshot")

// Snapshot is the complete board at one instant: the five ordered zones, the
// seven single-card slots and the card state map.
//
// A Snapshot is a value and must be treated as immutable. Every operation
// returns a new Snapshot; zones that did not change share storage with the
// input, zones that did change are freshly allocated.
type Snapshot struct {
	Deck   []Card               `json:"deck"`
	Hand   []Card               `json:"hand"`
	Grave  []Card               `json:"grave"`
	Extra  []Card               `json:"extra"`
	Free   []Card               `json:"free"`
	Zones  map[ZoneID]*Card     `json:"zones"`
	States map[string]CardState `json:"card_states"`
}

// EmptySnapshot returns a board with every zone empty.
func EmptySnapshot() Snapshot {
	s := Snapshot{
		Deck:   []Card{},
		Hand:   []Card{},
		Grave:  []Card{},
		Extra:  []Card{},
		Free:   []Card{},
		Zones:  make(map[ZoneID]*Card, len(SingleZones)),
		States: map[string]CardState{},
	}
	for _, z := range SingleZones {
		s.Zones[z] = nil
	}
	return s
}

// UnmarshalJSON decodes a snapshot and fills in empty zones that the
// encoded form left out, so decoded snapshots compare equal to built ones.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	type plain Snapshot
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Snapshot(p).Normalized()
	return nil
}

// Normalized returns s with nil zones replaced by empty ones and every
// single-card zone key present.
func (s Snapshot) Normalized() Snapshot {
	for _, z := range OrderedZones {
		if s.zone(z) == nil {
			s = s.withZone(z, []Card{})
		}
	}
	zones := make(map[ZoneID]*Card, len(SingleZones))
	for k, v := range s.Zones {
		zones[k] = v
	}
	for _, z := range SingleZones {
		if _, ok := zones[z]; !ok {
			zones[z] = nil
		}
	}
	s.Zones = zones
	if s.States == nil {
		s.States = map[string]CardState{}
	}
	return s
}

// Validate checks the board invariants: every card id appears in exactly one
// zone, only known single-card zones are present and every rotation is legal.
func (s Snapshot) Validate() error {
	seen := make(map[string]ZoneID)
	check := func(z ZoneID, c Card) error {
		if c.ID == "" {
			return fmt.Errorf("%w: card without id in %s", ErrInvalidSnapshot, z)
		}
		if prev, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: card %s appears in both %s and %s", ErrInvalidSnapshot, c.ID, prev, z)
		}
		seen[c.ID] = z
		return nil
	}

	for _, z := range OrderedZones {
		for _, c := range s.zone(z) {
			if err := check(z, c); err != nil {
				return err
			}
		}
	}
	for z, c := range s.Zones {
		if !z.Single() {
			return fmt.Errorf("%w: unknown single-card zone %q", ErrInvalidSnapshot, z)
		}
		if c == nil {
			continue
		}
		if err := check(z, *c); err != nil {
			return err
		}
	}
	for id, st := range s.States {
		if st.Rotation != RotationAttack && st.Rotation != RotationDefense {
			return fmt.Errorf("%w: card %s has rotation %d", ErrInvalidSnapshot, id, st.Rotation)
		}
	}
	return nil
}

// Locate returns the zone currently holding cardID. Ordered zones are
// searched first, then the single-card slots.
func (s Snapshot) Locate(cardID string) (ZoneID, bool) {
	for _, z := range OrderedZones {
		if indexOf(s.zone(z), cardID) >= 0 {
			return z, true
		}
	}
	for _, z := range SingleZones {
		if c := s.Zones[z]; c != nil && c.ID == cardID {
			return z, true
		}
	}
	return "", false
}

// Card returns the card with the given id from whichever zone holds it.
func (s Snapshot) Card(cardID string) (Card, bool) {
	z, ok := s.Locate(cardID)
	if !ok {
		return Card{}, false
	}
	if z.Single() {
		return *s.Zones[z], true
	}
	cards := s.zone(z)
	return cards[indexOf(cards, cardID)], true
}

// Cards returns a copy of an ordered zone, or the occupant of a single-card
// zone as a zero- or one-element slice.
func (s Snapshot) Cards(z ZoneID) []Card {
	if z.Single() {
		if c := s.Zones[z]; c != nil {
			return []Card{*c}
		}
		return []Card{}
	}
	return slices.Clone(s.zone(z))
}

// CardCount returns the number of cards on the board.
func (s Snapshot) CardCount() int {
	n := 0
	for _, z := range OrderedZones {
		n += len(s.zone(z))
	}
	for _, c := range s.Zones {
		if c != nil {
			n++
		}
	}
	return n
}

// DraggableIDs lists every zone id followed by every card id. A presentation
// layer registers these as drag sources and drop targets.
func (s Snapshot) DraggableIDs() []string {
	ids := make([]string, 0, len(SingleZones)+len(OrderedZones)+s.CardCount())
	for _, z := range SingleZones {
		ids = append(ids, string(z))
	}
	for _, z := range OrderedZones {
		ids = append(ids, string(z))
	}
	for _, z := range OrderedZones {
		for _, c := range s.zone(z) {
			ids = append(ids, c.ID)
		}
	}
	for _, z := range SingleZones {
		if c := s.Zones[z]; c != nil {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func (s Snapshot) zone(z ZoneID) []Card {
	switch z {
	case ZoneDeck:
		return s.Deck
	case ZoneHand:
		return s.Hand
	case ZoneGrave:
		return s.Grave
	case ZoneExtra:
		return s.Extra
	case ZoneFree:
		return s.Free
	}
	return nil
}

// withZone replaces one ordered zone. s is already a copy, so only the
// replaced field differs from the caller's snapshot.
func (s Snapshot) withZone(z ZoneID, cards []Card) Snapshot {
	switch z {
	case ZoneDeck:
		s.Deck = cards
	case ZoneHand:
		s.Hand = cards
	case ZoneGrave:
		s.Grave = cards
	case ZoneExtra:
		s.Extra = cards
	case ZoneFree:
		s.Free = cards
	}
	return s
}

func (s Snapshot) withSlot(z ZoneID, c *Card) Snapshot {
	zones := maps.Clone(s.Zones)
	if zones == nil {
		zones = make(map[ZoneID]*Card, len(SingleZones))
	}
	zones[z] = c
	s.Zones = zones
	return s
}

func (s Snapshot) withState(cardID string, st CardState) Snapshot {
	states := maps.Clone(s.States)
	if states == nil {
		states = make(map[string]CardState, 1)
	}
	states[cardID] = st
	s.States = states
	return s
}

func indexOf(cards []Card, cardID string) int {
	return slices.IndexFunc(cards, func(c Card) bool { return c.ID == cardID })
}

func withoutCard(cards []Card, cardID string) []Card {
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		if c.ID != cardID {
			out = append(out, c)
		}
	}
	return out
}

func insertCard(cards []Card, at int, c Card) []Card {
	out := make([]Card, 0, len(cards)+1)
	out = append(out, cards[:at]...)
	out = append(out, c)
	return append(out, cards[at:]...)
}

func concat(a, b []Card) []Card {
	out := make([]Card, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
