package board

import "strings"

// ZoneID identifies a zone on the board. Drop anchors that are not card ids
// are interpreted as zone ids.
type ZoneID string

// Ordered zones hold a sequence of cards; order is meaningful.
const (
	ZoneDeck  ZoneID = "deck"
	ZoneHand  ZoneID = "hand"
	ZoneGrave ZoneID = "grave"
	ZoneExtra ZoneID = "extra"
	ZoneFree  ZoneID = "free"
)

// Single-card zones hold at most one card.
const (
	ZoneField    ZoneID = "field"
	ZoneMonster1 ZoneID = "monster1"
	ZoneMonster2 ZoneID = "monster2"
	ZoneMonster3 ZoneID = "monster3"
	ZoneSpell1   ZoneID = "spell1"
	ZoneSpell2   ZoneID = "spell2"
	ZoneSpell3   ZoneID = "spell3"
)

// OrderedZones lists the ordered zones in the order Locate searches them.
var OrderedZones = []ZoneID{ZoneDeck, ZoneHand, ZoneGrave, ZoneExtra, ZoneFree}

// SingleZones lists the single-card zones in the order Locate searches them.
var SingleZones = []ZoneID{
	ZoneMonster1, ZoneMonster2, ZoneMonster3,
	ZoneSpell1, ZoneSpell2, ZoneSpell3,
	ZoneField,
}

// Ordered reports whether the zone holds an ordered sequence of cards.
func (z ZoneID) Ordered() bool {
	switch z {
	case ZoneDeck, ZoneHand, ZoneGrave, ZoneExtra, ZoneFree:
		return true
	}
	return false
}

// Single reports whether the zone holds at most one card.
func (z ZoneID) Single() bool {
	switch z {
	case ZoneField, ZoneMonster1, ZoneMonster2, ZoneMonster3, ZoneSpell1, ZoneSpell2, ZoneSpell3:
		return true
	}
	return false
}

// Valid reports whether z names a known zone.
func (z ZoneID) Valid() bool {
	return z.Ordered() || z.Single()
}

// Monster reports whether z is one of the monster zones.
func (z ZoneID) Monster() bool {
	return z.Single() && strings.HasPrefix(string(z), "monster")
}

// SpellOrField reports whether z is a spell zone or the field zone.
func (z ZoneID) SpellOrField() bool {
	return z == ZoneField || (z.Single() && strings.HasPrefix(string(z), "spell"))
}

func (z ZoneID) String() string {
	return string(z)
}
