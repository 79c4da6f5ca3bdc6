package board

// Card is a single card extracted from a deck image. Cards are never mutated;
// ID is the only key used to join zones and card states.
type Card struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

// Rotation values for CardState.
const (
	RotationAttack  = 0
	RotationDefense = -90
)

// CardState is the presentation of a card: attack/defense rotation and
// face-down visibility. It is tracked independently of the card's zone.
type CardState struct {
	Rotation int  `json:"rotation"`
	Hidden   bool `json:"hidden"`
}

// DefaultCardState is face-up attack position.
var DefaultCardState = CardState{Rotation: RotationAttack, Hidden: false}

// FaceDownDefense reports whether the state is the "set" position.
func (cs CardState) FaceDownDefense() bool {
	return cs.Hidden && cs.Rotation == RotationDefense
}
