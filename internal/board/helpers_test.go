package board

import "fmt"

// identityRNG never reorders anything and always rolls its fixed value.
type identityRNG struct{ val int }

func (r identityRNG) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

func (r identityRNG) IntN(n int) int { return r.val % n }

// reverseRNG reverses every permutation.
type reverseRNG struct{}

func (reverseRNG) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = n - 1 - i
	}
	return p
}

func (reverseRNG) IntN(n int) int { return n - 1 }

func cards(prefix string, n int) []Card {
	out := make([]Card, n)
	for i := range out {
		id := fmt.Sprintf("%s%d", prefix, i+1)
		out[i] = Card{ID: id, Image: "img/" + id + ".png"}
	}
	return out
}

func ids(cs []Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

// testBoard returns deck c1..c36, hand h1..h4, extra x1..x3.
func testBoard() Snapshot {
	s := EmptySnapshot()
	s.Deck = cards("c", 36)
	s.Hand = cards("h", 4)
	s.Extra = cards("x", 3)
	return s
}
