package persistence

import (
	"fmt"
	"testing"

	"github.com/rushboard/solo-board/internal/board"
	"github.com/stretchr/testify/require"
)

type identityRNG struct{}

func (identityRNG) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

func (identityRNG) IntN(int) int { return 0 }

func sampleSnapshot(t *testing.T) board.Snapshot {
	t.Helper()
	main := make([]board.Card, 10)
	for i := range main {
		id := fmt.Sprintf("c%d", i+1)
		main[i] = board.Card{ID: id, Image: "img/" + id + ".png"}
	}
	extra := []board.Card{{ID: "x1", Image: "img/x1.png"}}

	s, err := board.NewInitialSnapshot(main, extra, identityRNG{})
	require.NoError(t, err)

	// hand c1..c4, deck c5..c10
	s, ok := s.Move("c1", string(board.ZoneMonster2))
	require.True(t, ok)
	s, ok = s.SetFaceDownDefense("c1")
	require.True(t, ok)
	s, ok = s.SendTopToGrave()
	require.True(t, ok)
	return s
}
