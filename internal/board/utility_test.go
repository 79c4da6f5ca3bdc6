package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollDie(t *testing.T) {
	assert.Equal(t, 1, RollDie(identityRNG{val: 0}))
	assert.Equal(t, 6, RollDie(identityRNG{val: 5}))
	assert.Equal(t, 6, RollDie(reverseRNG{}))
}

func TestFlipCoin(t *testing.T) {
	assert.Equal(t, CoinHeads, FlipCoin(identityRNG{val: 0}))
	assert.Equal(t, CoinTails, FlipCoin(identityRNG{val: 1}))
}
