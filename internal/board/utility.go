package board

// CoinFace is the result of a coin flip.
type CoinFace string

const (
	CoinHeads CoinFace = "heads"
	CoinTails CoinFace = "tails"
)

// RollDie returns a six-sided die result in [1, 6].
func RollDie(rng RNG) int {
	return rng.IntN(6) + 1
}

// FlipCoin returns heads or tails with equal probability.
func FlipCoin(rng RNG) CoinFace {
	if rng.IntN(2) == 0 {
		return CoinHeads
	}
	return CoinTails
}
