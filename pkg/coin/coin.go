// Package coin defines coins, spends, the condition vocabulary, and
// intra-bundle validation for the bagmint coin set.
package coin

import (
	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/crypto"
	"github.com/bagmint/bagmint/pkg/types"
)

// Coin is an immutable (parent id, puzzle hash, amount) triple. Coins are
// created by spends and consumed exactly once; the ID fixes all three
// fields forever.
type Coin struct {
	Parent     types.CoinID `json:"parent_coin_info"`
	PuzzleHash types.Hash   `json:"puzzle_hash"`
	Amount     uint64       `json:"amount"`
}

// NewCoin constructs a coin.
func NewCoin(parent types.CoinID, puzzleHash types.Hash, amount uint64) Coin {
	return Coin{Parent: parent, PuzzleHash: puzzleHash, Amount: amount}
}

// ID computes the coin identifier:
// BLAKE3(parent || puzzle_hash || canonical_amount_atom).
// The amount uses the canonical integer atom encoding so the same triple
// always yields the same ID and no two distinct triples collide.
func (c Coin) ID() types.CoinID {
	h := crypto.HashOf(c.Parent.Bytes(), c.PuzzleHash.Bytes(), clvm.IntBytes(c.Amount))
	return types.CoinID(h)
}
