package coin

import (
	"fmt"
	"math"

	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/types"
)

// Puzzle is a predicate program revealed by a spend. Implementations live
// in pkg/puzzle; validation only needs the hash and the evaluation.
type Puzzle interface {
	// PuzzleHash returns the tree hash identifying the puzzle.
	PuzzleHash() types.Hash
	// Run evaluates the puzzle against a solution, returning the
	// conditions it imposes. Pure; an error rejects the whole bundle.
	Run(solution *clvm.Value) ([]Condition, error)
}

// Spend consumes one coin by revealing its puzzle and a solution.
type Spend struct {
	Coin     Coin
	Puzzle   Puzzle
	Solution *clvm.Value
}

// NewSpend constructs a spend. A nil solution is treated as the empty atom.
func NewSpend(c Coin, p Puzzle, solution *clvm.Value) *Spend {
	if solution == nil {
		solution = clvm.Nil()
	}
	return &Spend{Coin: c, Puzzle: p, Solution: solution}
}

// Additions runs the puzzle and returns the coins this spend creates.
func (s *Spend) Additions() ([]Coin, error) {
	conds, err := s.Puzzle.Run(s.Solution)
	if err != nil {
		return nil, err
	}
	var out []Coin
	for _, c := range conds {
		if cc, ok := c.(CreateCoin); ok {
			out = append(out, NewCoin(s.Coin.ID(), cc.PuzzleHash, cc.Amount))
		}
	}
	return out, nil
}

// BundleSignature is one Schnorr signature carried alongside a bundle,
// satisfying AggSigMe conditions for its public key.
type BundleSignature struct {
	PublicKey []byte `json:"public_key"`
	Signature []byte `json:"signature"`
}

// SpendBundle is an atomic group of spends. Either every assertion in every
// spend holds and all spends land together, or nothing moves.
type SpendBundle struct {
	Spends     []*Spend
	Signatures []BundleSignature
}

// NewSpendBundle constructs a bundle from spends.
func NewSpendBundle(spends ...*Spend) *SpendBundle {
	return &SpendBundle{Spends: spends}
}

// AddSignature appends a signature entry.
func (b *SpendBundle) AddSignature(publicKey, signature []byte) {
	b.Signatures = append(b.Signatures, BundleSignature{PublicKey: publicKey, Signature: signature})
}

// Merge appends another bundle's spends and signatures.
func (b *SpendBundle) Merge(other *SpendBundle) {
	b.Spends = append(b.Spends, other.Spends...)
	b.Signatures = append(b.Signatures, other.Signatures...)
}

// Removals returns the coins consumed by the bundle.
func (b *SpendBundle) Removals() []Coin {
	out := make([]Coin, len(b.Spends))
	for i, s := range b.Spends {
		out[i] = s.Coin
	}
	return out
}

// Additions returns all coins the bundle creates.
func (b *SpendBundle) Additions() ([]Coin, error) {
	var out []Coin
	for _, s := range b.Spends {
		adds, err := s.Additions()
		if err != nil {
			return nil, err
		}
		out = append(out, adds...)
	}
	return out, nil
}

// RemovalAmount sums the consumed coin amounts.
func (b *SpendBundle) RemovalAmount() (uint64, error) {
	var total uint64
	for _, s := range b.Spends {
		if total > math.MaxUint64-s.Coin.Amount {
			return 0, fmt.Errorf("removal amount overflow")
		}
		total += s.Coin.Amount
	}
	return total, nil
}
