package clvm

import (
	"github.com/bagmint/bagmint/pkg/crypto"
	"github.com/bagmint/bagmint/pkg/types"
)

// Domain-separating prefixes for tree hashing. An atom and a pair can never
// collide, and neither can collide with a plain 64-byte hash concatenation.
const (
	atomPrefix = 0x01
	pairPrefix = 0x02
)

// HashAtom computes the tree hash of an atom: H(0x01 || atom).
func HashAtom(b []byte) types.Hash {
	return crypto.HashOf([]byte{atomPrefix}, b)
}

// HashPair computes the tree hash of a pair from its children's tree
// hashes: H(0x02 || first || rest).
func HashPair(first, rest types.Hash) types.Hash {
	return crypto.HashOf([]byte{pairPrefix}, first[:], rest[:])
}

// TreeHash computes the tree hash of a value. This matches what the ledger
// computes when hashing a revealed puzzle, so hashes derived off-chain
// before any spend are bit-identical to hashes verified on-chain.
func (v *Value) TreeHash() types.Hash {
	if !v.isPair {
		return HashAtom(v.atom)
	}
	return HashPair(v.first.TreeHash(), v.rest.TreeHash())
}

// NilHash is the tree hash of the empty atom.
func NilHash() types.Hash {
	return HashAtom(nil)
}
