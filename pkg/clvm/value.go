// Package clvm implements the value model and content hashing used by the
// coin-set ledger: binary trees of atoms and pairs, the domain-prefixed
// tree hash, canonical integer atoms, and curried-puzzle hash computation.
//
// A puzzle is identified by its tree hash. Two puzzles with the same module
// hash and the same curried parameters have the same puzzle hash no matter
// how they were constructed; everything in this package is pure.
package clvm

import (
	"bytes"

	"github.com/bagmint/bagmint/pkg/types"
)

// Value is an immutable atom or pair. The zero value is the empty atom (nil).
type Value struct {
	atom   []byte
	first  *Value
	rest   *Value
	isPair bool
}

// Nil returns the empty atom, which also terminates proper lists.
func Nil() *Value {
	return &Value{}
}

// Atom returns an atom holding a copy of b.
func Atom(b []byte) *Value {
	return &Value{atom: bytes.Clone(b)}
}

// Bytes32 returns an atom holding the 32 bytes of h.
func Bytes32(h types.Hash) *Value {
	return Atom(h[:])
}

// Pair returns the pair (first . rest).
func Pair(first, rest *Value) *Value {
	return &Value{first: first, rest: rest, isPair: true}
}

// List returns a nil-terminated proper list of the given items.
func List(items ...*Value) *Value {
	v := Nil()
	for i := len(items) - 1; i >= 0; i-- {
		v = Pair(items[i], v)
	}
	return v
}

// IsAtom reports whether v is an atom.
func (v *Value) IsAtom() bool {
	return !v.isPair
}

// IsPair reports whether v is a pair.
func (v *Value) IsPair() bool {
	return v.isPair
}

// IsNil reports whether v is the empty atom.
func (v *Value) IsNil() bool {
	return !v.isPair && len(v.atom) == 0
}

// AtomBytes returns a copy of the atom contents, or false if v is a pair.
func (v *Value) AtomBytes() ([]byte, bool) {
	if v.isPair {
		return nil, false
	}
	return bytes.Clone(v.atom), true
}

// First returns the first element of a pair, or false if v is an atom.
func (v *Value) First() (*Value, bool) {
	if !v.isPair {
		return nil, false
	}
	return v.first, true
}

// Rest returns the rest element of a pair, or false if v is an atom.
func (v *Value) Rest() (*Value, bool) {
	if !v.isPair {
		return nil, false
	}
	return v.rest, true
}

// ListItems walks a nil-terminated proper list and returns its items.
// Returns false if v is not a proper list.
func (v *Value) ListItems() ([]*Value, bool) {
	var items []*Value
	for cur := v; ; {
		if cur.IsNil() {
			return items, true
		}
		if !cur.isPair {
			return nil, false
		}
		items = append(items, cur.first)
		cur = cur.rest
	}
}

// Equal reports whether two value trees are structurally identical.
func (v *Value) Equal(o *Value) bool {
	if v.isPair != o.isPair {
		return false
	}
	if !v.isPair {
		return bytes.Equal(v.atom, o.atom)
	}
	return v.first.Equal(o.first) && v.rest.Equal(o.rest)
}
