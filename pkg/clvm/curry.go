package clvm

import (
	"github.com/bagmint/bagmint/pkg/types"
)

// Operator atoms appearing in a curried program: apply, quote, cons.
var (
	opApply = []byte{0x02}
	opQuote = []byte{0x01}
	opCons  = []byte{0x04}
)

// Curry binds arguments into a module, producing the program
//
//	(a (q . mod) (c (q . arg1) (c (q . arg2) ... 1)))
//
// which evaluates mod with the bound arguments prepended to the solution.
func Curry(mod *Value, args ...*Value) *Value {
	env := Atom(opQuote) // the terminal "1" passes the solution through
	for i := len(args) - 1; i >= 0; i-- {
		quoted := Pair(Atom(opQuote), args[i])
		env = List(Atom(opCons), quoted, env)
	}
	return List(Atom(opApply), Pair(Atom(opQuote), mod), env)
}

// CurryHash computes the tree hash of Curry(mod, args...) from the module
// hash and the argument tree hashes alone, without constructing or
// evaluating the full program. This is how puzzle hashes are predicted
// before any spend occurs: the result is bit-identical to
// Curry(mod, args...).TreeHash().
func CurryHash(modHash types.Hash, argHashes ...types.Hash) types.Hash {
	nilH := HashAtom(nil)
	quoteH := HashAtom(opQuote)
	consH := HashAtom(opCons)
	applyH := HashAtom(opApply)

	env := quoteH // tree hash of the atom 1
	for i := len(argHashes) - 1; i >= 0; i-- {
		quotedArg := HashPair(quoteH, argHashes[i])
		env = HashPair(consH, HashPair(quotedArg, HashPair(env, nilH)))
	}

	quotedMod := HashPair(quoteH, modHash)
	return HashPair(applyH, HashPair(quotedMod, HashPair(env, nilH)))
}
