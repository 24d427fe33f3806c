// Package bag builds deterministic commitment trees of coin creations. A
// tree compresses any number of intended coins into a single root puzzle
// hash; spending the root and its descendants recreates every committed
// coin, and nothing else, in any order an operator chooses.
package bag

import (
	"errors"
	"fmt"

	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/puzzle"
	"github.com/bagmint/bagmint/pkg/types"
)

// NodeAnnouncementMessage is announced by every tree node spend. Fee spends
// assert it so fees cannot be separated from the node spend they pay for.
// The message carries no content; node puzzles hardcode their spends and
// take no solution.
var NodeAnnouncementMessage = []byte("$")

var (
	ErrNoTargets    = errors.New("bag: no targets")
	ErrLeafWidth    = errors.New("bag: leaf width must be at least 2")
	ErrUnknownChild = errors.New("bag: puzzle hash not in tree")
)

// Target is one committed coin creation: a puzzle hash and an amount. The
// puzzle hash doubles as the hint memo on the created coin.
type Target struct {
	PuzzleHash types.Hash `json:"puzzle_hash"`
	Amount     uint64     `json:"amount"`
}

// Condition renders the target as its coin creation.
func (t Target) Condition() coin.CreateCoin {
	return coin.CreateCoin{
		PuzzleHash: t.PuzzleHash,
		Amount:     t.Amount,
		Memos:      [][]byte{t.PuzzleHash.Bytes()},
	}
}

// node is a tree interior: the quoted puzzle that creates a set of child
// coins, and the amount the node coin carries (the sum of its subtree).
type node struct {
	puzzle *puzzle.Program
	amount uint64
}

// Tree is a built commitment tree: the root puzzle hash plus the parent
// lookup needed to regenerate any node spend.
type Tree struct {
	root      types.Hash
	leafWidth int
	// parents maps each created puzzle hash (target or interior) to the
	// node whose spend creates it.
	parents map[types.Hash]node
}

// Batch splits targets into consecutive groups of at most leafWidth.
func Batch(targets []Target, leafWidth int) [][]Target {
	var out [][]Target
	for len(targets) > leafWidth {
		out = append(out, targets[:leafWidth])
		targets = targets[leafWidth:]
	}
	if len(targets) > 0 {
		out = append(out, targets)
	}
	return out
}

// Secure builds the commitment tree over targets. The same targets in the
// same order always produce the same root; reordering changes it.
func Secure(targets []Target, leafWidth int) (*Tree, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	if leafWidth < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrLeafWidth, leafWidth)
	}

	t := &Tree{leafWidth: leafWidth, parents: make(map[types.Hash]node)}

	level := targets
	for len(level) > 1 {
		var next []Target
		for _, batch := range Batch(level, leafWidth) {
			conds := make([]coin.Condition, 0, len(batch)+1)
			conds = append(conds, coin.CreateCoinAnnouncement{Message: NodeAnnouncementMessage})
			var total uint64
			for _, target := range batch {
				conds = append(conds, target.Condition())
				total += target.Amount
			}
			p := puzzle.Quote(conds...)
			n := node{puzzle: p, amount: total}
			for _, target := range batch {
				t.parents[target.PuzzleHash] = n
			}
			next = append(next, Target{PuzzleHash: p.PuzzleHash(), Amount: total})
		}
		level = next
	}

	// A single target needs no tree at all; its puzzle hash is the root.
	t.root = level[0].PuzzleHash
	return t, nil
}

// Root returns the tree's root puzzle hash. This is the only value that
// must be published before any coin exists.
func (t *Tree) Root() types.Hash {
	return t.root
}

// LeafWidth returns the batching width the tree was built with.
func (t *Tree) LeafWidth() int {
	return t.leafWidth
}

// Size returns the number of entries in the parent lookup.
func (t *Tree) Size() int {
	return len(t.parents)
}

// Contains reports whether the tree creates a coin with this puzzle hash.
func (t *Tree) Contains(puzzleHash types.Hash) bool {
	_, ok := t.parents[puzzleHash]
	return ok
}

// ParentOf regenerates the spend of the node that creates puzzleHash, given
// the genesis coin that created the root. Returns a nil spend and the
// genesis ID when puzzleHash is the root itself (its parent is not a tree
// node). The root coin carries amount 0; funding for the amounts it creates
// rides in the same bundle, bound by the node announcement.
func (t *Tree) ParentOf(genesisID types.CoinID, puzzleHash types.Hash) (*coin.Spend, types.CoinID) {
	n, ok := t.parents[puzzleHash]
	if !ok {
		return nil, genesisID
	}
	_, parentID := t.ParentOf(genesisID, n.puzzle.PuzzleHash())
	amount := n.amount
	if parentID == genesisID {
		amount = 0
	}
	c := coin.NewCoin(parentID, n.puzzle.PuzzleHash(), amount)
	return coin.NewSpend(c, n.puzzle, clvm.Nil()), c.ID()
}

// SpendChain returns the node spends that take the tree from the genesis
// coin down to the creation of puzzleHash, root first. The caller decides
// how much of the chain still needs broadcasting; spends whose coins are
// already spent on the ledger are simply skipped there.
func (t *Tree) SpendChain(genesisID types.CoinID, puzzleHash types.Hash) ([]*coin.Spend, error) {
	if !t.Contains(puzzleHash) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChild, puzzleHash)
	}
	var reversed []*coin.Spend
	current := puzzleHash
	for {
		spend, _ := t.ParentOf(genesisID, current)
		if spend == nil {
			break
		}
		reversed = append(reversed, spend)
		current = spend.Coin.PuzzleHash
	}
	out := make([]*coin.Spend, len(reversed))
	for i, s := range reversed {
		out[len(reversed)-1-i] = s
	}
	return out, nil
}
