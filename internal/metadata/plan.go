package metadata

import (
	"github.com/bagmint/bagmint/pkg/bag"
	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/mint"
	"github.com/bagmint/bagmint/pkg/types"
)

// Plan holds everything derived from a metadata file: the commitment tree
// targets in row order and the mint spends keyed by pre-launcher puzzle
// hash.
type Plan struct {
	Targets []bag.Target
	Spends  map[types.Hash]*mint.Spends
}

// BuildPlan turns metadata items into committed mints. With a positive
// requestedAmount each item is offered for that amount paid to
// targetPuzzleHash; otherwise items transfer directly to it.
func BuildPlan(items []Item, targetPuzzleHash, royaltyPuzzleHash types.Hash, royaltyRate uint64, creatorPubKey []byte, requestedAmount uint64) *Plan {
	plan := &Plan{Spends: make(map[types.Hash]*mint.Spends, len(items))}
	for _, item := range items {
		var spends *mint.Spends
		if requestedAmount > 0 {
			requested := []coin.Payment{{PuzzleHash: targetPuzzleHash, Amount: requestedAmount}}
			spends = mint.NewOffer(item.Program(), royaltyPuzzleHash, royaltyRate, requested, creatorPubKey)
		} else {
			spends = mint.NewDirect(item.Program(), royaltyPuzzleHash, royaltyRate, targetPuzzleHash, creatorPubKey)
		}
		target := spends.Target()
		plan.Targets = append(plan.Targets, target)
		plan.Spends[target.PuzzleHash] = spends
	}
	return plan
}

// SecureTree builds the commitment tree over the plan's targets.
func (p *Plan) SecureTree(leafWidth int) (*bag.Tree, error) {
	return bag.Secure(p.Targets, leafWidth)
}
