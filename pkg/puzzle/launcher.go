package puzzle

import (
	"fmt"

	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/types"
)

// NewLauncher returns the uncurried singleton launcher. Its puzzle hash is
// a protocol constant, so a launcher coin's ID depends only on its parent.
func NewLauncher() *Program {
	return New(LauncherPuzzleHash)
}

// LauncherSolution builds (singleton_full_puzzle_hash amount key_value_list).
func LauncherSolution(fullPuzzleHash types.Hash, amount uint64, keyValues *clvm.Value) *clvm.Value {
	if keyValues == nil {
		keyValues = clvm.Nil()
	}
	return clvm.List(clvm.Bytes32(fullPuzzleHash), clvm.Int(amount), keyValues)
}

func init() {
	register(LauncherPuzzleHash, runLauncher)
}

// runLauncher creates the eve singleton and announces its own solution's
// tree hash. The pre-launcher asserts that announcement, pinning the eve
// puzzle the launcher may create.
func runLauncher(p *Program, solution *clvm.Value) ([]coin.Condition, error) {
	if len(p.Args) != 0 {
		return nil, fmt.Errorf("%w: launcher takes no curried parameters", ErrBadParameter)
	}
	items, ok := solution.ListItems()
	if !ok || len(items) != 3 {
		return nil, fmt.Errorf("%w: launcher solution must be (full_puzzle_hash amount key_value_list)", ErrBadSolution)
	}
	phBytes, ok := items[0].AtomBytes()
	if !ok {
		return nil, fmt.Errorf("%w: full puzzle hash must be an atom", ErrBadSolution)
	}
	fullHash, err := types.BytesToHash(phBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: full puzzle hash: %v", ErrBadSolution, err)
	}
	amount, err := clvm.Uint64FromValue(items[1])
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", ErrBadSolution, err)
	}
	return []coin.Condition{
		coin.CreateCoin{PuzzleHash: fullHash, Amount: amount},
		coin.CreateCoinAnnouncement{Message: solution.TreeHash().Bytes()},
	}, nil
}
