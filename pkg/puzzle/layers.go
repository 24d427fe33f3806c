package puzzle

import (
	"fmt"

	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/types"
)

// The singleton struct is the pair (mod_hash . (launcher_id . launcher_ph))
// curried into every layer that needs the singleton's identity.

// SingletonStructValue builds the singleton struct for a launcher coin ID.
func SingletonStructValue(launcherID types.CoinID) *clvm.Value {
	return clvm.Pair(
		clvm.Bytes32(SingletonModHash),
		clvm.Pair(clvm.Bytes32(types.Hash(launcherID)), clvm.Bytes32(LauncherPuzzleHash)),
	)
}

// SingletonStructHash computes the struct's tree hash from components.
func SingletonStructHash(launcherID types.CoinID) types.Hash {
	return clvm.HashPair(
		clvm.HashAtom(SingletonModHash.Bytes()),
		clvm.HashPair(
			clvm.HashAtom(launcherID.Bytes()),
			clvm.HashAtom(LauncherPuzzleHash.Bytes()),
		),
	)
}

// NewTransferProgram builds the royalty transfer program for a singleton.
// Royalty rate is in hundredths of a percent.
func NewTransferProgram(launcherID types.CoinID, royaltyPuzzleHash types.Hash, royaltyRate uint64) *Program {
	return New(TransferProgramModHash,
		SingletonStructValue(launcherID),
		clvm.Bytes32(royaltyPuzzleHash),
		clvm.Int(royaltyRate),
	)
}

// NewOwnershipLayer wraps an inner puzzle with ownership and royalty
// enforcement. The owner starts empty; assignment is a later spend's
// concern.
func NewOwnershipLayer(launcherID types.CoinID, royaltyPuzzleHash types.Hash, royaltyRate uint64, inner Arg) *Program {
	return New(OwnershipModHash,
		clvm.Bytes32(OwnershipModHash),
		clvm.Nil(),
		NewTransferProgram(launcherID, royaltyPuzzleHash, royaltyRate),
		inner,
	)
}

// NewStateLayer wraps an inner puzzle with the item metadata.
func NewStateLayer(metadata *clvm.Value, inner Arg) *Program {
	return New(StateLayerModHash,
		clvm.Bytes32(StateLayerModHash),
		metadata,
		clvm.Bytes32(MetadataUpdaterPuzzleHash),
		inner,
	)
}

// NewSingleton wraps an inner puzzle into the singleton top layer.
func NewSingleton(launcherID types.CoinID, inner Arg) *Program {
	return New(SingletonModHash, SingletonStructValue(launcherID), inner)
}

// NewFullPuzzle composes singleton(state(ownership(inner))), the complete
// on-chain form of a minted item.
func NewFullPuzzle(launcherID types.CoinID, metadata *clvm.Value, royaltyPuzzleHash types.Hash, royaltyRate uint64, inner Arg) *Program {
	ownership := NewOwnershipLayer(launcherID, royaltyPuzzleHash, royaltyRate, inner)
	state := NewStateLayer(metadata, ownership)
	return NewSingleton(launcherID, state)
}

// FullPuzzleHash computes the composed puzzle hash from hashes alone,
// without constructing any program. The pre-launcher evaluator uses this
// to derive the intended final puzzle hash from its own coin ID.
func FullPuzzleHash(launcherID types.CoinID, metadataHash, royaltyPuzzleHash types.Hash, royaltyRate uint64, innerHash types.Hash) types.Hash {
	structHash := SingletonStructHash(launcherID)
	transferHash := clvm.CurryHash(TransferProgramModHash,
		structHash,
		clvm.HashAtom(royaltyPuzzleHash.Bytes()),
		clvm.HashAtom(clvm.IntBytes(royaltyRate)),
	)
	ownershipHash := clvm.CurryHash(OwnershipModHash,
		clvm.HashAtom(OwnershipModHash.Bytes()),
		clvm.NilHash(),
		transferHash,
		innerHash,
	)
	stateHash := clvm.CurryHash(StateLayerModHash,
		clvm.HashAtom(StateLayerModHash.Bytes()),
		metadataHash,
		clvm.HashAtom(MetadataUpdaterPuzzleHash.Bytes()),
		ownershipHash,
	)
	return clvm.CurryHash(SingletonModHash, structHash, stateHash)
}

func init() {
	register(SingletonModHash, runSingleton)
	register(StateLayerModHash, runStateLayer)
	register(OwnershipModHash, runOwnershipLayer)
}

// runSingleton evaluates the singleton top layer. Solution:
// (lineage_proof my_amount inner_solution). Odd amounts created by the
// inner puzzle are re-wrapped into the next singleton generation.
func runSingleton(p *Program, solution *clvm.Value) ([]coin.Condition, error) {
	items, ok := solution.ListItems()
	if !ok || len(items) != 3 {
		return nil, fmt.Errorf("%w: singleton solution must be (lineage_proof my_amount inner_solution)", ErrBadSolution)
	}
	if _, ok := items[0].ListItems(); !ok {
		return nil, fmt.Errorf("%w: lineage proof must be a list", ErrBadSolution)
	}
	amount, err := clvm.Uint64FromValue(items[1])
	if err != nil {
		return nil, fmt.Errorf("%w: my_amount: %v", ErrBadSolution, err)
	}
	if amount%2 == 0 {
		return nil, fmt.Errorf("singleton amount must be odd, got %d", amount)
	}

	structValue, err := p.argValue(0)
	if err != nil {
		return nil, err
	}
	inner, err := p.argProgram(1)
	if err != nil {
		return nil, err
	}
	conds, err := inner.Run(items[2])
	if err != nil {
		return nil, err
	}
	structHash := structValue.TreeHash()
	return wrapOddCreateCoins(conds, func(ph types.Hash) types.Hash {
		return clvm.CurryHash(SingletonModHash, structHash, ph)
	}), nil
}

// runStateLayer evaluates the metadata-carrying layer. Solution:
// (inner_solution).
func runStateLayer(p *Program, solution *clvm.Value) ([]coin.Condition, error) {
	innerSol, err := singleItemSolution(solution)
	if err != nil {
		return nil, err
	}
	modHash, err := p.argHash32(0)
	if err != nil {
		return nil, err
	}
	if modHash != StateLayerModHash {
		return nil, fmt.Errorf("%w: state layer self-hash mismatch", ErrBadParameter)
	}
	metadata, err := p.argValue(1)
	if err != nil {
		return nil, err
	}
	updaterHash, err := p.argHash32(2)
	if err != nil {
		return nil, err
	}
	inner, err := p.argProgram(3)
	if err != nil {
		return nil, err
	}
	conds, err := inner.Run(innerSol)
	if err != nil {
		return nil, err
	}
	metadataHash := metadata.TreeHash()
	return wrapOddCreateCoins(conds, func(ph types.Hash) types.Hash {
		return clvm.CurryHash(StateLayerModHash,
			clvm.HashAtom(StateLayerModHash.Bytes()),
			metadataHash,
			clvm.HashAtom(updaterHash.Bytes()),
			ph,
		)
	}), nil
}

// runOwnershipLayer evaluates the ownership layer. Solution:
// (inner_solution).
func runOwnershipLayer(p *Program, solution *clvm.Value) ([]coin.Condition, error) {
	innerSol, err := singleItemSolution(solution)
	if err != nil {
		return nil, err
	}
	modHash, err := p.argHash32(0)
	if err != nil {
		return nil, err
	}
	if modHash != OwnershipModHash {
		return nil, fmt.Errorf("%w: ownership layer self-hash mismatch", ErrBadParameter)
	}
	owner, err := p.argValue(1)
	if err != nil {
		return nil, err
	}
	transfer, err := p.argProgram(2)
	if err != nil {
		return nil, err
	}
	inner, err := p.argProgram(3)
	if err != nil {
		return nil, err
	}
	conds, err := inner.Run(innerSol)
	if err != nil {
		return nil, err
	}
	ownerHash := owner.TreeHash()
	transferHash := transfer.PuzzleHash()
	return wrapOddCreateCoins(conds, func(ph types.Hash) types.Hash {
		return clvm.CurryHash(OwnershipModHash,
			clvm.HashAtom(OwnershipModHash.Bytes()),
			ownerHash,
			transferHash,
			ph,
		)
	}), nil
}

// singleItemSolution unwraps a one-element solution list.
func singleItemSolution(solution *clvm.Value) (*clvm.Value, error) {
	items, ok := solution.ListItems()
	if !ok || len(items) != 1 {
		return nil, fmt.Errorf("%w: expected (inner_solution)", ErrBadSolution)
	}
	return items[0], nil
}

// wrapOddCreateCoins rewrites odd-amount coin creations through a layer's
// wrapping function; everything else passes through unchanged.
func wrapOddCreateCoins(conds []coin.Condition, wrap func(types.Hash) types.Hash) []coin.Condition {
	out := make([]coin.Condition, len(conds))
	for i, c := range conds {
		if cc, ok := c.(coin.CreateCoin); ok && cc.Amount%2 == 1 {
			out[i] = coin.CreateCoin{PuzzleHash: wrap(cc.PuzzleHash), Amount: cc.Amount, Memos: cc.Memos}
			continue
		}
		out[i] = c
	}
	return out
}
