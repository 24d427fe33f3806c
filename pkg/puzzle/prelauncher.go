package puzzle

import (
	"fmt"

	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/crypto"
	"github.com/bagmint/bagmint/pkg/types"
)

// Pre-launcher curried parameter positions.
const (
	plArgSingletonMod = iota
	plArgLauncherHash
	plArgStateLayerMod
	plArgMetadataHash
	plArgMetadataUpdater
	plArgOwnershipMod
	plArgTransferMod
	plArgRoyaltyHash
	plArgRoyaltyRate
	plArgP2Hash
	plArgCreatorPubKey
)

// NewPreLauncher builds the per-item commitment puzzle. Its hash commits to
// the item's metadata, royalty terms, destination predicate, and the
// creator's key; the coin it locks can only ever mint that exact item or be
// melted with the creator's signature.
func NewPreLauncher(metadataHash, royaltyPuzzleHash types.Hash, royaltyRate uint64, p2PuzzleHash types.Hash, creatorPubKey []byte) *Program {
	return New(PreLauncherModHash,
		clvm.Bytes32(SingletonModHash),
		clvm.Bytes32(LauncherPuzzleHash),
		clvm.Bytes32(StateLayerModHash),
		clvm.Bytes32(metadataHash),
		clvm.Bytes32(MetadataUpdaterPuzzleHash),
		clvm.Bytes32(OwnershipModHash),
		clvm.Bytes32(TransferProgramModHash),
		clvm.Bytes32(royaltyPuzzleHash),
		clvm.Int(royaltyRate),
		clvm.Bytes32(p2PuzzleHash),
		clvm.Atom(creatorPubKey),
	)
}

// PreLauncherSolution builds (mode my_coin_id).
func PreLauncherSolution(mode uint64, myCoinID types.CoinID) *clvm.Value {
	return clvm.List(clvm.Int(mode), clvm.Bytes32(types.Hash(myCoinID)))
}

// CommitmentPayload is the message the creator signs to authorize a mint:
// metadata hash, royalty recipient, royalty rate, destination predicate
// hash, concatenated. Binding the signature to all four closes the
// substitution hole where a tree operator mints the right metadata to the
// wrong place.
func CommitmentPayload(metadataHash, royaltyPuzzleHash types.Hash, royaltyRate uint64, p2PuzzleHash types.Hash) []byte {
	payload := make([]byte, 0, 3*types.HashSize+9)
	payload = append(payload, metadataHash.Bytes()...)
	payload = append(payload, royaltyPuzzleHash.Bytes()...)
	payload = append(payload, clvm.IntBytes(royaltyRate)...)
	payload = append(payload, p2PuzzleHash.Bytes()...)
	return payload
}

func init() {
	register(PreLauncherModHash, runPreLauncher)
}

// runPreLauncher evaluates the commitment puzzle. Mint mode creates the
// launcher coin and asserts its announcement of the exact eve puzzle, so
// the whole three-spend chain stands or falls together. Melt mode requires
// only the creator's signature over the melt sentinel.
func runPreLauncher(p *Program, solution *clvm.Value) ([]coin.Condition, error) {
	items, ok := solution.ListItems()
	if !ok || len(items) != 2 {
		return nil, fmt.Errorf("%w: pre-launcher solution must be (mode my_coin_id)", ErrBadSolution)
	}
	mode, err := clvm.Uint64FromValue(items[0])
	if err != nil {
		return nil, fmt.Errorf("%w: mode: %v", ErrBadSolution, err)
	}
	idBytes, ok := items[1].AtomBytes()
	if !ok {
		return nil, fmt.Errorf("%w: my_coin_id must be an atom", ErrBadSolution)
	}
	myHash, err := types.BytesToHash(idBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: my_coin_id: %v", ErrBadSolution, err)
	}
	myID := types.CoinID(myHash)

	pubKey, err := p.argBytes(plArgCreatorPubKey)
	if err != nil {
		return nil, err
	}
	if len(pubKey) != crypto.PublicKeySize {
		return nil, fmt.Errorf("%w: creator public key must be %d bytes", ErrBadParameter, crypto.PublicKeySize)
	}

	switch mode {
	case ModeMelt:
		return []coin.Condition{
			coin.AssertMyCoinID{ID: myID},
			coin.AggSigMe{PublicKey: pubKey, Message: MeltSentinel},
		}, nil
	case ModeMint:
		return p.mintConditions(myID, pubKey)
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, mode)
	}
}

// mintConditions derives the launcher coin and the eve puzzle hash from the
// curried commitment and the pre-launcher's own coin ID.
func (p *Program) mintConditions(myID types.CoinID, pubKey []byte) ([]coin.Condition, error) {
	singletonMod, err := p.argHash32(plArgSingletonMod)
	if err != nil {
		return nil, err
	}
	launcherHash, err := p.argHash32(plArgLauncherHash)
	if err != nil {
		return nil, err
	}
	stateMod, err := p.argHash32(plArgStateLayerMod)
	if err != nil {
		return nil, err
	}
	metadataHash, err := p.argHash32(plArgMetadataHash)
	if err != nil {
		return nil, err
	}
	updaterHash, err := p.argHash32(plArgMetadataUpdater)
	if err != nil {
		return nil, err
	}
	ownershipMod, err := p.argHash32(plArgOwnershipMod)
	if err != nil {
		return nil, err
	}
	transferMod, err := p.argHash32(plArgTransferMod)
	if err != nil {
		return nil, err
	}
	royaltyHash, err := p.argHash32(plArgRoyaltyHash)
	if err != nil {
		return nil, err
	}
	royaltyRate, err := p.argUint(plArgRoyaltyRate)
	if err != nil {
		return nil, err
	}
	p2Hash, err := p.argHash32(plArgP2Hash)
	if err != nil {
		return nil, err
	}
	if singletonMod != SingletonModHash || launcherHash != LauncherPuzzleHash ||
		stateMod != StateLayerModHash || updaterHash != MetadataUpdaterPuzzleHash ||
		ownershipMod != OwnershipModHash || transferMod != TransferProgramModHash {
		return nil, fmt.Errorf("%w: template hash mismatch", ErrBadParameter)
	}

	// The launcher coin is fully determined by our own coin ID, which is
	// why the mint chain cannot be grafted onto a different parent.
	launcherCoin := coin.NewCoin(myID, launcherHash, 1)
	launcherID := launcherCoin.ID()
	eveHash := FullPuzzleHash(launcherID, metadataHash, royaltyHash, royaltyRate, p2Hash)

	launcherSolution := clvm.List(clvm.Bytes32(eveHash), clvm.Int(1), clvm.Nil())
	return []coin.Condition{
		coin.AssertMyCoinID{ID: myID},
		coin.CreateCoin{PuzzleHash: launcherHash, Amount: 1},
		coin.AssertCoinAnnouncement{
			AnnouncementID: coin.CoinAnnouncementID(launcherID, launcherSolution.TreeHash().Bytes()),
		},
		coin.AggSigMe{
			PublicKey: pubKey,
			Message:   CommitmentPayload(metadataHash, royaltyHash, royaltyRate, p2Hash),
		},
	}, nil
}
