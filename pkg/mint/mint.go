// Package mint assembles the spend chains that turn a committed
// pre-launcher coin into a minted item: the pre-launcher spend, the
// launcher spend, and the eve spend, bound together by announcements so
// they land atomically or not at all.
package mint

import (
	"errors"
	"fmt"

	"github.com/bagmint/bagmint/pkg/bag"
	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/crypto"
	"github.com/bagmint/bagmint/pkg/puzzle"
	"github.com/bagmint/bagmint/pkg/types"
)

var ErrNoRequestedPayments = errors.New("mint: target does not request a payment")

// Spends holds everything needed to mint or melt one committed item. The
// pre-launcher puzzle hash is the item's leaf in the commitment tree.
type Spends struct {
	PreLauncher       *puzzle.Program
	EveP2             *puzzle.Program
	Metadata          *clvm.Value
	MetadataHash      types.Hash
	RoyaltyPuzzleHash types.Hash
	RoyaltyRate       uint64
	CreatorPubKey     []byte

	// RequestedPayments is non-nil when the item's first transfer goes
	// through an exchange instead of straight to a recipient.
	RequestedPayments []coin.Payment
}

// NewDirect prepares a mint whose item goes straight to a recipient.
func NewDirect(metadata *clvm.Value, royaltyPuzzleHash types.Hash, royaltyRate uint64, destination types.Hash, creatorPubKey []byte) *Spends {
	delegated := puzzle.NewDirectDelegate(destination)
	return newSpends(metadata, royaltyPuzzleHash, royaltyRate, creatorPubKey, delegated, nil)
}

// NewOffer prepares a mint whose item is exchanged for the requested
// payments. Trade prices mirror the payments against the settlement
// puzzle so royalty enforcement can price the exchange.
func NewOffer(metadata *clvm.Value, royaltyPuzzleHash types.Hash, royaltyRate uint64, requested []coin.Payment, creatorPubKey []byte) *Spends {
	trade := make([]coin.Payment, len(requested))
	for i, p := range requested {
		trade[i] = coin.Payment{PuzzleHash: puzzle.SettlementPuzzleHash, Amount: p.Amount}
	}
	delegated := puzzle.NewOfferDelegate(requested, trade)
	return newSpends(metadata, royaltyPuzzleHash, royaltyRate, creatorPubKey, delegated, requested)
}

func newSpends(metadata *clvm.Value, royaltyPuzzleHash types.Hash, royaltyRate uint64, creatorPubKey []byte, delegated *puzzle.Program, requested []coin.Payment) *Spends {
	p2 := puzzle.NewP2Delegate(delegated)
	metadataHash := metadata.TreeHash()
	return &Spends{
		PreLauncher:       puzzle.NewPreLauncher(metadataHash, royaltyPuzzleHash, royaltyRate, p2.PuzzleHash(), creatorPubKey),
		EveP2:             p2,
		Metadata:          metadata,
		MetadataHash:      metadataHash,
		RoyaltyPuzzleHash: royaltyPuzzleHash,
		RoyaltyRate:       royaltyRate,
		CreatorPubKey:     creatorPubKey,
		RequestedPayments: requested,
	}
}

// Target is the item's leaf in the commitment tree.
func (m *Spends) Target() bag.Target {
	return bag.Target{PuzzleHash: m.PreLauncher.PuzzleHash(), Amount: 1}
}

// EvePuzzle composes the full on-chain puzzle of the item created by the
// launcher coin.
func (m *Spends) EvePuzzle(launcherID types.CoinID) *puzzle.Program {
	return puzzle.NewFullPuzzle(launcherID, m.Metadata, m.RoyaltyPuzzleHash, m.RoyaltyRate, m.EveP2)
}

// ToCoinSpends builds the three-spend mint chain from the pre-launcher
// coin's parent. The chain is deterministic: each coin's ID feeds the next
// spend, and the pre-launcher's announcement assertion welds all three
// together.
func (m *Spends) ToCoinSpends(preLauncherParentID types.CoinID) ([]*coin.Spend, error) {
	preLauncherCoin := coin.NewCoin(preLauncherParentID, m.PreLauncher.PuzzleHash(), 1)
	preLauncherID := preLauncherCoin.ID()
	preLauncherSpend := coin.NewSpend(
		preLauncherCoin,
		m.PreLauncher,
		puzzle.PreLauncherSolution(puzzle.ModeMint, preLauncherID),
	)

	launcherCoin := coin.NewCoin(preLauncherID, puzzle.LauncherPuzzleHash, 1)
	launcherID := launcherCoin.ID()
	evePuzzle := m.EvePuzzle(launcherID)
	eveHash := evePuzzle.PuzzleHash()
	launcherSpend := coin.NewSpend(
		launcherCoin,
		puzzle.NewLauncher(),
		puzzle.LauncherSolution(eveHash, 1, nil),
	)

	eveCoin := coin.NewCoin(launcherID, eveHash, 1)
	innerSolution := clvm.Nil()
	if m.RequestedPayments != nil {
		// The offer delegate notarizes payments against the eve coin's
		// ID so one settlement cannot satisfy two mints.
		innerSolution = clvm.List(clvm.Bytes32(types.Hash(eveCoin.ID())))
	}
	ownershipSolution := clvm.List(innerSolution)
	stateSolution := clvm.List(ownershipSolution)
	singletonSolution := clvm.List(
		clvm.List(clvm.Bytes32(types.Hash(preLauncherID)), clvm.Int(1)),
		clvm.Int(1),
		stateSolution,
	)
	eveSpend := coin.NewSpend(eveCoin, evePuzzle, singletonSolution)

	return []*coin.Spend{preLauncherSpend, launcherSpend, eveSpend}, nil
}

// ToSpendBundle builds the mint chain and signs the commitment with the
// creator key. A nil key produces an unsigned bundle; validation will
// reject it until the signature is attached.
func (m *Spends) ToSpendBundle(preLauncherParentID types.CoinID, key *crypto.PrivateKey) (*coin.SpendBundle, error) {
	spends, err := m.ToCoinSpends(preLauncherParentID)
	if err != nil {
		return nil, err
	}
	b := coin.NewSpendBundle(spends...)
	if key != nil {
		sig, err := m.SignCommitment(key, spends[0].Coin.ID())
		if err != nil {
			return nil, err
		}
		b.Signatures = append(b.Signatures, sig)
	}
	return b, nil
}

// SignCommitment signs the mint authorization for a specific pre-launcher
// coin. The digest binds the commitment payload to the coin ID, so one
// signature authorizes exactly one mint.
func (m *Spends) SignCommitment(key *crypto.PrivateKey, preLauncherID types.CoinID) (coin.BundleSignature, error) {
	payload := puzzle.CommitmentPayload(m.MetadataHash, m.RoyaltyPuzzleHash, m.RoyaltyRate, m.EveP2.PuzzleHash())
	digest := crypto.HashOf(payload, preLauncherID.Bytes())
	sig, err := key.Sign(digest.Bytes())
	if err != nil {
		return coin.BundleSignature{}, fmt.Errorf("sign commitment: %w", err)
	}
	return coin.BundleSignature{PublicKey: key.PublicKey(), Signature: sig}, nil
}

// MeltBundle builds and signs the spend that voids the commitment. The
// pre-launcher coin is consumed without creating anything; the item can
// never be minted afterwards.
func (m *Spends) MeltBundle(preLauncherParentID types.CoinID, key *crypto.PrivateKey) (*coin.SpendBundle, error) {
	preLauncherCoin := coin.NewCoin(preLauncherParentID, m.PreLauncher.PuzzleHash(), 1)
	preLauncherID := preLauncherCoin.ID()
	spend := coin.NewSpend(
		preLauncherCoin,
		m.PreLauncher,
		puzzle.PreLauncherSolution(puzzle.ModeMelt, preLauncherID),
	)
	b := coin.NewSpendBundle(spend)

	digest := crypto.HashOf(puzzle.MeltSentinel, preLauncherID.Bytes())
	sig, err := key.Sign(digest.Bytes())
	if err != nil {
		return nil, fmt.Errorf("sign melt: %w", err)
	}
	b.AddSignature(key.PublicKey(), sig)
	return b, nil
}
