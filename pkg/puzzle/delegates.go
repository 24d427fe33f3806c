package puzzle

import (
	"fmt"

	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/types"
)

// NewP2Delegate wraps a fixed delegated puzzle. The eve singleton's inner
// puzzle is one of these, so the commitment pins the item's first transfer.
func NewP2Delegate(delegated *Program) *Program {
	return New(P2DelegateModHash, delegated)
}

// NewDirectDelegate sends the minted item straight to a recipient.
func NewDirectDelegate(destinationPuzzleHash types.Hash) *Program {
	return New(DirectDelegateModHash, clvm.Bytes32(destinationPuzzleHash))
}

// NewOfferDelegate moves the minted item into an exchange: it pays the item
// to the settlement puzzle and refuses to run unless the settlement coin
// announces the declared payments.
func NewOfferDelegate(payments []coin.Payment, tradePrices []coin.Payment) *Program {
	return New(OfferDelegateModHash,
		clvm.Bytes32(SettlementPuzzleHash),
		coin.PaymentsValue(payments),
		coin.PaymentsValue(tradePrices),
	)
}

// Offer delegate curried parameter positions.
const (
	odArgSettlementHash = iota
	odArgPayments
	odArgTradePrices
)

func init() {
	register(P2DelegateModHash, runP2Delegate)
	register(DirectDelegateModHash, runDirectDelegate)
	register(OfferDelegateModHash, runOfferDelegate)
}

// runP2Delegate forwards the solution to the curried delegated puzzle.
func runP2Delegate(p *Program, solution *clvm.Value) ([]coin.Condition, error) {
	delegated, err := p.argProgram(0)
	if err != nil {
		return nil, err
	}
	return delegated.Run(solution)
}

// runDirectDelegate creates the recipient's coin. The puzzle hash doubles
// as the hint memo so wallets can find the item without a puzzle reveal.
func runDirectDelegate(p *Program, solution *clvm.Value) ([]coin.Condition, error) {
	dest, err := p.argHash32(0)
	if err != nil {
		return nil, err
	}
	return []coin.Condition{
		coin.CreateCoin{PuzzleHash: dest, Amount: 1, Memos: [][]byte{dest.Bytes()}},
	}, nil
}

// runOfferDelegate evaluates the offer leg of the mint chain. Solution:
// (nonce), where the nonce is the eve coin's ID. The announcement assertion
// ties this spend to a settlement spend honoring exactly the declared
// notarized payments.
func runOfferDelegate(p *Program, solution *clvm.Value) ([]coin.Condition, error) {
	items, ok := solution.ListItems()
	if !ok || len(items) != 1 {
		return nil, fmt.Errorf("%w: offer delegate solution must be (nonce)", ErrBadSolution)
	}
	nonceBytes, ok := items[0].AtomBytes()
	if !ok {
		return nil, fmt.Errorf("%w: nonce must be an atom", ErrBadSolution)
	}
	nonce, err := types.BytesToHash(nonceBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", ErrBadSolution, err)
	}

	settlementHash, err := p.argHash32(odArgSettlementHash)
	if err != nil {
		return nil, err
	}
	paymentsValue, err := p.argValue(odArgPayments)
	if err != nil {
		return nil, err
	}
	payments, err := coin.PaymentsFromValue(paymentsValue)
	if err != nil {
		return nil, fmt.Errorf("%w: payments: %v", ErrBadParameter, err)
	}
	if len(payments) == 0 {
		return nil, fmt.Errorf("%w: offer declares no payments", ErrBadParameter)
	}
	tradePricesValue, err := p.argValue(odArgTradePrices)
	if err != nil {
		return nil, err
	}
	if _, err := coin.PaymentsFromValue(tradePricesValue); err != nil {
		return nil, fmt.Errorf("%w: trade prices: %v", ErrBadParameter, err)
	}

	notarized := coin.NotarizedPaymentsValue(nonce, payments)
	return []coin.Condition{
		coin.CreateCoin{PuzzleHash: settlementHash, Amount: 1, Memos: [][]byte{nonce.Bytes()}},
		coin.AssertPuzzleAnnouncement{
			AnnouncementID: coin.PuzzleAnnouncementID(settlementHash, notarized.TreeHash().Bytes()),
		},
		coin.RequireTradePrices{
			SettlementPuzzleHash: settlementHash,
			Nonce:                nonce,
			Payments:             payments,
		},
	}, nil
}
