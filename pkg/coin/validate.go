package coin

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/bagmint/bagmint/pkg/crypto"
	"github.com/bagmint/bagmint/pkg/types"
)

// Validation errors. Each one rejects the whole bundle: there is no partial
// application of a spend bundle.
var (
	ErrPuzzleHashMismatch    = errors.New("puzzle reveal does not match coin puzzle hash")
	ErrDuplicateSpend        = errors.New("coin spent twice in bundle")
	ErrSelfAssertionFailed   = errors.New("asserted coin id does not match spent coin")
	ErrAnnouncementUnmet     = errors.New("asserted announcement not created in bundle")
	ErrSignatureMissing      = errors.New("no signature for required public key")
	ErrSignatureInvalid      = errors.New("signature verification failed")
	ErrInsufficientFunding   = errors.New("bundle creates more value than it consumes")
	ErrTradePaymentMissing   = errors.New("settlement payment missing from exchange")
	ErrCreatedAmountOverflow = errors.New("created amount overflow")
)

// Validate checks a bundle the way the ledger evaluator would: every puzzle
// reveal must match its coin, every puzzle runs to a condition list, and
// every assertion must be satisfied within the bundle. Pure with respect to
// external state; whether each consumed coin actually exists unspent is the
// ledger's concern (internal/ledger).
func (b *SpendBundle) Validate() error {
	if len(b.Spends) == 0 {
		return fmt.Errorf("empty spend bundle")
	}

	type ranSpend struct {
		spend *Spend
		id    types.CoinID
		conds []Condition
	}

	seen := make(map[types.CoinID]bool, len(b.Spends))
	ran := make([]ranSpend, 0, len(b.Spends))

	coinAnns := make(map[types.Hash]bool)
	puzzleAnns := make(map[types.Hash]bool)

	// First pass: run every puzzle, collect outputs and announcements.
	var createdTotal uint64
	additionsByPuzzle := make(map[types.Hash][]CreateCoin)

	for _, s := range b.Spends {
		if s.Puzzle.PuzzleHash() != s.Coin.PuzzleHash {
			return fmt.Errorf("%w: coin %s", ErrPuzzleHashMismatch, s.Coin.ID())
		}
		id := s.Coin.ID()
		if seen[id] {
			return fmt.Errorf("%w: %s", ErrDuplicateSpend, id)
		}
		seen[id] = true

		conds, err := s.Puzzle.Run(s.Solution)
		if err != nil {
			return fmt.Errorf("run puzzle for coin %s: %w", id, err)
		}
		ran = append(ran, ranSpend{spend: s, id: id, conds: conds})

		for _, c := range conds {
			switch c := c.(type) {
			case CreateCoin:
				if createdTotal > math.MaxUint64-c.Amount {
					return ErrCreatedAmountOverflow
				}
				createdTotal += c.Amount
				additionsByPuzzle[s.Coin.PuzzleHash] = append(additionsByPuzzle[s.Coin.PuzzleHash], c)
			case CreateCoinAnnouncement:
				coinAnns[CoinAnnouncementID(id, c.Message)] = true
			case CreatePuzzleAnnouncement:
				puzzleAnns[PuzzleAnnouncementID(s.Coin.PuzzleHash, c.Message)] = true
			}
		}
	}

	// Funding: a bundle may not create value out of nothing. Bag nodes with
	// amount 0 must be accompanied by funding spends in the same bundle.
	removed, err := b.RemovalAmount()
	if err != nil {
		return err
	}
	if createdTotal > removed {
		return fmt.Errorf("%w: removed %d, created %d", ErrInsufficientFunding, removed, createdTotal)
	}

	// Second pass: check assertions against what the bundle actually did.
	for _, rs := range ran {
		for _, c := range rs.conds {
			switch c := c.(type) {
			case AssertMyCoinID:
				if c.ID != rs.id {
					return fmt.Errorf("%w: asserted %s, actual %s", ErrSelfAssertionFailed, c.ID, rs.id)
				}
			case AssertCoinAnnouncement:
				if !coinAnns[c.AnnouncementID] {
					return fmt.Errorf("%w: coin announcement %s", ErrAnnouncementUnmet, c.AnnouncementID)
				}
			case AssertPuzzleAnnouncement:
				if !puzzleAnns[c.AnnouncementID] {
					return fmt.Errorf("%w: puzzle announcement %s", ErrAnnouncementUnmet, c.AnnouncementID)
				}
			case AggSigMe:
				if err := b.verifySignature(c, rs.id); err != nil {
					return err
				}
			case RequireTradePrices:
				if err := checkTradePrices(c, puzzleAnns, additionsByPuzzle); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// verifySignature finds a bundle signature for the condition's key and
// verifies it over H(message || coin id).
func (b *SpendBundle) verifySignature(c AggSigMe, coinID types.CoinID) error {
	digest := crypto.HashOf(c.Message, coinID.Bytes())
	found := false
	for _, sig := range b.Signatures {
		if !bytes.Equal(sig.PublicKey, c.PublicKey) {
			continue
		}
		found = true
		if crypto.VerifySignature(digest.Bytes(), sig.Signature, sig.PublicKey) {
			return nil
		}
	}
	if !found {
		return fmt.Errorf("%w: %x", ErrSignatureMissing, c.PublicKey)
	}
	return fmt.Errorf("%w: key %x", ErrSignatureInvalid, c.PublicKey)
}

// checkTradePrices enforces the offer directive: the settlement spend must
// have announced the notarized payment list and created each payment coin.
func checkTradePrices(c RequireTradePrices, puzzleAnns map[types.Hash]bool, additionsByPuzzle map[types.Hash][]CreateCoin) error {
	notarized := NotarizedPaymentsValue(c.Nonce, c.Payments)
	annID := PuzzleAnnouncementID(c.SettlementPuzzleHash, notarized.TreeHash().Bytes())
	if !puzzleAnns[annID] {
		return fmt.Errorf("%w: notarized payments for nonce %s", ErrAnnouncementUnmet, c.Nonce)
	}

	created := additionsByPuzzle[c.SettlementPuzzleHash]
	for _, p := range c.Payments {
		found := false
		for _, cc := range created {
			if cc.PuzzleHash == p.PuzzleHash && cc.Amount == p.Amount {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %d to %s", ErrTradePaymentMissing, p.Amount, p.PuzzleHash)
		}
	}
	return nil
}
