package mint

import (
	"encoding/json"
	"fmt"

	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/crypto"
	"github.com/bagmint/bagmint/pkg/puzzle"
	"github.com/bagmint/bagmint/pkg/types"
)

// OfferHRP prefixes encoded offers.
const OfferHRP = "offer"

// NotarizedPayment is a requested payment bound to a mint by its nonce (the
// eve coin's ID).
type NotarizedPayment struct {
	coin.Payment
	Nonce types.Hash `json:"nonce"`
}

// Offer packages an unsigned-by-the-taker mint chain with the payments the
// creator requests in exchange. Anyone holding the offer can complete it by
// funding a settlement spend that honors the notarized payments.
type Offer struct {
	Requested []NotarizedPayment `json:"requested_payments"`
	Bundle    *coin.SpendBundle  `json:"-"`

	// LauncherID identifies the singleton the offer mints.
	LauncherID types.CoinID `json:"launcher_id"`
}

// ToOffer builds the mint chain as an exchange offer. The creator key signs
// the commitment so the offer is complete except for the taker's settlement.
func (m *Spends) ToOffer(preLauncherParentID types.CoinID, key *crypto.PrivateKey) (*Offer, error) {
	if m.RequestedPayments == nil {
		return nil, ErrNoRequestedPayments
	}
	bundle, err := m.ToSpendBundle(preLauncherParentID, key)
	if err != nil {
		return nil, err
	}

	launcherCoin := bundle.Spends[1].Coin
	eveCoin := bundle.Spends[2].Coin
	nonce := types.Hash(eveCoin.ID())

	notarized := make([]NotarizedPayment, len(m.RequestedPayments))
	for i, p := range m.RequestedPayments {
		notarized[i] = NotarizedPayment{Payment: p, Nonce: nonce}
	}
	return &Offer{
		Requested:  notarized,
		Bundle:     bundle,
		LauncherID: launcherCoin.ID(),
	}, nil
}

// Nonce returns the notarization nonce shared by the requested payments.
func (o *Offer) Nonce() (types.Hash, error) {
	if len(o.Requested) == 0 {
		return types.Hash{}, ErrNoRequestedPayments
	}
	return o.Requested[0].Nonce, nil
}

// SettlementSpend builds the taker's side of the exchange: a spend of a
// settlement coin paying out the notarized payments and announcing them,
// which satisfies the offer delegate's assertion.
func (o *Offer) SettlementSpend(settlementCoin coin.Coin) (*coin.Spend, error) {
	nonce, err := o.Nonce()
	if err != nil {
		return nil, err
	}
	if settlementCoin.PuzzleHash != puzzle.SettlementPuzzleHash {
		return nil, fmt.Errorf("mint: coin %s is not a settlement coin", settlementCoin.ID())
	}
	payments := make([]coin.Payment, len(o.Requested))
	for i, p := range o.Requested {
		payments[i] = p.Payment
	}
	solution := puzzle.SettlementSolution(coin.NotarizedPaymentsValue(nonce, payments))
	return coin.NewSpend(settlementCoin, puzzle.NewSettlement(), solution), nil
}

// RequestedAmount sums the requested payment amounts.
func (o *Offer) RequestedAmount() uint64 {
	var total uint64
	for _, p := range o.Requested {
		total += p.Amount
	}
	return total
}

// offerWire is the transport form of an offer. Puzzles marshal through
// their own JSON reveals.
type offerWire struct {
	Requested  []NotarizedPayment     `json:"requested_payments"`
	LauncherID types.CoinID           `json:"launcher_id"`
	Spends     []spendWire            `json:"spends"`
	Signatures []coin.BundleSignature `json:"signatures,omitempty"`
}

type spendWire struct {
	Parent     types.CoinID    `json:"parent_coin_id"`
	PuzzleHash types.Hash      `json:"puzzle_hash"`
	Amount     uint64          `json:"amount"`
	Puzzle     json.RawMessage `json:"puzzle_reveal"`
	Solution   string          `json:"solution"`
}

// Encode renders the offer as a bech32m string for out-of-band exchange.
func (o *Offer) Encode() (string, error) {
	wire := offerWire{
		Requested:  o.Requested,
		LauncherID: o.LauncherID,
		Signatures: o.Bundle.Signatures,
	}
	for _, s := range o.Bundle.Spends {
		p, ok := s.Puzzle.(*puzzle.Program)
		if !ok {
			return "", fmt.Errorf("mint: spend puzzle is not a program reveal")
		}
		reveal, err := json.Marshal(p)
		if err != nil {
			return "", err
		}
		wire.Spends = append(wire.Spends, spendWire{
			Parent:     s.Coin.Parent,
			PuzzleHash: s.Coin.PuzzleHash,
			Amount:     s.Coin.Amount,
			Puzzle:     reveal,
			Solution:   clvm.SerializeHex(s.Solution),
		})
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return "", err
	}
	return types.Bech32mEncode(OfferHRP, data)
}

// DecodeOffer parses an encoded offer back into spends the taker can
// validate and complete.
func DecodeOffer(s string) (*Offer, error) {
	hrp, data, err := types.Bech32mDecode(s)
	if err != nil {
		return nil, err
	}
	if hrp != OfferHRP {
		return nil, fmt.Errorf("mint: expected %q prefix, got %q", OfferHRP, hrp)
	}
	var wire offerWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("mint: decode offer: %w", err)
	}
	o := &Offer{
		Requested:  wire.Requested,
		LauncherID: wire.LauncherID,
		Bundle:     &coin.SpendBundle{Signatures: wire.Signatures},
	}
	for i, sw := range wire.Spends {
		var p puzzle.Program
		if err := json.Unmarshal(sw.Puzzle, &p); err != nil {
			return nil, fmt.Errorf("mint: spend %d puzzle: %w", i, err)
		}
		solution, err := clvm.DeserializeHex(sw.Solution)
		if err != nil {
			return nil, fmt.Errorf("mint: spend %d solution: %w", i, err)
		}
		c := coin.NewCoin(sw.Parent, sw.PuzzleHash, sw.Amount)
		o.Bundle.Spends = append(o.Bundle.Spends, coin.NewSpend(c, &p, solution))
	}
	return o, nil
}
