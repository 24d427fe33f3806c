package mint

import (
	"errors"
	"testing"

	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/crypto"
	"github.com/bagmint/bagmint/pkg/puzzle"
	"github.com/bagmint/bagmint/pkg/types"
)

func testMetadata() *clvm.Value {
	return clvm.List(
		clvm.Pair(clvm.Atom([]byte("u")), clvm.List(clvm.Atom([]byte("https://example.com/1.png")))),
		clvm.Pair(clvm.Atom([]byte("h")), clvm.Atom(make([]byte, 32))),
		clvm.Pair(clvm.Atom([]byte("sn")), clvm.Int(1)),
		clvm.Pair(clvm.Atom([]byte("st")), clvm.Int(3)),
	)
}

func testKey(t *testing.T) *crypto.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func TestMintChainStructure(t *testing.T) {
	key := testKey(t)
	dest := types.Hash{0x0d}
	m := NewDirect(testMetadata(), types.Hash{0x0e}, 500, dest, key.PublicKey())

	parent := types.CoinID{0x01}
	spends, err := m.ToCoinSpends(parent)
	if err != nil {
		t.Fatal(err)
	}
	if len(spends) != 3 {
		t.Fatalf("got %d spends, want 3", len(spends))
	}

	preLauncher, launcher, eve := spends[0], spends[1], spends[2]

	if preLauncher.Coin.Parent != parent || preLauncher.Coin.Amount != 1 {
		t.Errorf("pre-launcher coin = %+v", preLauncher.Coin)
	}
	if preLauncher.Coin.PuzzleHash != m.Target().PuzzleHash {
		t.Error("pre-launcher coin must sit at the commitment tree leaf")
	}
	if launcher.Coin.Parent != preLauncher.Coin.ID() {
		t.Error("launcher must be the pre-launcher's child")
	}
	if launcher.Coin.PuzzleHash != puzzle.LauncherPuzzleHash || launcher.Coin.Amount != 1 {
		t.Errorf("launcher coin = %+v", launcher.Coin)
	}
	if eve.Coin.Parent != launcher.Coin.ID() {
		t.Error("eve must be the launcher's child")
	}
	if eve.Coin.PuzzleHash != m.EvePuzzle(launcher.Coin.ID()).PuzzleHash() {
		t.Error("eve coin puzzle hash must match the composed puzzle")
	}
}

func TestMintBundleValidates(t *testing.T) {
	key := testKey(t)
	m := NewDirect(testMetadata(), types.Hash{2}, 500, types.Hash{3}, key.PublicKey())

	bundle, err := m.ToSpendBundle(types.CoinID{1}, key)
	if err != nil {
		t.Fatal(err)
	}
	if err := bundle.Validate(); err != nil {
		t.Errorf("signed mint bundle rejected: %v", err)
	}
}

func TestMintBundleRequiresSignature(t *testing.T) {
	key := testKey(t)
	m := NewDirect(testMetadata(), types.Hash{2}, 500, types.Hash{3}, key.PublicKey())

	bundle, err := m.ToSpendBundle(types.CoinID{1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := bundle.Validate(); !errors.Is(err, coin.ErrSignatureMissing) {
		t.Errorf("err = %v, want ErrSignatureMissing", err)
	}

	// A signature from a different key must not authorize the mint.
	other := testKey(t)
	sig, err := m.SignCommitment(other, bundle.Spends[0].Coin.ID())
	if err != nil {
		t.Fatal(err)
	}
	bundle.Signatures = []coin.BundleSignature{sig}
	if err := bundle.Validate(); !errors.Is(err, coin.ErrSignatureMissing) {
		t.Errorf("err = %v, want ErrSignatureMissing for foreign key", err)
	}
}

func TestSignatureBindsCommitmentFields(t *testing.T) {
	key := testKey(t)
	honest := NewDirect(testMetadata(), types.Hash{2}, 500, types.Hash{3}, key.PublicKey())
	parent := types.CoinID{1}

	otherMetadata := clvm.List(
		clvm.Pair(clvm.Atom([]byte("u")), clvm.List(clvm.Atom([]byte("https://example.com/2.png")))),
		clvm.Pair(clvm.Atom([]byte("h")), clvm.Atom(make([]byte, 32))),
	)
	tests := []struct {
		name     string
		tampered *Spends
	}{
		{"royalty rate", NewDirect(testMetadata(), types.Hash{2}, 9999, types.Hash{3}, key.PublicKey())},
		{"royalty recipient", NewDirect(testMetadata(), types.Hash{0xbd}, 500, types.Hash{3}, key.PublicKey())},
		{"metadata", NewDirect(otherMetadata, types.Hash{2}, 500, types.Hash{3}, key.PublicKey())},
		{"destination", NewDirect(testMetadata(), types.Hash{2}, 500, types.Hash{0xbd}, key.PublicKey())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The creator's real signature must not carry over to a chain
			// rebuilt with one commitment field changed.
			bundle, err := tt.tampered.ToSpendBundle(parent, nil)
			if err != nil {
				t.Fatal(err)
			}
			sig, err := honest.SignCommitment(key, bundle.Spends[0].Coin.ID())
			if err != nil {
				t.Fatal(err)
			}
			bundle.Signatures = []coin.BundleSignature{sig}
			if err := bundle.Validate(); !errors.Is(err, coin.ErrSignatureInvalid) {
				t.Errorf("err = %v, want ErrSignatureInvalid", err)
			}
		})
	}
}

func TestMintAndMeltConsumeTheSameCoin(t *testing.T) {
	key := testKey(t)
	m := NewDirect(testMetadata(), types.Hash{2}, 500, types.Hash{3}, key.PublicKey())
	parent := types.CoinID{1}

	mintBundle, err := m.ToSpendBundle(parent, key)
	if err != nil {
		t.Fatal(err)
	}
	meltBundle, err := m.MeltBundle(parent, key)
	if err != nil {
		t.Fatal(err)
	}
	if err := meltBundle.Validate(); err != nil {
		t.Errorf("melt bundle rejected: %v", err)
	}

	// Mutual exclusivity: both paths spend the one pre-launcher coin, so
	// the ledger can only ever accept one of them.
	if mintBundle.Spends[0].Coin.ID() != meltBundle.Spends[0].Coin.ID() {
		t.Error("mint and melt must consume the same pre-launcher coin")
	}

	// The melt creates nothing; the item is gone for good.
	adds, err := meltBundle.Additions()
	if err != nil {
		t.Fatal(err)
	}
	if len(adds) != 0 {
		t.Errorf("melt created %d coins, want 0", len(adds))
	}
}

func TestMeltSignatureDoesNotAuthorizeMint(t *testing.T) {
	key := testKey(t)
	m := NewDirect(testMetadata(), types.Hash{2}, 500, types.Hash{3}, key.PublicKey())
	parent := types.CoinID{1}

	meltBundle, err := m.MeltBundle(parent, key)
	if err != nil {
		t.Fatal(err)
	}
	mintBundle, err := m.ToSpendBundle(parent, nil)
	if err != nil {
		t.Fatal(err)
	}
	mintBundle.Signatures = meltBundle.Signatures
	if err := mintBundle.Validate(); !errors.Is(err, coin.ErrSignatureInvalid) {
		t.Errorf("err = %v, want ErrSignatureInvalid", err)
	}
}

func TestOfferFlow(t *testing.T) {
	key := testKey(t)
	creatorPayout := types.Hash{0xc0}
	requested := []coin.Payment{{PuzzleHash: creatorPayout, Amount: 1_000_000}}
	m := NewOffer(testMetadata(), types.Hash{2}, 500, requested, key.PublicKey())

	offer, err := m.ToOffer(types.CoinID{1}, key)
	if err != nil {
		t.Fatal(err)
	}
	if offer.RequestedAmount() != 1_000_000 {
		t.Errorf("requested amount = %d", offer.RequestedAmount())
	}
	nonce, err := offer.Nonce()
	if err != nil {
		t.Fatal(err)
	}
	if nonce != types.Hash(offer.Bundle.Spends[2].Coin.ID()) {
		t.Error("nonce must be the eve coin's ID")
	}

	// Without the taker's settlement the offer cannot land.
	if err := offer.Bundle.Validate(); !errors.Is(err, coin.ErrAnnouncementUnmet) {
		t.Fatalf("err = %v, want ErrAnnouncementUnmet", err)
	}

	// The taker funds a settlement coin and completes the exchange.
	settlementCoin := coin.NewCoin(types.CoinID{0xfa}, puzzle.SettlementPuzzleHash, 1_000_000)
	settlementSpend, err := offer.SettlementSpend(settlementCoin)
	if err != nil {
		t.Fatal(err)
	}
	complete := coin.NewSpendBundle(offer.Bundle.Spends...)
	complete.Signatures = offer.Bundle.Signatures
	complete.Spends = append(complete.Spends, settlementSpend)
	if err := complete.Validate(); err != nil {
		t.Errorf("completed offer rejected: %v", err)
	}
}

func TestOfferSettlementMustPayInFull(t *testing.T) {
	key := testKey(t)
	requested := []coin.Payment{{PuzzleHash: types.Hash{0xc0}, Amount: 1_000_000}}
	m := NewOffer(testMetadata(), types.Hash{2}, 500, requested, key.PublicKey())

	offer, err := m.ToOffer(types.CoinID{1}, key)
	if err != nil {
		t.Fatal(err)
	}
	nonce, _ := offer.Nonce()

	// A settlement that notarizes a smaller payment announces a different
	// message, so the offer delegate's assertion fails.
	short := []coin.Payment{{PuzzleHash: types.Hash{0xc0}, Amount: 1}}
	settlementCoin := coin.NewCoin(types.CoinID{0xfa}, puzzle.SettlementPuzzleHash, 1)
	spend := coin.NewSpend(settlementCoin, puzzle.NewSettlement(),
		puzzle.SettlementSolution(coin.NotarizedPaymentsValue(nonce, short)))

	complete := coin.NewSpendBundle(offer.Bundle.Spends...)
	complete.Signatures = offer.Bundle.Signatures
	complete.Spends = append(complete.Spends, spend)
	if err := complete.Validate(); !errors.Is(err, coin.ErrAnnouncementUnmet) {
		t.Errorf("err = %v, want ErrAnnouncementUnmet", err)
	}
}

func TestDirectTargetHasNoOffer(t *testing.T) {
	key := testKey(t)
	m := NewDirect(testMetadata(), types.Hash{2}, 500, types.Hash{3}, key.PublicKey())
	if _, err := m.ToOffer(types.CoinID{1}, key); !errors.Is(err, ErrNoRequestedPayments) {
		t.Errorf("err = %v, want ErrNoRequestedPayments", err)
	}
}

func TestOfferEncodeDecodeRoundTrip(t *testing.T) {
	key := testKey(t)
	requested := []coin.Payment{{PuzzleHash: types.Hash{0xc0}, Amount: 42}}
	m := NewOffer(testMetadata(), types.Hash{2}, 500, requested, key.PublicKey())

	offer, err := m.ToOffer(types.CoinID{1}, key)
	if err != nil {
		t.Fatal(err)
	}
	encoded, err := offer.Encode()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeOffer(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.LauncherID != offer.LauncherID {
		t.Error("launcher ID changed across encoding")
	}
	if len(decoded.Bundle.Spends) != len(offer.Bundle.Spends) {
		t.Fatalf("got %d spends, want %d", len(decoded.Bundle.Spends), len(offer.Bundle.Spends))
	}
	for i := range decoded.Bundle.Spends {
		got := decoded.Bundle.Spends[i]
		want := offer.Bundle.Spends[i]
		if got.Coin.ID() != want.Coin.ID() {
			t.Errorf("spend %d: coin changed across encoding", i)
		}
		if got.Puzzle.PuzzleHash() != want.Puzzle.PuzzleHash() {
			t.Errorf("spend %d: puzzle reveal changed across encoding", i)
		}
	}

	// A decoded offer is still completable.
	settlementCoin := coin.NewCoin(types.CoinID{0xfa}, puzzle.SettlementPuzzleHash, 42)
	settlementSpend, err := decoded.SettlementSpend(settlementCoin)
	if err != nil {
		t.Fatal(err)
	}
	decoded.Bundle.Spends = append(decoded.Bundle.Spends, settlementSpend)
	if err := decoded.Bundle.Validate(); err != nil {
		t.Errorf("decoded offer rejected: %v", err)
	}
}
