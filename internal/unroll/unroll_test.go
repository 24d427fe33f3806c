package unroll

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bagmint/bagmint/internal/ledger"
	"github.com/bagmint/bagmint/internal/metadata"
	"github.com/bagmint/bagmint/internal/storage"
	"github.com/bagmint/bagmint/internal/wallet"
	"github.com/bagmint/bagmint/pkg/bag"
	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/crypto"
	"github.com/bagmint/bagmint/pkg/mint"
	"github.com/bagmint/bagmint/pkg/puzzle"
	"github.com/bagmint/bagmint/pkg/types"
)

const testCSV = `hash,uris
1111111111111111111111111111111111111111111111111111111111111111,https://example.org/1.png
2222222222222222222222222222222222222222222222222222222222222222,https://example.org/2.png
3333333333333333333333333333333333333333333333333333333333333333,https://example.org/3.png
`

type fixture struct {
	ledger    *ledger.Ledger
	tree      *bag.Tree
	plan      *metadata.Plan
	driver    *Driver
	key       *crypto.PrivateKey
	wallet    *wallet.Wallet
	genesisID types.CoinID
}

// newFixture commits a three-leaf plan, spends a genesis coin to create the
// tree root, and funds a wallet for fees and deficits.
func newFixture(t *testing.T, requestedAmount uint64, opts Options) *fixture {
	t.Helper()

	l, err := ledger.New(storage.NewMemory())
	if err != nil {
		t.Fatal(err)
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	items, _, err := metadata.ReadCSV(strings.NewReader(testCSV), true, false)
	if err != nil {
		t.Fatal(err)
	}
	plan := metadata.BuildPlan(items, types.Hash{0x77}, types.Hash{0x88}, 500, key.PublicKey(), requestedAmount)
	tree, err := plan.SecureTree(2)
	if err != nil {
		t.Fatal(err)
	}

	// The genesis spend publishes the commitment by creating the root coin.
	genesis := puzzle.Quote(coin.CreateCoin{PuzzleHash: tree.Root(), Amount: 0})
	genesisCoin := coin.NewCoin(types.CoinID{0x01}, genesis.PuzzleHash(), 0)
	if err := l.AddCoin(genesisCoin); err != nil {
		t.Fatal(err)
	}
	if err := l.ApplyBundle(coin.NewSpendBundle(coin.NewSpend(genesisCoin, genesis, nil))); err != nil {
		t.Fatal(err)
	}

	w := wallet.FromKey(key)
	if err := l.AddCoin(coin.NewCoin(types.CoinID{0x02}, w.ChangePuzzleHash(), 1_000_000)); err != nil {
		t.Fatal(err)
	}

	if opts.PollInterval == 0 {
		opts.PollInterval = time.Millisecond
	}
	opts.Wallet = w
	opts.Funds = l

	return &fixture{
		ledger:    l,
		tree:      tree,
		plan:      plan,
		driver:    New(l, tree, plan.Targets, plan.Spends, genesisCoin.ID(), opts),
		key:       key,
		wallet:    w,
		genesisID: genesisCoin.ID(),
	}
}

func TestRequiredSpends(t *testing.T) {
	f := newFixture(t, 0, Options{})
	target := f.plan.Targets[0].PuzzleHash

	spends, err := f.driver.RequiredSpends(target)
	if err != nil {
		t.Fatal(err)
	}
	// Three leaves at width two make a two-level tree above each target.
	if len(spends) != 2 {
		t.Fatalf("required %d spends, want 2", len(spends))
	}
	if spends[0].Coin.PuzzleHash != f.tree.Root() {
		t.Error("chain does not start at the root")
	}
	if spends[0].Coin.Amount != 0 {
		t.Errorf("root coin amount = %d, want 0", spends[0].Coin.Amount)
	}

	if _, err := f.driver.RequiredSpends(types.Hash{0xff}); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("err = %v, want ErrUnknownTarget", err)
	}
}

func TestUnrollToAndMint(t *testing.T) {
	f := newFixture(t, 0, Options{Fee: 100})
	ctx := context.Background()
	target := f.plan.Targets[0].PuzzleHash

	if err := f.driver.UnrollTo(ctx, target); err != nil {
		t.Fatal(err)
	}

	// The pre-launcher coin now exists unspent.
	leaves, err := f.ledger.UnspentByPuzzleHash(target)
	if err != nil {
		t.Fatal(err)
	}
	if len(leaves) != 1 {
		t.Fatalf("pre-launcher coins = %d, want 1", len(leaves))
	}

	bundle, err := f.driver.Mint(ctx, target, f.key)
	if err != nil {
		t.Fatal(err)
	}
	minted, err := f.ledger.UnspentByPuzzleHash(bundle.Spends[2].Coin.PuzzleHash)
	if err != nil {
		t.Fatal(err)
	}
	if len(minted) != 0 {
		t.Error("eve coin should be spent into the next generation")
	}

	// Minting the same leaf twice fails.
	if _, err := f.driver.Mint(ctx, target, f.key); !errors.Is(err, ErrAlreadyMinted) {
		t.Errorf("err = %v, want ErrAlreadyMinted", err)
	}

	// Wallet paid fees and the tree deficit, change flowed back.
	balance, err := f.wallet.Balance(f.ledger)
	if err != nil {
		t.Fatal(err)
	}
	if balance >= 1_000_000 {
		t.Errorf("balance = %d, wallet paid nothing", balance)
	}
}

func TestUnrollToIsIdempotent(t *testing.T) {
	f := newFixture(t, 0, Options{})
	ctx := context.Background()
	target := f.plan.Targets[0].PuzzleHash

	if err := f.driver.UnrollTo(ctx, target); err != nil {
		t.Fatal(err)
	}
	// Second run finds the chain already spent and pushes nothing.
	if err := f.driver.UnrollTo(ctx, target); err != nil {
		t.Fatalf("second unroll: %v", err)
	}

	spends, err := f.driver.RequiredSpends(target)
	if err != nil {
		t.Fatal(err)
	}
	if len(spends) != 0 {
		t.Errorf("required %d spends after unroll, want 0", len(spends))
	}
}

func TestUnrollAll(t *testing.T) {
	f := newFixture(t, 0, Options{Fee: 50, BatchSize: 2})
	ctx := context.Background()

	if err := f.driver.UnrollAll(ctx); err != nil {
		t.Fatal(err)
	}

	for i, target := range f.plan.Targets {
		leaves, err := f.ledger.UnspentByPuzzleHash(target.PuzzleHash)
		if err != nil {
			t.Fatal(err)
		}
		if len(leaves) != 1 {
			t.Errorf("target %d: pre-launcher coins = %d, want 1", i, len(leaves))
		}
	}

	// Every leaf can now mint independently.
	for _, target := range f.plan.Targets {
		if _, err := f.driver.Mint(ctx, target.PuzzleHash, f.key); err != nil {
			t.Errorf("mint %s: %v", target.PuzzleHash, err)
		}
	}
}

func TestUnrollWithoutWalletFails(t *testing.T) {
	f := newFixture(t, 0, Options{})
	f.driver.opts.Wallet = nil
	f.driver.opts.Funds = nil

	// The root spend creates three value-carrying coins from a zero-amount
	// coin, so funding is mandatory.
	err := f.driver.UnrollTo(context.Background(), f.plan.Targets[0].PuzzleHash)
	if !errors.Is(err, ErrWalletRequired) {
		t.Fatalf("err = %v, want ErrWalletRequired", err)
	}
}

func TestMeltVoidsCommitment(t *testing.T) {
	f := newFixture(t, 0, Options{})
	ctx := context.Background()
	target := f.plan.Targets[1].PuzzleHash

	if err := f.driver.UnrollTo(ctx, target); err != nil {
		t.Fatal(err)
	}
	if err := f.driver.Melt(ctx, target, f.key); err != nil {
		t.Fatal(err)
	}
	if _, err := f.driver.Mint(ctx, target, f.key); !errors.Is(err, ErrAlreadyMinted) {
		t.Errorf("mint after melt: err = %v, want ErrAlreadyMinted", err)
	}
}

func TestOfferRoundTrip(t *testing.T) {
	f := newFixture(t, 0, Options{})
	target := f.plan.Targets[0].PuzzleHash

	// Direct plans carry no requested payments.
	if _, err := f.driver.Offer(target, f.key); !errors.Is(err, mint.ErrNoRequestedPayments) {
		t.Fatalf("err = %v, want ErrNoRequestedPayments", err)
	}

	offered := newFixture(t, 1_000_000, Options{})
	ctx := context.Background()
	target = offered.plan.Targets[0].PuzzleHash
	if err := offered.driver.UnrollTo(ctx, target); err != nil {
		t.Fatal(err)
	}

	offer, err := offered.driver.Offer(target, offered.key)
	if err != nil {
		t.Fatal(err)
	}
	encoded, err := offer.Encode()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := mint.DecodeOffer(encoded)
	if err != nil {
		t.Fatal(err)
	}

	// The taker funds a settlement coin and completes the exchange.
	settlementCoin := coin.NewCoin(types.CoinID{0x55}, puzzle.SettlementPuzzleHash, decoded.RequestedAmount())
	if err := offered.ledger.AddCoin(settlementCoin); err != nil {
		t.Fatal(err)
	}
	settlement, err := decoded.SettlementSpend(settlementCoin)
	if err != nil {
		t.Fatal(err)
	}
	bundle := decoded.Bundle
	bundle.Spends = append(bundle.Spends, settlement)
	if err := offered.ledger.ApplyBundle(bundle); err != nil {
		t.Fatalf("completed offer rejected: %v", err)
	}
}
