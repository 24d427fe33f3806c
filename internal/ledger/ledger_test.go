package ledger

import (
	"errors"
	"testing"

	"github.com/bagmint/bagmint/internal/storage"
	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/coin"
	"github.com/bagmint/bagmint/pkg/crypto"
	"github.com/bagmint/bagmint/pkg/mint"
	"github.com/bagmint/bagmint/pkg/puzzle"
	"github.com/bagmint/bagmint/pkg/types"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := New(storage.NewMemory())
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func testSpends(t *testing.T, key *crypto.PrivateKey) *mint.Spends {
	t.Helper()
	metadata := clvm.List(
		clvm.Pair(clvm.Atom([]byte("u")), clvm.List(clvm.Atom([]byte("https://example.org/1.png")))),
		clvm.Pair(clvm.Atom([]byte("h")), clvm.Bytes32(types.Hash{0x11})),
	)
	return mint.NewDirect(metadata, types.Hash{0x22}, 500, types.Hash{0x33}, key.PublicKey())
}

func TestAddCoinAndGet(t *testing.T) {
	l := newTestLedger(t)

	c := coin.NewCoin(types.CoinID{1}, types.Hash{2}, 100)
	if err := l.AddCoin(c); err != nil {
		t.Fatal(err)
	}

	r, err := l.GetCoinRecord(c.ID())
	if err != nil {
		t.Fatal(err)
	}
	if r == nil {
		t.Fatal("expected a record")
	}
	if r.Spent() {
		t.Error("fresh coin reported spent")
	}
	if r.ConfirmedHeight != 1 {
		t.Errorf("confirmed height = %d, want 1", r.ConfirmedHeight)
	}

	missing, err := l.GetCoinRecord(types.CoinID{0xff})
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("unknown coin returned %+v", missing)
	}
}

func TestApplyMintChain(t *testing.T) {
	l := newTestLedger(t)

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	m := testSpends(t, key)

	genesisID := types.CoinID{0xaa}
	preLauncher := coin.NewCoin(genesisID, m.PreLauncher.PuzzleHash(), 1)
	if err := l.AddCoin(preLauncher); err != nil {
		t.Fatal(err)
	}

	bundle, err := m.ToSpendBundle(genesisID, key)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.ApplyBundle(bundle); err != nil {
		t.Fatal(err)
	}

	// Every coin in the chain is spent, including the ephemeral launcher
	// and eve coins created inside the bundle.
	for i, c := range bundle.Removals() {
		r, err := l.GetCoinRecord(c.ID())
		if err != nil {
			t.Fatal(err)
		}
		if r == nil {
			t.Fatalf("removal %d missing", i)
		}
		if !r.Spent() {
			t.Errorf("removal %d not marked spent", i)
		}
	}

	// The eve spend's child survives unspent.
	launcherID := coin.NewCoin(preLauncher.ID(), puzzle.LauncherPuzzleHash, 1).ID()
	nextHash := puzzle.FullPuzzleHash(launcherID, m.MetadataHash, m.RoyaltyPuzzleHash, m.RoyaltyRate, types.Hash{0x33})
	minted, err := l.UnspentByPuzzleHash(nextHash)
	if err != nil {
		t.Fatal(err)
	}
	if len(minted) != 1 {
		t.Fatalf("unspent minted coins = %d, want 1", len(minted))
	}
	if minted[0].Amount != 1 {
		t.Errorf("minted amount = %d, want 1", minted[0].Amount)
	}
}

func TestApplyRejectsUnknownCoin(t *testing.T) {
	l := newTestLedger(t)

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	m := testSpends(t, key)

	// Pre-launcher coin never seeded.
	bundle, err := m.ToSpendBundle(types.CoinID{0xaa}, key)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.ApplyBundle(bundle); !errors.Is(err, ErrCoinNotFound) {
		t.Fatalf("err = %v, want ErrCoinNotFound", err)
	}
	if l.Height() != 0 {
		t.Errorf("height advanced to %d on a rejected bundle", l.Height())
	}
}

func TestMintThenMeltLosesRace(t *testing.T) {
	l := newTestLedger(t)

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	m := testSpends(t, key)

	genesisID := types.CoinID{0xaa}
	if err := l.AddCoin(coin.NewCoin(genesisID, m.PreLauncher.PuzzleHash(), 1)); err != nil {
		t.Fatal(err)
	}

	mintBundle, err := m.ToSpendBundle(genesisID, key)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.ApplyBundle(mintBundle); err != nil {
		t.Fatal(err)
	}

	meltBundle, err := m.MeltBundle(genesisID, key)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.ApplyBundle(meltBundle); !errors.Is(err, ErrAlreadySpent) {
		t.Fatalf("err = %v, want ErrAlreadySpent", err)
	}
}

func TestHeightPersistsAcrossReopen(t *testing.T) {
	db := storage.NewMemory()

	l, err := New(db)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.AddCoin(coin.NewCoin(types.CoinID{1}, types.Hash{2}, 100)); err != nil {
		t.Fatal(err)
	}
	if err := l.AddCoin(coin.NewCoin(types.CoinID{1}, types.Hash{2}, 200)); err != nil {
		t.Fatal(err)
	}
	if l.Height() != 2 {
		t.Fatalf("height = %d, want 2", l.Height())
	}

	reopened, err := New(db)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Height() != 2 {
		t.Errorf("reopened height = %d, want 2", reopened.Height())
	}
}

func TestLedgerKeysAreNamespaced(t *testing.T) {
	db := storage.NewMemory()
	l, err := New(db)
	if err != nil {
		t.Fatal(err)
	}

	c := coin.NewCoin(types.CoinID{1}, types.Hash{2}, 100)
	if err := l.AddCoin(c); err != nil {
		t.Fatal(err)
	}

	// The record lives under the ledger namespace, not at the raw key, so
	// other components can share the database.
	bare, err := db.Has(coinKey(c.ID()))
	if err != nil {
		t.Fatal(err)
	}
	if bare {
		t.Error("coin record written outside the ledger namespace")
	}
	scoped, err := db.Has(append(append([]byte(nil), namespace...), coinKey(c.ID())...))
	if err != nil {
		t.Fatal(err)
	}
	if !scoped {
		t.Error("coin record missing from the ledger namespace")
	}

	// A foreign key at the ledger's unscoped prefix is invisible to it.
	if err := db.Put(coinKey(types.CoinID{9}), []byte("other component")); err != nil {
		t.Fatal(err)
	}
	r, err := l.GetCoinRecord(types.CoinID{9})
	if err != nil {
		t.Fatal(err)
	}
	if r != nil {
		t.Errorf("ledger read a foreign key: %+v", r)
	}
}

func TestUnspentByPuzzleHashSkipsSpent(t *testing.T) {
	l := newTestLedger(t)

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	m := testSpends(t, key)
	ph := m.PreLauncher.PuzzleHash()

	genesisID := types.CoinID{0xaa}
	if err := l.AddCoin(coin.NewCoin(genesisID, ph, 1)); err != nil {
		t.Fatal(err)
	}

	before, err := l.UnspentByPuzzleHash(ph)
	if err != nil {
		t.Fatal(err)
	}
	if len(before) != 1 {
		t.Fatalf("unspent before mint = %d, want 1", len(before))
	}

	bundle, err := m.ToSpendBundle(genesisID, key)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.ApplyBundle(bundle); err != nil {
		t.Fatal(err)
	}

	after, err := l.UnspentByPuzzleHash(ph)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 0 {
		t.Errorf("unspent after mint = %d, want 0", len(after))
	}
}
