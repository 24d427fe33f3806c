package coin

import (
	"reflect"
	"testing"

	"github.com/bagmint/bagmint/pkg/types"
)

func TestCoinIDDeterminism(t *testing.T) {
	base := NewCoin(types.CoinID{1}, types.Hash{2}, 100)
	if base.ID() != base.ID() {
		t.Fatal("coin ID must be deterministic")
	}

	variants := []Coin{
		NewCoin(types.CoinID{9}, types.Hash{2}, 100),
		NewCoin(types.CoinID{1}, types.Hash{9}, 100),
		NewCoin(types.CoinID{1}, types.Hash{2}, 101),
	}
	for i, v := range variants {
		if v.ID() == base.ID() {
			t.Errorf("variant %d: distinct coin collided with base", i)
		}
	}
}

func TestCoinIDAmountEncoding(t *testing.T) {
	// Amounts near byte boundaries must still produce distinct IDs; the
	// canonical atom encoding is what prevents 0x0100 from colliding with
	// anything shorter.
	amounts := []uint64{0, 1, 127, 128, 255, 256, 65535, 65536, 1<<63 - 1, 1 << 63}
	seen := make(map[types.CoinID]uint64)
	for _, a := range amounts {
		id := NewCoin(types.CoinID{1}, types.Hash{2}, a).ID()
		if prev, ok := seen[id]; ok {
			t.Errorf("amounts %d and %d produced the same coin ID", prev, a)
		}
		seen[id] = a
	}
}

func TestConditionRoundTrip(t *testing.T) {
	conds := []Condition{
		CreateCoin{PuzzleHash: types.Hash{1}, Amount: 7, Memos: [][]byte{{0xaa}, {0xbb}}},
		CreateCoin{PuzzleHash: types.Hash{2}, Amount: 0},
		CreateCoinAnnouncement{Message: []byte("$")},
		AssertCoinAnnouncement{AnnouncementID: types.Hash{3}},
		CreatePuzzleAnnouncement{Message: []byte("notarized")},
		AssertPuzzleAnnouncement{AnnouncementID: types.Hash{4}},
		AssertMyCoinID{ID: types.CoinID{5}},
		AggSigMe{PublicKey: []byte{6, 6}, Message: []byte("msg")},
		RequireTradePrices{
			SettlementPuzzleHash: types.Hash{7},
			Nonce:                types.Hash{8},
			Payments:             []Payment{{PuzzleHash: types.Hash{9}, Amount: 11}},
		},
	}
	for i, c := range conds {
		back, err := ConditionFromValue(c.ToValue())
		if err != nil {
			t.Fatalf("condition %d: %v", i, err)
		}
		if !reflect.DeepEqual(back, c) {
			t.Errorf("condition %d: round trip changed %#v to %#v", i, c, back)
		}
	}
}

func TestPaymentRoundTrip(t *testing.T) {
	payments := []Payment{
		{PuzzleHash: types.Hash{1}, Amount: 1_000_000, Memos: [][]byte{{0x01}}},
		{PuzzleHash: types.Hash{2}, Amount: 1},
	}
	back, err := PaymentsFromValue(PaymentsValue(payments))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, payments) {
		t.Errorf("round trip changed %+v to %+v", payments, back)
	}
}

func TestAnnouncementIDsAreScoped(t *testing.T) {
	msg := []byte("$")
	a := CoinAnnouncementID(types.CoinID{1}, msg)
	b := CoinAnnouncementID(types.CoinID{2}, msg)
	if a == b {
		t.Error("coin announcements from different coins must differ")
	}
	if a == CoinAnnouncementID(types.CoinID{1}, []byte("!")) {
		t.Error("coin announcements with different messages must differ")
	}
}
