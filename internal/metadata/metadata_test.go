package metadata

import (
	"errors"
	"strings"
	"testing"

	"github.com/bagmint/bagmint/pkg/crypto"
	"github.com/bagmint/bagmint/pkg/types"
)

const sampleCSV = `hash,uris,meta_hash,meta_uris,license_hash,license_uris,edition_number,edition_total
1111111111111111111111111111111111111111111111111111111111111111,https://example.org/1.png,aabb,https://example.org/1.json,ccdd,https://example.org/license,1,3
2222222222222222222222222222222222222222222222222222222222222222,https://example.org/2.png,,,,,2,3
`

func TestReadCSV(t *testing.T) {
	items, targets, err := ReadCSV(strings.NewReader(sampleCSV), true, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 0 {
		t.Errorf("targets = %v, want none", targets)
	}
	if len(items) != 2 {
		t.Fatalf("parsed %d items, want 2", len(items))
	}

	first := items[0]
	if first.Hash != (types.Hash{0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11}) {
		t.Errorf("hash = %s", first.Hash)
	}
	if len(first.URIs) != 1 || first.URIs[0] != "https://example.org/1.png" {
		t.Errorf("uris = %v", first.URIs)
	}
	if len(first.MetaHash) != 2 || first.MetaHash[0] != 0xaa {
		t.Errorf("meta hash = %x", first.MetaHash)
	}
	if first.EditionNumber != 1 || first.EditionTotal != 3 {
		t.Errorf("edition = %d/%d", first.EditionNumber, first.EditionTotal)
	}

	second := items[1]
	if second.MetaHash != nil || len(second.MetaURIs) != 0 {
		t.Errorf("optional fields should stay empty: %+v", second)
	}
	if second.EditionNumber != 2 {
		t.Errorf("edition number = %d, want 2", second.EditionNumber)
	}
}

func TestReadCSVDefaultHeader(t *testing.T) {
	row := "3333333333333333333333333333333333333333333333333333333333333333,https://example.org/3.png,,,,,1,1,deadbeef\n"
	items, targets, err := ReadCSV(strings.NewReader(row), false, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("parsed %d items, want 1", len(items))
	}
	if len(targets) != 1 || targets[0] != "deadbeef" {
		t.Errorf("targets = %v", targets)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want error
	}{
		{
			name: "missing uris",
			csv:  "hash,uris\n1111111111111111111111111111111111111111111111111111111111111111,\n",
			want: ErrMissingURIs,
		},
		{
			name: "missing hash",
			csv:  "hash,uris\n,https://example.org/x.png\n",
			want: ErrMissingHash,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadCSV(strings.NewReader(tt.csv), true, false)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestProgramOmitsEmptyOptionalHashes(t *testing.T) {
	base := Item{
		Hash:          types.Hash{0x11},
		URIs:          []string{"https://example.org/1.png"},
		EditionNumber: 1,
		EditionTotal:  1,
	}
	withMeta := base
	withMeta.MetaHash = []byte{0xaa, 0xbb}

	baseItems, ok := base.Program().ListItems()
	if !ok {
		t.Fatal("program is not a proper list")
	}
	metaItems, ok := withMeta.Program().ListItems()
	if !ok {
		t.Fatal("program is not a proper list")
	}
	if len(metaItems) != len(baseItems)+1 {
		t.Errorf("entries = %d and %d, want one extra for meta hash", len(baseItems), len(metaItems))
	}
	if base.Program().TreeHash() == withMeta.Program().TreeHash() {
		t.Error("meta hash does not change the program hash")
	}
}

func TestBuildPlan(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	items, _, err := ReadCSV(strings.NewReader(sampleCSV), true, false)
	if err != nil {
		t.Fatal(err)
	}

	direct := BuildPlan(items, types.Hash{0x77}, types.Hash{0x88}, 500, key.PublicKey(), 0)
	if len(direct.Targets) != 2 {
		t.Fatalf("targets = %d, want 2", len(direct.Targets))
	}
	for i, target := range direct.Targets {
		if target.Amount != 1 {
			t.Errorf("target %d amount = %d, want 1", i, target.Amount)
		}
		spends, ok := direct.Spends[target.PuzzleHash]
		if !ok {
			t.Fatalf("target %d has no spends", i)
		}
		if spends.RequestedPayments != nil {
			t.Errorf("direct plan %d carries requested payments", i)
		}
		if spends.Target() != target {
			t.Errorf("target %d does not round trip", i)
		}
	}

	offered := BuildPlan(items, types.Hash{0x77}, types.Hash{0x88}, 500, key.PublicKey(), 1_000_000)
	for i, target := range offered.Targets {
		spends := offered.Spends[target.PuzzleHash]
		if len(spends.RequestedPayments) != 1 || spends.RequestedPayments[0].Amount != 1_000_000 {
			t.Errorf("offer plan %d payments = %+v", i, spends.RequestedPayments)
		}
	}
	if offered.Targets[0].PuzzleHash == direct.Targets[0].PuzzleHash {
		t.Error("offer and direct plans share a pre-launcher hash")
	}

	tree, err := direct.SecureTree(2)
	if err != nil {
		t.Fatal(err)
	}
	for i, target := range direct.Targets {
		if !tree.Contains(target.PuzzleHash) {
			t.Errorf("target %d missing from tree", i)
		}
	}
}
