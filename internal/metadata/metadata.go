// Package metadata reads item metadata from CSV files and turns each row
// into a committed mint: a metadata program, a pre-launcher target, and
// the spends needed to mint or melt it later.
package metadata

import (
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/bagmint/bagmint/pkg/clvm"
	"github.com/bagmint/bagmint/pkg/types"
)

var (
	ErrMissingURIs = errors.New("metadata: data uris are required")
	ErrMissingHash = errors.New("metadata: data hash is required")
)

// DefaultHeader is assumed when a CSV file carries no header row. The
// optional "target" column is appended when per-row targets are expected.
var DefaultHeader = []string{
	"hash",
	"uris",
	"meta_hash",
	"meta_uris",
	"license_hash",
	"license_uris",
	"edition_number",
	"edition_total",
}

// listHeaders are columns that may repeat and accumulate into a list.
var listHeaders = map[string]bool{
	"uris":         true,
	"meta_uris":    true,
	"license_uris": true,
}

// Item is one row of mint metadata.
type Item struct {
	Hash          types.Hash
	URIs          []string
	MetaHash      []byte
	MetaURIs      []string
	LicenseHash   []byte
	LicenseURIs   []string
	EditionNumber uint64
	EditionTotal  uint64
}

// ReadCSV parses item metadata. With hasHeader the first row names the
// columns; otherwise DefaultHeader applies. With hasTargets a "target"
// column is collected and returned alongside the items.
func ReadCSV(r io.Reader, hasHeader, hasTargets bool) ([]Item, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("metadata: read csv: %w", err)
	}

	var header []string
	if hasHeader {
		if len(rows) == 0 {
			return nil, nil, fmt.Errorf("metadata: csv has no header row")
		}
		header = rows[0]
		rows = rows[1:]
	} else {
		header = DefaultHeader
		if hasTargets {
			header = append(append([]string{}, header...), "target")
		}
	}

	var items []Item
	var targets []string
	for n, row := range rows {
		item := Item{EditionNumber: 1, EditionTotal: 1}
		for i, col := range header {
			if i >= len(row) {
				break
			}
			if err := applyColumn(&item, &targets, col, row[i]); err != nil {
				return nil, nil, fmt.Errorf("metadata: row %d: %w", n+1, err)
			}
		}
		if len(item.URIs) == 0 {
			return nil, nil, fmt.Errorf("metadata: row %d: %w", n+1, ErrMissingURIs)
		}
		if item.Hash == (types.Hash{}) {
			return nil, nil, fmt.Errorf("metadata: row %d: %w", n+1, ErrMissingHash)
		}
		items = append(items, item)
	}
	return items, targets, nil
}

func applyColumn(item *Item, targets *[]string, col, value string) error {
	if listHeaders[col] && value == "" {
		return nil
	}
	switch col {
	case "hash":
		h, err := parseHash(value)
		if err != nil {
			return fmt.Errorf("hash: %w", err)
		}
		item.Hash = h
	case "uris":
		item.URIs = append(item.URIs, value)
	case "meta_uris":
		item.MetaURIs = append(item.MetaURIs, value)
	case "license_uris":
		item.LicenseURIs = append(item.LicenseURIs, value)
	case "meta_hash":
		if value == "" {
			return nil
		}
		b, err := hex.DecodeString(value)
		if err != nil {
			return fmt.Errorf("meta_hash: %w", err)
		}
		item.MetaHash = b
	case "license_hash":
		if value == "" {
			return nil
		}
		b, err := hex.DecodeString(value)
		if err != nil {
			return fmt.Errorf("license_hash: %w", err)
		}
		item.LicenseHash = b
	case "edition_number":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("edition_number: %w", err)
		}
		item.EditionNumber = n
	case "edition_total":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("edition_total: %w", err)
		}
		item.EditionTotal = n
	case "target":
		*targets = append(*targets, value)
	default:
		// Unknown columns are ignored so files with extra bookkeeping
		// columns still load.
	}
	return nil
}

func parseHash(s string) (types.Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return types.Hash{}, err
	}
	return types.BytesToHash(b)
}

// Program renders the item as the metadata value committed on chain: a
// list of (key . value) pairs keyed by the short field names.
func (it Item) Program() *clvm.Value {
	uris := stringList(it.URIs)
	entries := []*clvm.Value{
		clvm.Pair(clvm.Atom([]byte("u")), uris),
		clvm.Pair(clvm.Atom([]byte("h")), clvm.Bytes32(it.Hash)),
		clvm.Pair(clvm.Atom([]byte("mu")), stringList(it.MetaURIs)),
		clvm.Pair(clvm.Atom([]byte("lu")), stringList(it.LicenseURIs)),
		clvm.Pair(clvm.Atom([]byte("sn")), clvm.Int(it.EditionNumber)),
		clvm.Pair(clvm.Atom([]byte("st")), clvm.Int(it.EditionTotal)),
	}
	if len(it.MetaHash) > 0 {
		entries = append(entries, clvm.Pair(clvm.Atom([]byte("mh")), clvm.Atom(it.MetaHash)))
	}
	if len(it.LicenseHash) > 0 {
		entries = append(entries, clvm.Pair(clvm.Atom([]byte("lh")), clvm.Atom(it.LicenseHash)))
	}
	return clvm.List(entries...)
}

func stringList(items []string) *clvm.Value {
	vals := make([]*clvm.Value, len(items))
	for i, s := range items {
		vals[i] = clvm.Atom([]byte(s))
	}
	return clvm.List(vals...)
}
