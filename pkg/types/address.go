package types

import (
	"fmt"
	"strings"
)

// Address HRP (human-readable part) constants for bech32m encoding.
const (
	MainnetHRP = "bmx"
	TestnetHRP = "tbmx"
)

// activeHRP is the address HRP used by EncodeAddress.
// Set once at startup via SetAddressHRP(). Default is mainnet.
var activeHRP = MainnetHRP

// SetAddressHRP sets the active address HRP (call once at startup).
func SetAddressHRP(hrp string) {
	activeHRP = hrp
}

// GetAddressHRP returns the currently active address HRP.
func GetAddressHRP() string {
	return activeHRP
}

// EncodeAddress encodes a 32-byte puzzle hash as a bech32m address
// using the active HRP (e.g. "bmx1...").
func EncodeAddress(puzzleHash Hash) (string, error) {
	return Bech32mEncode(activeHRP, puzzleHash[:])
}

// DecodeAddress decodes a bech32m address into its 32-byte puzzle hash.
// The HRP must match either the mainnet or testnet HRP.
func DecodeAddress(s string) (Hash, error) {
	hrp, data, err := Bech32mDecode(s)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid address: %w", err)
	}
	if hrp != MainnetHRP && hrp != TestnetHRP {
		return Hash{}, fmt.Errorf("invalid address: unknown HRP %q", hrp)
	}
	if len(data) != HashSize {
		return Hash{}, fmt.Errorf("address must encode %d bytes, got %d", HashSize, len(data))
	}
	var h Hash
	copy(h[:], data)
	return h, nil
}

// ParsePuzzleHash accepts either a bech32m address or a raw 64-char hex
// puzzle hash and returns the 32-byte hash.
func ParsePuzzleHash(s string) (Hash, error) {
	if s == "" {
		return Hash{}, fmt.Errorf("empty puzzle hash")
	}
	if strings.HasPrefix(s, MainnetHRP+"1") || strings.HasPrefix(s, TestnetHRP+"1") {
		return DecodeAddress(s)
	}
	return HexToHash(strings.TrimPrefix(s, "0x"))
}
