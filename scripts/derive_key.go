// derive_key.go prints the pubkey, puzzle hash, and address for a
// hex-encoded private key file.
// Usage: go run scripts/derive_key.go [--testnet] <keyfile>
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/bagmint/bagmint/pkg/crypto"
	"github.com/bagmint/bagmint/pkg/puzzle"
	"github.com/bagmint/bagmint/pkg/types"
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "--testnet" {
		types.SetAddressHRP(types.TestnetHRP)
		args = args[1:]
	}
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: derive_key [--testnet] <keyfile>")
		os.Exit(1)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	keyHex := strings.TrimSpace(string(data))
	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	key, err := crypto.PrivateKeyFromBytes(keyBytes)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	pub := key.PublicKey()
	ph := puzzle.NewP2PubKey(pub).PuzzleHash()
	addr, err := types.EncodeAddress(ph)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("pubkey=%s\n", hex.EncodeToString(pub))
	fmt.Printf("puzzle_hash=%s\n", ph)
	fmt.Printf("address=%s\n", addr)
}
