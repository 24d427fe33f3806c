package wallet

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// SeedSize is the length of a master seed in bytes. The seed roots the
// whole key tree, so two wallets built from the same mnemonic and
// passphrase derive identical addresses.
const SeedSize = 64

// SeedFromMnemonic stretches a mnemonic and optional passphrase into the
// master seed (BIP-39 PBKDF2-SHA512). The phrase is checksum-validated
// first so a mistyped backup fails here instead of silently deriving a
// different wallet.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	return seed, nil
}
