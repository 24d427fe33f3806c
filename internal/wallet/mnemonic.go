// Package wallet manages the operator's keys: the commitment authority
// that signs pre-launcher spends and the funding keys that pay unroll
// fees. Keys derive from a BIP-39 mnemonic along the m/44'/8444' path
// and the seed is kept sealed on disk.
package wallet

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// MnemonicEntropyBits sizes new mnemonics at 24 words.
const MnemonicEntropyBits = 256

// GenerateMnemonic draws fresh entropy and encodes it as a 24-word
// BIP-39 mnemonic. This is the only secret the operator has to back up;
// everything else is derivable.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("encode mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic reports whether a phrase is well-formed BIP-39: known
// words, a supported word count, and a matching checksum. Imported
// phrases of any valid length are accepted, not just 24 words.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}
