package wallet

import (
	"strings"
	"testing"
)

func TestGenerateMnemonic(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}
	if got := len(strings.Fields(mnemonic)); got != 24 {
		t.Errorf("backup phrase has %d words, want 24", got)
	}
	if !ValidateMnemonic(mnemonic) {
		t.Error("generated phrase fails its own checksum")
	}

	// A second wallet gets a different phrase.
	other, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}
	if mnemonic == other {
		t.Error("two generated phrases are identical")
	}
}

func TestValidateMnemonic(t *testing.T) {
	tests := []struct {
		name   string
		phrase string
		valid  bool
	}{
		{
			name:   "24-word phrase",
			phrase: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art",
			valid:  true,
		},
		{
			// wallet import accepts shorter phrases from other tools.
			name:   "12-word phrase",
			phrase: backupPhrase,
			valid:  true,
		},
		{
			name:   "empty",
			phrase: "",
			valid:  false,
		},
		{
			name:   "words outside the list",
			phrase: "not a valid mnemonic phrase at all",
			valid:  false,
		},
		{
			name:   "bad checksum",
			phrase: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon",
			valid:  false,
		},
		{
			name:   "one word",
			phrase: "abandon",
			valid:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateMnemonic(tt.phrase); got != tt.valid {
				t.Errorf("ValidateMnemonic(%q) = %v, want %v", tt.phrase, got, tt.valid)
			}
		})
	}
}
