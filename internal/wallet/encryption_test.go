package wallet

import (
	"bytes"
	"crypto/rand"
	"testing"
)

// vaultParams keeps Argon2 cheap in tests.
func vaultParams() EncryptionParams {
	return EncryptionParams{Memory: 64, Iterations: 1, Parallelism: 1}
}

// testSeed builds a random master seed the way the keystore stores one.
func testSeed(t *testing.T) []byte {
	t.Helper()
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		t.Fatal(err)
	}
	return seed
}

func TestSealedSeedRoundtrip(t *testing.T) {
	seed := testSeed(t)
	password := []byte("operator passphrase")

	blob, err := Encrypt(seed, password, vaultParams())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := Decrypt(blob, password)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, seed) {
		t.Error("unsealed seed differs from the original")
	}
}

func TestSealedSeedRoundtripFromMnemonic(t *testing.T) {
	// The exact flow of wallet create: mnemonic to seed to sealed blob.
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}
	seed, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic: %v", err)
	}

	password := []byte("hunter2hunter2")
	blob, err := Encrypt(seed, password, vaultParams())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := Decrypt(blob, password)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if len(got) != SeedSize {
		t.Fatalf("unsealed seed is %d bytes, want %d", len(got), SeedSize)
	}
	if !bytes.Equal(got, seed) {
		t.Error("unsealed seed differs from the derived one")
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	blob, err := Encrypt(testSeed(t), []byte("right"), vaultParams())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(blob, []byte("wrong")); err == nil {
		t.Error("a wrong password must fail authentication, not return bytes")
	}
}

func TestDecryptRejectsShortBlob(t *testing.T) {
	for _, n := range []int{0, 1, SaltSize, headerSize} {
		if _, err := Decrypt(make([]byte, n), []byte("pass")); err == nil {
			t.Errorf("Decrypt accepted a %d-byte blob", n)
		}
	}
}

func TestDecryptDetectsTampering(t *testing.T) {
	seed := testSeed(t)
	password := []byte("pass")
	blob, err := Encrypt(seed, password, vaultParams())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	// A flipped bit anywhere past the cost header breaks the seal. (A
	// flipped cost byte changes the derived key, which also fails.)
	offsets := map[string]int{
		"salt":       0,
		"nonce":      headerSize,
		"ciphertext": headerSize + 24,
		"tag":        len(blob) - 1,
	}
	for name, off := range offsets {
		t.Run(name, func(t *testing.T) {
			tampered := append([]byte(nil), blob...)
			tampered[off] ^= 0x01
			if _, err := Decrypt(tampered, password); err == nil {
				t.Errorf("Decrypt accepted a blob with byte %d flipped", off)
			}
		})
	}
}

func TestEncryptFreshSaltAndNonce(t *testing.T) {
	seed := testSeed(t)
	password := []byte("pass")

	a, err := Encrypt(seed, password, vaultParams())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	b, err := Encrypt(seed, password, vaultParams())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatal("sealing the same seed twice produced identical blobs")
	}
	if bytes.Equal(a[:SaltSize], b[:SaltSize]) {
		t.Error("salt reused across seals")
	}
	for _, blob := range [][]byte{a, b} {
		got, err := Decrypt(blob, password)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if !bytes.Equal(got, seed) {
			t.Error("blob does not unseal to the original seed")
		}
	}
}

func TestDecryptReadsParamsFromBlob(t *testing.T) {
	// Old wallet files sealed under different costs must still open.
	odd := EncryptionParams{Memory: 128, Iterations: 2, Parallelism: 2}
	seed := testSeed(t)

	blob, err := Encrypt(seed, []byte("pass"), odd)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := Decrypt(blob, []byte("pass"))
	if err != nil {
		t.Fatalf("Decrypt with non-default params: %v", err)
	}
	if !bytes.Equal(got, seed) {
		t.Error("unsealed seed differs from the original")
	}
}

func TestEncryptEmptyData(t *testing.T) {
	blob, err := Encrypt(nil, []byte("pass"), vaultParams())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := Decrypt(blob, []byte("pass"))
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty plaintext, got %d bytes", len(got))
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.Memory != 64*1024 || p.Iterations != 3 || p.Parallelism != 4 {
		t.Errorf("DefaultParams = %+v, want 64 MiB / 3 iterations / 4 lanes", p)
	}
}
