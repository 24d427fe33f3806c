package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHashString(t *testing.T) {
	var h Hash
	h[0] = 0xab
	h[31] = 0x01
	s := h.String()
	if len(s) != 64 {
		t.Fatalf("hex string length = %d, want 64", len(s))
	}
	if !strings.HasPrefix(s, "ab") || !strings.HasSuffix(s, "01") {
		t.Errorf("unexpected hex encoding: %s", s)
	}
}

func TestHexToHash_RoundTrip(t *testing.T) {
	want := "4bc6435b409bcbabe53870dae0f03755f6aabb4594c5915ec983acf12a5d1fba"
	h, err := HexToHash(want)
	if err != nil {
		t.Fatalf("HexToHash: %v", err)
	}
	if h.String() != want {
		t.Errorf("round trip mismatch: got %s, want %s", h.String(), want)
	}
}

func TestHexToHash_Invalid(t *testing.T) {
	cases := []string{
		"",
		"zz",
		"abcd", // too short
		strings.Repeat("ab", 33),
	}
	for _, c := range cases {
		if _, err := HexToHash(c); err == nil {
			t.Errorf("HexToHash(%q) should fail", c)
		}
	}
}

func TestHashIsZero(t *testing.T) {
	var h Hash
	if !h.IsZero() {
		t.Error("zero hash should report IsZero")
	}
	h[5] = 1
	if h.IsZero() {
		t.Error("non-zero hash should not report IsZero")
	}
}

func TestHashLess(t *testing.T) {
	var a, b Hash
	b[0] = 1
	if !a.Less(b) {
		t.Error("zero hash should sort before non-zero")
	}
	if b.Less(a) {
		t.Error("non-zero hash should not sort before zero")
	}
	if a.Less(a) {
		t.Error("hash should not be less than itself")
	}
}

func TestHashJSON(t *testing.T) {
	h, err := HexToHash("f3d5162330c4d6c8b9a0aba5eed999178dd2bf466a7a0289739acc8209122e2c")
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Hash
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != h {
		t.Errorf("JSON round trip mismatch: got %s, want %s", back, h)
	}
}

func TestCoinIDJSON(t *testing.T) {
	id, err := HexToCoinID("7ffdeca4f997bde55d249b4a3adb8077782bc4134109698e95b10ea306a138b4")
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back CoinID
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != id {
		t.Errorf("JSON round trip mismatch: got %s, want %s", back, id)
	}
}
