package clvm

import (
	"errors"
	"fmt"
)

// Integer atoms are minimal-length big-endian two's complement. A
// non-negative value whose top bit would be set gets one leading zero byte;
// zero is the empty atom. Any other padding is malformed and must be
// rejected rather than normalized: a redundantly padded amount would hash
// to a different puzzle than its canonical form and silently break the
// off-chain/on-chain hash equality.

// ErrNonCanonicalInt is returned for integer atoms that are not in
// minimal-length encoding.
var ErrNonCanonicalInt = errors.New("clvm: non-canonical integer encoding")

// ErrNegativeInt is returned when a negative integer atom appears where an
// unsigned quantity (such as a coin amount) is required.
var ErrNegativeInt = errors.New("clvm: negative integer")

// IntBytes returns the canonical atom encoding of an unsigned integer.
func IntBytes(v uint64) []byte {
	if v == 0 {
		return nil
	}
	var buf [9]byte
	i := 9
	for x := v; x > 0; x >>= 8 {
		i--
		buf[i] = byte(x)
	}
	// Leading zero keeps the sign bit clear.
	if buf[i]&0x80 != 0 {
		i--
		buf[i] = 0
	}
	return buf[i:]
}

// Int returns an atom holding the canonical encoding of an unsigned integer.
func Int(v uint64) *Value {
	return &Value{atom: IntBytes(v)}
}

// CheckCanonicalUint validates that b is a canonical non-negative integer
// atom without decoding it. The empty atom is canonical zero.
func CheckCanonicalUint(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if b[0]&0x80 != 0 {
		return ErrNegativeInt
	}
	if b[0] == 0 && (len(b) == 1 || b[1]&0x80 == 0) {
		return ErrNonCanonicalInt
	}
	return nil
}

// Uint64FromAtom decodes a canonical non-negative integer atom.
// Malformed encodings are rejected, never normalized.
func Uint64FromAtom(b []byte) (uint64, error) {
	if err := CheckCanonicalUint(b); err != nil {
		return 0, err
	}
	// At most 9 bytes: 8 significant plus one sign-clearing zero.
	if len(b) > 9 || (len(b) == 9 && b[0] != 0) {
		return 0, fmt.Errorf("clvm: integer exceeds 64 bits (%d bytes)", len(b))
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

// Uint64FromValue decodes a canonical non-negative integer from an atom value.
func Uint64FromValue(v *Value) (uint64, error) {
	b, ok := v.AtomBytes()
	if !ok {
		return 0, fmt.Errorf("clvm: expected integer atom, got pair")
	}
	return Uint64FromAtom(b)
}
