package clvm

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Wire form: 0xff introduces a pair (first then rest follow), 0x80 is the
// empty atom, a single byte below 0x80 is itself, and longer atoms carry a
// variable-length size prefix.
const (
	consByte = 0xff
	nilByte  = 0x80
)

// ErrTrailingBytes is returned when deserialization leaves unconsumed input.
var ErrTrailingBytes = errors.New("clvm: trailing bytes after value")

// Serialize encodes a value into its canonical wire form. Serialization is
// injective: distinct trees never share an encoding.
func Serialize(v *Value) []byte {
	var buf []byte
	return appendValue(buf, v)
}

func appendValue(buf []byte, v *Value) []byte {
	if v.isPair {
		buf = append(buf, consByte)
		buf = appendValue(buf, v.first)
		return appendValue(buf, v.rest)
	}
	return appendAtom(buf, v.atom)
}

func appendAtom(buf, atom []byte) []byte {
	n := len(atom)
	switch {
	case n == 0:
		return append(buf, nilByte)
	case n == 1 && atom[0] < 0x80:
		return append(buf, atom[0])
	case n < 0x40:
		buf = append(buf, 0x80|byte(n))
	case n < 0x2000:
		buf = append(buf, 0xc0|byte(n>>8), byte(n))
	case n < 0x100000:
		buf = append(buf, 0xe0|byte(n>>16), byte(n>>8), byte(n))
	case n < 0x8000000:
		buf = append(buf, 0xf0|byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	default:
		buf = append(buf, 0xf8|byte(n>>32), byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	}
	return append(buf, atom...)
}

// SerializeHex encodes a value as a hex string for JSON transport.
func SerializeHex(v *Value) string {
	return hex.EncodeToString(Serialize(v))
}

// DeserializeHex decodes a hex-encoded wire form.
func DeserializeHex(s string) (*Value, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("clvm: %w", err)
	}
	return Deserialize(data)
}

// Deserialize decodes a value from its wire form, rejecting trailing bytes.
func Deserialize(data []byte) (*Value, error) {
	v, rest, err := readValue(data)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, ErrTrailingBytes
	}
	return v, nil
}

func readValue(data []byte) (*Value, []byte, error) {
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("clvm: unexpected end of input")
	}
	b := data[0]
	data = data[1:]

	if b == consByte {
		first, rest, err := readValue(data)
		if err != nil {
			return nil, nil, err
		}
		second, rest, err := readValue(rest)
		if err != nil {
			return nil, nil, err
		}
		return Pair(first, second), rest, nil
	}
	if b == nilByte {
		return Nil(), data, nil
	}
	if b < 0x80 {
		return Atom([]byte{b}), data, nil
	}

	// Count the leading ones to find the size-prefix width.
	var sizeLen int
	switch {
	case b&0xc0 == 0x80:
		sizeLen = 0
	case b&0xe0 == 0xc0:
		sizeLen = 1
	case b&0xf0 == 0xe0:
		sizeLen = 2
	case b&0xf8 == 0xf0:
		sizeLen = 3
	case b&0xfc == 0xf8:
		sizeLen = 4
	default:
		return nil, nil, fmt.Errorf("clvm: invalid atom prefix 0x%02x", b)
	}

	mask := byte(0xff >> (sizeLen + 2))
	size := uint64(b & mask)
	if len(data) < sizeLen {
		return nil, nil, fmt.Errorf("clvm: truncated atom size")
	}
	for i := 0; i < sizeLen; i++ {
		size = size<<8 | uint64(data[i])
	}
	data = data[sizeLen:]

	if uint64(len(data)) < size {
		return nil, nil, fmt.Errorf("clvm: truncated atom: need %d bytes, have %d", size, len(data))
	}
	return Atom(data[:size]), data[size:], nil
}
