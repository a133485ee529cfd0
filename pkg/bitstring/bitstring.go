// Package bitstring converts byte secrets to and from sequences of 8-bit
// field elements. Bit strings are plain strings of '0' and '1', most
// significant bit first.
package bitstring

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// FieldBits is the width of one field element.
	FieldBits = 8

	// DefaultPadLength is the block the encoded secret is padded to unless
	// the caller asks otherwise.
	DefaultPadLength = 128

	// MaxPadLength is the largest accepted pad length.
	MaxPadLength = 1024
)

// ErrPadLength is returned for a pad length outside [0, MaxPadLength].
var ErrPadLength = errors.New("pad length must be an integer between 0 and 1024 inclusive")

// FromBytes encodes secret as bits, prefixed with a sentinel 1 bit so that
// leading zero bytes survive padding.
func FromBytes(secret []byte) string {
	var sb strings.Builder
	sb.Grow(1 + len(secret)*8)
	sb.WriteByte('1')
	for _, b := range secret {
		fmt.Fprintf(&sb, "%08b", b)
	}
	return sb.String()
}

// FromHex expands every hex digit into 4 bits.
func FromHex(hex string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(hex) * 4)
	for i := 0; i < len(hex); i++ {
		v, err := strconv.ParseUint(hex[i:i+1], 16, 8)
		if err != nil {
			return "", fmt.Errorf("invalid hex digit %q at offset %d", hex[i], i)
		}
		fmt.Fprintf(&sb, "%04b", v)
	}
	return sb.String(), nil
}

// PadLeft prepends zeros until len(bits) is a multiple of width.
// Widths of 0 and 1 leave bits unchanged.
func PadLeft(bits string, width int) string {
	if width <= 1 {
		return bits
	}
	if rem := len(bits) % width; rem != 0 {
		return strings.Repeat("0", width-rem) + bits
	}
	return bits
}

// Split pads bits to a multiple of padLength and cuts it into field
// elements, scanning 8-bit windows from the least significant end.
// Element 0 is the least significant block; the last element may come
// from a window narrower than 8 bits.
func Split(bits string, padLength int) ([]uint8, error) {
	if padLength < 0 || padLength > MaxPadLength {
		return nil, fmt.Errorf("%w: got %d", ErrPadLength, padLength)
	}
	bits = PadLeft(bits, padLength)

	parts := make([]uint8, 0, len(bits)/FieldBits+1)
	i := len(bits)
	for ; i > FieldBits; i -= FieldBits {
		parts = append(parts, parseBits(bits[i-FieldBits:i]))
	}
	parts = append(parts, parseBits(bits[:i]))

	return parts, nil
}

// Join is the inverse of Split: elements are written most significant
// first, each as exactly 8 bits.
func Join(elements []uint8) string {
	var sb strings.Builder
	sb.Grow(len(elements) * FieldBits)
	for i := len(elements) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%08b", elements[i])
	}
	return sb.String()
}

// StripSentinel drops any leading zeros and the sentinel bit. A string
// without a 1 bit is returned unchanged.
func StripSentinel(bits string) string {
	idx := strings.IndexByte(bits, '1')
	if idx < 0 {
		return bits
	}
	return bits[idx+1:]
}

// ToBytes packs bits into bytes, left-padding with zeros to a whole byte.
func ToBytes(bits string) []byte {
	bits = PadLeft(bits, FieldBits)
	out := make([]byte, len(bits)/FieldBits)
	for i := range out {
		out[i] = parseBits(bits[i*FieldBits : (i+1)*FieldBits])
	}
	return out
}

// parseBits reads at most 8 bits. An empty window is zero.
func parseBits(s string) uint8 {
	var v uint8
	for i := 0; i < len(s); i++ {
		v <<= 1
		if s[i] == '1' {
			v |= 1
		}
	}
	return v
}
