// Package shamir implements (t, n) threshold secret sharing over GF(2^8).
//
// A secret is encoded as bits behind a sentinel 1 bit, padded and cut into
// 8-bit blocks. Every block gets its own random polynomial of degree t-1,
// evaluated at x = 1..n. A share carries one y value per block.
//
// Reconstruction does not fail closed. DeriveSecret fed fewer than t
// genuine shares, or shares from different sharing instances, returns a
// silently wrong byte sequence instead of an error. Callers that need an
// integrity signal must add their own checksum.
package shamir

import (
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/Beastly713/quorum/pkg/bitstring"
	"github.com/Beastly713/quorum/pkg/share"
)

// MaxShares is the largest number of shares, and the largest threshold,
// the 8-bit field can address.
const MaxShares = 255

type options struct {
	padLength int
	random    io.Reader
}

// Option customises GenerateShares.
type Option func(*options)

// WithPadLength pads the encoded secret to a multiple of n bits before it
// is cut into blocks. The default is 128; 0 disables padding.
func WithPadLength(n int) Option {
	return func(o *options) {
		o.padLength = n
	}
}

// WithRandom replaces crypto/rand as the coefficient source.
func WithRandom(r io.Reader) Option {
	return func(o *options) {
		o.random = r
	}
}

// GenerateShares splits secret into total shares, any threshold of which
// reconstruct it. Share ids are exactly 1..total, in order.
func GenerateShares(secret []byte, total, threshold int, opts ...Option) ([]string, error) {
	o := options{
		padLength: bitstring.DefaultPadLength,
		random:    rand.Reader,
	}
	for _, opt := range opts {
		opt(&o)
	}

	// 1. Validation
	if err := validate(total, threshold, o.padLength); err != nil {
		return nil, err
	}

	// 2. Encode the secret into blocks, least significant first
	blocks, err := bitstring.Split(bitstring.FromBytes(secret), o.padLength)
	if err != nil {
		return nil, &ConfigurationError{Param: "padLength", Value: o.padLength, Msg: err.Error()}
	}

	// 3. One independent polynomial per block. ys[j] holds the bytes of
	// share j+1, most significant block first.
	ys := make([][]byte, total)
	for j := range ys {
		ys[j] = make([]byte, len(blocks))
	}

	for idx, block := range blocks {
		p, err := makePolynomial(block, threshold-1, o.random)
		if err != nil {
			return nil, err
		}

		pos := len(blocks) - 1 - idx
		for j := 0; j < total; j++ {
			ys[j][pos] = p.evaluate(uint8(j + 1))
		}
	}

	// 4. Serialize
	out := make([]string, total)
	for j := range out {
		out[j] = share.Share{ID: uint8(j + 1), Data: hex.EncodeToString(ys[j])}.String()
	}

	return out, nil
}

func validate(total, threshold, padLength int) error {
	if total < 2 {
		return &ConfigurationError{Param: "total", Value: total,
			Msg: "number of shares must be an integer between 2 and 255, inclusive"}
	}
	if total > MaxShares {
		return &ConfigurationError{Param: "total", Value: total,
			Msg: "number of shares cannot exceed 255 in GF(2^8)"}
	}
	if threshold < 2 {
		return &ConfigurationError{Param: "threshold", Value: threshold,
			Msg: "threshold must be an integer between 2 and 255, inclusive"}
	}
	if threshold > MaxShares {
		return &ConfigurationError{Param: "threshold", Value: threshold,
			Msg: "threshold cannot exceed 255 in GF(2^8)"}
	}
	if threshold > total {
		return &ConfigurationError{Param: "threshold", Value: threshold,
			Msg: "threshold must be less than or equal to the number of shares"}
	}
	if padLength < 0 || padLength > bitstring.MaxPadLength {
		return &ConfigurationError{Param: "padLength", Value: padLength,
			Msg: "zero-pad length must be an integer between 0 and 1024, inclusive"}
	}
	return nil
}

// DeriveSecret reconstructs a secret from share strings. Duplicate ids are
// ignored after their first occurrence.
//
// The only error is a malformed share. With too few shares, or shares of
// different secrets, the result is garbage and no error is reported.
func DeriveSecret(shares []string) ([]byte, error) {
	var (
		xs []uint8
		ys [][]uint8 // ys[block][share]
	)
	seen := make(map[uint8]bool, len(shares))

	for _, s := range shares {
		parsed, err := share.Parse(s)
		if err != nil {
			return nil, err
		}
		if seen[parsed.ID] {
			continue
		}
		seen[parsed.ID] = true

		blocks, err := parsed.Blocks()
		if err != nil {
			return nil, err
		}

		col := len(xs)
		xs = append(xs, parsed.ID)
		for len(ys) < len(blocks) {
			ys = append(ys, nil)
		}
		for b, y := range blocks {
			for len(ys[b]) < col {
				ys[b] = append(ys[b], 0)
			}
			ys[b] = append(ys[b], y)
		}
	}

	// Shares with fewer blocks count as zero in the blocks they lack.
	recovered := make([]uint8, len(ys))
	for b := range ys {
		for len(ys[b]) < len(xs) {
			ys[b] = append(ys[b], 0)
		}
		recovered[b] = lagrange(xs, ys[b])
	}

	bits := bitstring.StripSentinel(bitstring.Join(recovered))
	return bitstring.ToBytes(bits), nil
}
