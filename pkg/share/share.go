// Package share defines the share wire format: a two hex digit id followed
// by one or more hex digits of data, one byte per secret block with the
// most significant block first.
package share

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/Beastly713/quorum/pkg/bitstring"
)

const (
	// MinID and MaxID bound the x coordinate a share may carry.
	MinID = 1
	MaxID = 255
)

// ErrInvalidShare matches every *InvalidShareError via errors.Is.
var ErrInvalidShare = errors.New("invalid share")

var sharePattern = regexp.MustCompile(`^([a-fA-F\d]{2})([a-fA-F\d]+)$`)

// InvalidShareError reports a share string that cannot be parsed.
type InvalidShareError struct {
	Share  string
	Reason string
}

func (e *InvalidShareError) Error() string {
	return fmt.Sprintf("invalid share %q: %s", e.Share, e.Reason)
}

func (e *InvalidShareError) Unwrap() error {
	return ErrInvalidShare
}

// Share is one participant's evaluation of the sharing polynomials.
type Share struct {
	// ID is the x coordinate, in [1, 255].
	ID uint8

	// Data is the hex encoded y values.
	Data string
}

// Parse splits s into its id and data, failing fast on malformed input.
func Parse(s string) (Share, error) {
	m := sharePattern.FindStringSubmatch(s)
	if m == nil {
		return Share{}, &InvalidShareError{Share: s, Reason: "expected <2 hex digit id><hex data>"}
	}

	id, err := strconv.ParseUint(m[1], 16, 8)
	if err != nil || id < MinID || id > MaxID {
		return Share{}, &InvalidShareError{
			Share:  s,
			Reason: fmt.Sprintf("share id must be an integer between %d and %d, inclusive", MinID, MaxID),
		}
	}

	return Share{ID: uint8(id), Data: m[2]}, nil
}

// String returns the wire form of the share.
func (s Share) String() string {
	return fmt.Sprintf("%02x%s", s.ID, s.Data)
}

// Blocks returns the y values carried by the share, least significant
// block first.
func (s Share) Blocks() ([]uint8, error) {
	bits, err := bitstring.FromHex(s.Data)
	if err != nil {
		return nil, &InvalidShareError{Share: s.String(), Reason: err.Error()}
	}
	return bitstring.Split(bits, 0)
}
