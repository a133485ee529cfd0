package format

import (
	"errors"
	"fmt"

	"github.com/Beastly713/quorum/pkg/shamir"
)

// Standard Markers used to delineate sections in the text-friendly format
const (
	// MagicHeader is the user-friendly introduction found at the top of the file
	MagicHeader = `# THIS FILE IS A QUORUM SHARE.
# IT IS ONE OF %d SHARES OF A SPLIT MESSAGE.
# THIS IS SHARE NUMBER %d.
# TO READ THE MESSAGE YOU MUST COMBINE IT WITH %d OTHER SHARE(S)
# USING THE PROGRAM FOUND AT:
# https://github.com/Beastly713/quorum
`
	// HeaderMarker indicates the start of the JSON metadata
	HeaderMarker = "-- HEADER --"

	// BodyMarker indicates the start of the share string
	BodyMarker = "-- BODY --"

	// Extension is the file extension used for share files.
	Extension = ".share"
)

// Header contains the metadata needed to group shares of one message.
type Header struct {
	// MessageID identifies the sharing instance. Shares with different
	// ids must never be combined.
	MessageID string `json:"messageId"`

	// Participant is the identity the share was issued to, if any.
	Participant string `json:"participant,omitempty"`

	// Timestamp is the unix timestamp when the split occurred.
	Timestamp int64 `json:"timestamp"`

	// Index is the share id (1-based)
	Index int `json:"index"`

	// Total is the total number of shares created
	Total int `json:"total"`

	// Threshold is the number of shares required to read the message
	Threshold int `json:"threshold"`
}

// Validate checks if the header contains sane values.
func (h *Header) Validate() error {
	if h.Total < 2 || h.Total > shamir.MaxShares {
		return fmt.Errorf("invalid total %d", h.Total)
	}
	if h.Index < 1 || h.Index > h.Total {
		return fmt.Errorf("invalid index %d for total %d", h.Index, h.Total)
	}
	if h.Threshold < 2 || h.Threshold > h.Total {
		return fmt.Errorf("invalid threshold %d for total %d", h.Threshold, h.Total)
	}
	if h.MessageID == "" {
		return errors.New("header is missing message id")
	}
	return nil
}
