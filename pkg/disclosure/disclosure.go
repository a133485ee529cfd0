// Package disclosure decides what a viewer gets to see of a threshold
// shared message.
//
// A viewer combines the shares of everyone already recorded as having seen
// the message with their own share, and reading records them in turn. Until
// every participant has read once, later readers hold fewer shares than
// the quorum and reconstruct garbage, which Mask tidies up for display.
//
// Masking is cosmetic. It is not access control and gives no secrecy
// guarantee beyond the garbling done by the reconstructor.
package disclosure

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Beastly713/quorum/pkg/metrics"
	"github.com/Beastly713/quorum/pkg/shamir"
)

// Message is a sent message with one share per participant.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	CreatedAt time.Time `json:"createdAt"`

	// Shares maps a participant identity to their share string. A message
	// sent while only one participant existed holds the plaintext instead.
	Shares map[string]string `json:"shares"`

	// Seen lists the participants whose shares are exposed to every reader.
	Seen []string `json:"usersSeen"`
}

// HasSeen reports whether viewer is recorded as having read the message.
func (m *Message) HasSeen(viewer string) bool {
	return slices.Contains(m.Seen, viewer)
}

// Participants returns the message's share holders in sorted order.
func (m *Message) Participants() []string {
	ids := make([]string, 0, len(m.Shares))
	for id := range m.Shares {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SeenRecorder persists that a viewer has read a message. MarkSeen must be
// idempotent.
type SeenRecorder interface {
	MarkSeen(ctx context.Context, messageID, viewer string) error
}

// View is what a viewer gets to display for one message.
type View struct {
	MessageID string
	Sender    string
	CreatedAt time.Time
	Text      string

	// Available is the number of shares combined; Total is the quorum.
	Available int
	Total     int

	// Masked is set when Text was reconstructed from fewer shares than the
	// quorum and scrubbed by Mask.
	Masked bool
}

// Coordinator reveals messages to viewers.
type Coordinator struct {
	recorder SeenRecorder
	logger   *slog.Logger
}

// NewCoordinator creates a Coordinator recording reads with recorder.
func NewCoordinator(recorder SeenRecorder, logger *slog.Logger) *Coordinator {
	return &Coordinator{recorder: recorder, logger: logger}
}

// Reveal reconstructs msg with the shares available to viewer. When the
// viewer holds a share and has not read the message before, they are
// recorded as seen and appended to msg.Seen.
func (c *Coordinator) Reveal(ctx context.Context, msg *Message, viewer string) (*View, error) {
	view := &View{
		MessageID: msg.ID,
		Sender:    msg.Sender,
		CreatedAt: msg.CreatedAt,
		Total:     len(msg.Shares),
	}

	// A lone participant's message was never split.
	if len(msg.Shares) == 1 {
		for _, text := range msg.Shares {
			view.Text = text
		}
		view.Available = 1
		metrics.RecordReveal(metrics.StatusPlaintext)
		return view, nil
	}

	// 1. Collect the shares exposed to this viewer
	var available []string
	for _, participant := range msg.Participants() {
		s := msg.Shares[participant]
		switch {
		case msg.HasSeen(participant):
			available = append(available, s)
		case participant == viewer:
			available = append(available, s)
			if err := c.recorder.MarkSeen(ctx, msg.ID, viewer); err != nil {
				metrics.RecordReveal(metrics.StatusError)
				return nil, fmt.Errorf("failed to record %s as seen: %w", viewer, err)
			}
			msg.Seen = append(msg.Seen, viewer)
			c.logger.Debug("recorded viewer", "message", msg.ID, "viewer", viewer)
		}
	}
	view.Available = len(available)

	// 2. Reconstruct, best effort
	secret, err := shamir.DeriveSecret(available)
	if err != nil {
		metrics.RecordReveal(metrics.StatusError)
		return nil, fmt.Errorf("message %s: %w", msg.ID, err)
	}
	view.Text = strings.ToValidUTF8(string(secret), string(utf8.RuneError))

	// 3. Below the quorum the text is almost certainly garbage
	if view.Available < view.Total {
		view.Text = Mask(view.Text)
		view.Masked = true
		metrics.RecordReveal(metrics.StatusMasked)
		c.logger.Debug("masked message below quorum",
			"message", msg.ID, "viewer", viewer,
			"available", view.Available, "total", view.Total)
		return view, nil
	}

	metrics.RecordReveal(metrics.StatusClear)
	return view, nil
}

// Echo is the sender's own view of a message they just sent. The sender
// typed the text, so it is shown in the clear whatever the seen-list holds.
func Echo(msg *Message, text string) *View {
	return &View{
		MessageID: msg.ID,
		Sender:    msg.Sender,
		CreatedAt: msg.CreatedAt,
		Text:      text,
		Available: len(msg.Shares),
		Total:     len(msg.Shares),
	}
}

// Mask removes whitespace, control and replacement characters.
func Mask(text string) string {
	return strings.Map(func(r rune) rune {
		if r == utf8.RuneError || unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}
