package storage

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Beastly713/quorum/pkg/disclosure"
)

// SortParticipants orders participants the way Store.Participants returns them.
func SortParticipants(ps []Participant) {
	slices.SortFunc(ps, func(a, b Participant) int {
		if c := strings.Compare(b.Name, a.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Email, b.Email)
	})
}

// SortMessages orders messages newest first, ties broken by id.
func SortMessages(msgs []*disclosure.Message) {
	slices.SortFunc(msgs, func(a, b *disclosure.Message) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// CloneMessage returns a deep copy of msg so callers cannot alias stored state.
func CloneMessage(msg *disclosure.Message) *disclosure.Message {
	out := *msg
	out.Shares = make(map[string]string, len(msg.Shares))
	for k, v := range msg.Shares {
		out.Shares[k] = v
	}
	out.Seen = slices.Clone(msg.Seen)
	return &out
}
