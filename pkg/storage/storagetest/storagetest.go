// Package storagetest holds the behavioural tests every storage.Store
// implementation must pass.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Beastly713/quorum/pkg/disclosure"
	"github.com/Beastly713/quorum/pkg/storage"
)

// Run exercises a fresh store from newStore against the Store contract.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("Participants", func(t *testing.T) { testParticipants(t, newStore(t)) })
	t.Run("Messages", func(t *testing.T) { testMessages(t, newStore(t)) })
	t.Run("MarkSeen", func(t *testing.T) { testMarkSeen(t, newStore(t)) })
	t.Run("ConcurrentMarkSeen", func(t *testing.T) { testConcurrentMarkSeen(t, newStore(t)) })
}

func testParticipants(t *testing.T, s storage.Store) {
	ctx := context.Background()

	require.NoError(t, s.AddParticipant(ctx, storage.Participant{Email: "a@x", Name: "alice"}))
	require.NoError(t, s.AddParticipant(ctx, storage.Participant{Email: "c@x", Name: "carol"}))
	require.NoError(t, s.AddParticipant(ctx, storage.Participant{Email: "b@x", Name: "bob"}))

	err := s.AddParticipant(ctx, storage.Participant{Email: "a@x", Name: "again"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	err = s.AddParticipant(ctx, storage.Participant{Name: "nobody"})
	assert.ErrorIs(t, err, storage.ErrInvalidID)

	ps, err := s.Participants(ctx)
	require.NoError(t, err)
	require.Len(t, ps, 3)
	assert.Equal(t, []string{"carol", "bob", "alice"}, []string{ps[0].Name, ps[1].Name, ps[2].Name})
}

func testMessages(t *testing.T, s storage.Store) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		msg := &disclosure.Message{
			ID:        fmt.Sprintf("m%d", i),
			Sender:    "a@x",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Shares:    map[string]string{"a@x": fmt.Sprintf("01%02x", i+1), "b@x": "02ff"},
			Seen:      []string{"a@x"},
		}
		require.NoError(t, s.SaveMessage(ctx, msg))
	}

	err := s.SaveMessage(ctx, &disclosure.Message{ID: "m0", Shares: map[string]string{}})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	msgs, err := s.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m2", msgs[0].ID, "newest first")
	assert.Equal(t, "m0", msgs[2].ID)
	assert.True(t, msgs[0].CreatedAt.Equal(base.Add(2*time.Minute)))
	assert.Equal(t, "0103", msgs[0].Shares["a@x"])
	assert.Equal(t, []string{"a@x"}, msgs[0].Seen)

	// Returned messages must not alias stored state.
	msgs[0].Seen = append(msgs[0].Seen, "intruder")
	again, err := s.Messages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x"}, again[0].Seen)
}

func testMarkSeen(t *testing.T, s storage.Store) {
	ctx := context.Background()
	msg := &disclosure.Message{
		ID:        "seen",
		Sender:    "a@x",
		CreatedAt: time.Now().UTC(),
		Shares:    map[string]string{"a@x": "01aa", "b@x": "02bb"},
		Seen:      []string{"a@x"},
	}
	require.NoError(t, s.SaveMessage(ctx, msg))

	require.NoError(t, s.MarkSeen(ctx, "seen", "b@x"))
	require.NoError(t, s.MarkSeen(ctx, "seen", "b@x"))
	require.NoError(t, s.MarkSeen(ctx, "seen", "a@x"))

	msgs, err := s.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"a@x", "b@x"}, msgs[0].Seen)

	assert.ErrorIs(t, s.MarkSeen(ctx, "missing", "b@x"), storage.ErrNotFound)
}

func testConcurrentMarkSeen(t *testing.T, s storage.Store) {
	ctx := context.Background()
	viewers := []string{"a@x", "b@x", "c@x", "d@x", "e@x"}
	shares := make(map[string]string, len(viewers))
	for i, v := range viewers {
		shares[v] = fmt.Sprintf("%02xaa", i+1)
	}
	require.NoError(t, s.SaveMessage(ctx, &disclosure.Message{
		ID: "race", Sender: "a@x", CreatedAt: time.Now().UTC(), Shares: shares,
	}))

	var wg sync.WaitGroup
	for _, v := range viewers {
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func(viewer string) {
				defer wg.Done()
				assert.NoError(t, s.MarkSeen(ctx, "race", viewer))
			}(v)
		}
	}
	wg.Wait()

	msgs, err := s.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.ElementsMatch(t, viewers, msgs[0].Seen)
}
