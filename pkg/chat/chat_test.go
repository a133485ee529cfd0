package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Beastly713/quorum/pkg/logging"
	"github.com/Beastly713/quorum/pkg/shamir"
	"github.com/Beastly713/quorum/pkg/storage"
	"github.com/Beastly713/quorum/pkg/storage/memory"
)

func newService(t *testing.T, people ...storage.Participant) (*Service, storage.Store) {
	t.Helper()
	store := memory.New()
	svc := NewService(store, DefaultConfig(), logging.Discard())

	// A ticking clock keeps message order deterministic.
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	for _, p := range people {
		require.NoError(t, svc.Join(context.Background(), p))
	}
	return svc, store
}

var (
	alice = storage.Participant{Email: "a@x", Name: "alice"}
	bob   = storage.Participant{Email: "b@x", Name: "bob"}
	carol = storage.Participant{Email: "c@x", Name: "carol"}
)

func TestSendAssignsOneSharePerParticipant(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, alice, bob, carol)

	msg, err := svc.Send(ctx, "a@x", "hello team")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, []string{"a@x"}, msg.Seen)
	require.Len(t, msg.Shares, 3)

	// Name descending: carol, bob, alice get ids 1, 2, 3.
	assert.Equal(t, "01", msg.Shares["c@x"][:2])
	assert.Equal(t, "02", msg.Shares["b@x"][:2])
	assert.Equal(t, "03", msg.Shares["a@x"][:2])

	all := []string{msg.Shares["a@x"], msg.Shares["b@x"], msg.Shares["c@x"]}
	secret, err := shamir.DeriveSecret(all)
	require.NoError(t, err)
	assert.Equal(t, "hello team", string(secret))
}

func TestDisclosureScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, alice, bob, carol)

	_, err := svc.Send(ctx, "a@x", "quorum reached")
	require.NoError(t, err)

	// Sender A reads correctly straight away.
	feed, err := svc.Feed(ctx, "a@x")
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.False(t, feed[0].Masked)
	assert.Equal(t, "quorum reached", feed[0].Text)

	// B reads before being recorded: A and B's shares, 2 of 3.
	feed, err = svc.Feed(ctx, "b@x")
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.True(t, feed[0].Masked)
	assert.Equal(t, 2, feed[0].Available)
	assert.NotEqual(t, "quorum reached", feed[0].Text)

	// C completes the set.
	feed, err = svc.Feed(ctx, "c@x")
	require.NoError(t, err)
	assert.False(t, feed[0].Masked)
	assert.Equal(t, "quorum reached", feed[0].Text)

	for _, viewer := range []string{"a@x", "b@x", "c@x"} {
		feed, err := svc.Feed(ctx, viewer)
		require.NoError(t, err)
		assert.Equal(t, "quorum reached", feed[0].Text, viewer)
	}
}

func TestSingleParticipantStoresPlaintext(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, alice)

	msg, err := svc.Send(ctx, "a@x", "note to self")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a@x": "note to self"}, msg.Shares)

	feed, err := svc.Feed(ctx, "a@x")
	require.NoError(t, err)
	assert.Equal(t, "note to self", feed[0].Text)
}

func TestSenderEchoStaysWithSendingService(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, alice, bob, carol)

	msg, err := svc.Send(ctx, "a@x", "only I know yet")
	require.NoError(t, err)

	feed, err := svc.Feed(ctx, "a@x")
	require.NoError(t, err)
	assert.Equal(t, "only I know yet", feed[0].Text)
	assert.Equal(t, 3, feed[0].Available)

	// Other viewers never get the echo.
	feed, err = svc.Feed(ctx, "b@x")
	require.NoError(t, err)
	assert.True(t, feed[0].Masked)

	// A fresh service over the same store only has the shares.
	other := NewService(store, DefaultConfig(), logging.Discard())
	feed, err = other.Feed(ctx, "a@x")
	require.NoError(t, err)
	assert.Equal(t, msg.ID, feed[0].MessageID)
	assert.True(t, feed[0].Masked)
	assert.Equal(t, 2, feed[0].Available)
}

func TestQuorumFollowsCurrentParticipants(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, alice, bob)

	first, err := svc.Send(ctx, "a@x", "two of us")
	require.NoError(t, err)
	assert.Len(t, first.Shares, 2)

	require.NoError(t, svc.Join(ctx, carol))

	second, err := svc.Send(ctx, "b@x", "three now")
	require.NoError(t, err)
	assert.Len(t, second.Shares, 3)

	// Carol has no share of the earlier message and sees it masked until
	// bob reads it.
	feed, err := svc.Feed(ctx, "c@x")
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.True(t, feed[1].Masked)
}

func TestFeedIsNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, alice, bob)

	_, err := svc.Send(ctx, "a@x", "first")
	require.NoError(t, err)
	_, err = svc.Send(ctx, "a@x", "second")
	require.NoError(t, err)

	feed, err := svc.Feed(ctx, "b@x")
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "second", feed[0].Text)
	assert.Equal(t, "first", feed[1].Text)
}

func TestSendErrors(t *testing.T) {
	ctx := context.Background()

	empty, _ := newService(t)
	_, err := empty.Send(ctx, "a@x", "hi")
	assert.ErrorIs(t, err, ErrNoParticipants)

	svc, _ := newService(t, alice, bob)
	_, err = svc.Send(ctx, "mallory@x", "hi")
	assert.ErrorIs(t, err, ErrUnknownSender)

	_, err = svc.Send(ctx, "a@x", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = svc.Send(ctx, "a@x", " \t\n ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	bad := NewService(memory.New(), Config{PadLength: 4096}, logging.Discard())
	require.NoError(t, bad.Join(ctx, alice))
	require.NoError(t, bad.Join(ctx, bob))
	_, err = bad.Send(ctx, "a@x", "hi")
	assert.ErrorIs(t, err, shamir.ErrConfiguration)
}

func TestJoinValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, alice)

	assert.ErrorIs(t, svc.Join(ctx, storage.Participant{Email: "  "}), storage.ErrInvalidID)
	assert.ErrorIs(t, svc.Join(ctx, alice), storage.ErrAlreadyExists)
}
