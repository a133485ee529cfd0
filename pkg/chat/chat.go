// Package chat sends and reads threshold shared group messages.
//
// Every send splits the text into one share per current participant with
// a full quorum: all participants must have read a message before anyone
// sees it in the clear. The participant count is fetched from the store on
// each send and never cached.
//
// The sender always reads their own messages in the clear. A Service keeps
// the text of what it sent in memory for its lifetime and shows it to the
// sender in place of the reconstruction.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Beastly713/quorum/pkg/bitstring"
	"github.com/Beastly713/quorum/pkg/crypto/secrets"
	"github.com/Beastly713/quorum/pkg/disclosure"
	"github.com/Beastly713/quorum/pkg/metrics"
	"github.com/Beastly713/quorum/pkg/shamir"
	"github.com/Beastly713/quorum/pkg/storage"
)

var (
	// ErrEmptyMessage is returned when sending blank text.
	ErrEmptyMessage = errors.New("chat: message is empty")

	// ErrUnknownSender is returned when the sender is not a participant.
	ErrUnknownSender = errors.New("chat: sender is not a participant")

	// ErrNoParticipants is returned when nobody has joined yet.
	ErrNoParticipants = errors.New("chat: no participants")
)

// Config holds the sharing parameters the service does not derive from
// the participant list.
type Config struct {
	PadLength int
}

// DefaultConfig returns the default sharing parameters.
func DefaultConfig() Config {
	return Config{PadLength: bitstring.DefaultPadLength}
}

// Service sends and reads messages against a Store.
type Service struct {
	store       storage.Store
	coordinator *disclosure.Coordinator
	cfg         Config
	logger      *slog.Logger
	now         func() time.Time

	mu     sync.Mutex
	echoes map[string]*disclosure.View
}

// NewService creates a chat service.
func NewService(store storage.Store, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		coordinator: disclosure.NewCoordinator(store, logger),
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
		echoes:      make(map[string]*disclosure.View),
	}
}

// Join registers a participant. Messages sent before the join carry no
// share for them.
func (s *Service) Join(ctx context.Context, p storage.Participant) error {
	p.Email = strings.TrimSpace(p.Email)
	if p.Email == "" {
		return fmt.Errorf("chat: participant email is required: %w", storage.ErrInvalidID)
	}
	if err := s.store.AddParticipant(ctx, p); err != nil {
		return fmt.Errorf("failed to add participant %s: %w", p.Email, err)
	}
	s.logger.Info("participant joined", "email", p.Email)
	return nil
}

// Send splits text into one share per current participant and stores the
// message. The message exists only once SaveMessage stored every share.
func (s *Service) Send(ctx context.Context, sender, text string) (*disclosure.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	// 1. Fetch the participant list fresh for this send
	participants, err := s.store.Participants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}
	if !isParticipant(participants, sender) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSender, sender)
	}

	// 2. Split with quorum = participant count
	shares, err := s.split(text, len(participants))
	if err != nil {
		return nil, err
	}

	msg := &disclosure.Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		CreatedAt: s.now().UTC(),
		Shares:    make(map[string]string, len(participants)),
		Seen:      []string{sender},
	}
	for i, p := range participants {
		msg.Shares[p.Email] = shares[i]
	}

	// 3. Persist all shares in one step
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	s.mu.Lock()
	s.echoes[msg.ID] = disclosure.Echo(msg, text)
	s.mu.Unlock()

	metrics.RecordSend()
	s.logger.Info("message sent", "id", msg.ID, "sender", sender, "quorum", len(participants))
	return msg, nil
}

func (s *Service) split(text string, n int) ([]string, error) {
	// A lone participant's message is stored as is.
	if n == 1 {
		return []string{text}, nil
	}

	plain := secrets.FromString(text)
	defer plain.Destroy()

	start := time.Now()
	shares, err := shamir.GenerateShares(plain.Bytes(), n, n, shamir.WithPadLength(s.cfg.PadLength))
	if err != nil {
		return nil, fmt.Errorf("failed to split message: %w", err)
	}
	metrics.RecordSplit(len(shares), time.Since(start))

	return shares, nil
}

// Feed reveals every message to viewer, newest first. Reading records the
// viewer as seen on each message they hold a share of. Messages the viewer
// sent through this service are shown from the sender's own copy.
func (s *Service) Feed(ctx context.Context, viewer string) ([]*disclosure.View, error) {
	msgs, err := s.store.Messages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	views := make([]*disclosure.View, 0, len(msgs))
	for _, msg := range msgs {
		if echo, ok := s.echo(msg, viewer); ok {
			views = append(views, echo)
			continue
		}

		view, err := s.coordinator.Reveal(ctx, msg, viewer)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// echo returns the sender's own copy of msg, if this service sent it.
func (s *Service) echo(msg *disclosure.Message, viewer string) (*disclosure.View, bool) {
	if msg.Sender != viewer {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	view, ok := s.echoes[msg.ID]
	if !ok {
		return nil, false
	}
	metrics.RecordReveal(metrics.StatusEcho)
	out := *view
	return &out, true
}

func isParticipant(ps []storage.Participant, email string) bool {
	for _, p := range ps {
		if p.Email == email {
			return true
		}
	}
	return false
}
