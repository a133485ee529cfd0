// Package memory provides an in-memory storage.Store.
// This is useful for testing and ephemeral chats.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/Beastly713/quorum/pkg/disclosure"
	"github.com/Beastly713/quorum/pkg/storage"
)

// Store is a storage.Store backed by maps and guarded by a read-write mutex.
type Store struct {
	mu           sync.RWMutex
	participants map[string]storage.Participant
	messages     map[string]*disclosure.Message
	closed       bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		participants: make(map[string]storage.Participant),
		messages:     make(map[string]*disclosure.Message),
	}
}

// AddParticipant registers p.
func (s *Store) AddParticipant(_ context.Context, p storage.Participant) error {
	if p.Email == "" {
		return storage.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}
	if _, exists := s.participants[p.Email]; exists {
		return storage.ErrAlreadyExists
	}
	s.participants[p.Email] = p
	return nil
}

// Participants returns all participants, name descending.
func (s *Store) Participants(_ context.Context) ([]storage.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrClosed
	}

	out := make([]storage.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	storage.SortParticipants(out)
	return out, nil
}

// SaveMessage stores a copy of msg.
func (s *Store) SaveMessage(_ context.Context, msg *disclosure.Message) error {
	if msg.ID == "" {
		return storage.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}
	if _, exists := s.messages[msg.ID]; exists {
		return storage.ErrAlreadyExists
	}
	s.messages[msg.ID] = storage.CloneMessage(msg)
	return nil
}

// Messages returns copies of all messages, newest first.
func (s *Store) Messages(_ context.Context) ([]*disclosure.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrClosed
	}

	out := make([]*disclosure.Message, 0, len(s.messages))
	for _, msg := range s.messages {
		out = append(out, storage.CloneMessage(msg))
	}
	storage.SortMessages(out)
	return out, nil
}

// MarkSeen appends viewer to the message's seen-list unless already present.
func (s *Store) MarkSeen(_ context.Context, messageID, viewer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}
	msg, ok := s.messages[messageID]
	if !ok {
		return storage.ErrNotFound
	}
	if !slices.Contains(msg.Seen, viewer) {
		msg.Seen = append(msg.Seen, viewer)
	}
	return nil
}

// Close marks the store closed. Further calls return storage.ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
