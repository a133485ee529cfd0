// Package storage defines where participants and their message shares
// live. Implementations are in the memory, file and postgres subpackages.
package storage

import (
	"context"
	"errors"

	"github.com/Beastly713/quorum/pkg/disclosure"
)

var (
	// ErrClosed is returned when attempting to use a closed store.
	ErrClosed = errors.New("storage: closed")

	// ErrNotFound is returned when a message is not found.
	ErrNotFound = errors.New("storage: not found")

	// ErrAlreadyExists is returned when saving a participant or message that already exists.
	ErrAlreadyExists = errors.New("storage: already exists")

	// ErrInvalidID is returned when an ID is invalid or empty.
	ErrInvalidID = errors.New("storage: invalid ID")
)

// Participant is a registered chat member. Email is the identity key.
type Participant struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Store persists participants, messages and seen-lists. Implementations
// must be safe for concurrent use.
type Store interface {
	disclosure.SeenRecorder

	// AddParticipant registers p, failing with ErrAlreadyExists for a
	// known email.
	AddParticipant(ctx context.Context, p Participant) error

	// Participants returns every participant ordered by name, descending,
	// with ties broken by email.
	Participants(ctx context.Context) ([]Participant, error)

	// SaveMessage stores a complete message in one step.
	SaveMessage(ctx context.Context, msg *disclosure.Message) error

	// Messages returns every message, newest first.
	Messages(ctx context.Context) ([]*disclosure.Message, error)

	// Close releases the store.
	Close() error
}
