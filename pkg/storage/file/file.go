// Package file provides a storage.Store kept in a single JSON document on
// disk. Every operation reloads the document, so separate CLI invocations
// sharing one path see each other's writes. Updates hold an exclusive
// advisory lock on a sibling ".lock" file across load and save, so
// concurrent processes never overwrite each other's changes.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/Beastly713/quorum/pkg/disclosure"
	"github.com/Beastly713/quorum/pkg/storage"
)

type document struct {
	Participants []storage.Participant  `json:"participants"`
	Messages     []*disclosure.Message `json:"messages"`
}

// Store is a storage.Store persisted as JSON at Path.
type Store struct {
	path   string
	mu     sync.Mutex
	closed bool
}

// New opens, or prepares to create, the document at path.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("file store: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	s := &Store{path: path}

	// Fail early on an unreadable document.
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the location of the JSON document.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse store %s: %w", s.path, err)
	}
	return doc, nil
}

// save writes doc to a temporary file and renames it into place so a
// crash never leaves a half-written message behind.
func (s *Store) save(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace store: %w", err)
	}
	return nil
}

// lock takes the cross-process lock guarding read-modify-write cycles.
func (s *Store) lock() (func(), error) {
	f, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to lock store: %w", err)
	}
	return func() {
		_ = unlockFile(f)
		f.Close()
	}, nil
}

// update loads the document, applies fn and saves the result.
func (s *Store) update(fn func(doc *document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}

	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(doc)
}

func (s *Store) view() (*document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, storage.ErrClosed
	}
	return s.load()
}

// AddParticipant registers p.
func (s *Store) AddParticipant(_ context.Context, p storage.Participant) error {
	if p.Email == "" {
		return storage.ErrInvalidID
	}
	return s.update(func(doc *document) error {
		for _, existing := range doc.Participants {
			if existing.Email == p.Email {
				return storage.ErrAlreadyExists
			}
		}
		doc.Participants = append(doc.Participants, p)
		return nil
	})
}

// Participants returns all participants, name descending.
func (s *Store) Participants(_ context.Context) ([]storage.Participant, error) {
	doc, err := s.view()
	if err != nil {
		return nil, err
	}
	out := slices.Clone(doc.Participants)
	storage.SortParticipants(out)
	return out, nil
}

// SaveMessage appends msg to the document.
func (s *Store) SaveMessage(_ context.Context, msg *disclosure.Message) error {
	if msg.ID == "" {
		return storage.ErrInvalidID
	}
	return s.update(func(doc *document) error {
		for _, existing := range doc.Messages {
			if existing.ID == msg.ID {
				return storage.ErrAlreadyExists
			}
		}
		doc.Messages = append(doc.Messages, storage.CloneMessage(msg))
		return nil
	})
}

// Messages returns all messages, newest first.
func (s *Store) Messages(_ context.Context) ([]*disclosure.Message, error) {
	doc, err := s.view()
	if err != nil {
		return nil, err
	}
	storage.SortMessages(doc.Messages)
	return doc.Messages, nil
}

// MarkSeen appends viewer to the message's seen-list unless already present.
func (s *Store) MarkSeen(_ context.Context, messageID, viewer string) error {
	return s.update(func(doc *document) error {
		for _, msg := range doc.Messages {
			if msg.ID != messageID {
				continue
			}
			if !slices.Contains(msg.Seen, viewer) {
				msg.Seen = append(msg.Seen, viewer)
			}
			return nil
		}
		return storage.ErrNotFound
	})
}

// Close marks the store closed. The document stays on disk.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
