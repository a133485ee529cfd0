// Package postgres provides a storage.Store backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Beastly713/quorum/pkg/disclosure"
	"github.com/Beastly713/quorum/pkg/storage"
)

// uniqueViolation is the SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// Store implements storage.Store with PostgreSQL persistence.
type Store struct {
	db *sql.DB
}

// New connects with the given connection string and runs migrations.
func New(ctx context.Context, connString string) (*Store, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS participants (
		email VARCHAR(320) PRIMARY KEY,
		name VARCHAR(256) NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS messages (
		id VARCHAR(64) PRIMARY KEY,
		sender VARCHAR(320) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		shares JSONB NOT NULL,
		users_seen TEXT[] NOT NULL DEFAULT '{}'
	);

	CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at);
	`

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// AddParticipant registers p.
func (s *Store) AddParticipant(ctx context.Context, p storage.Participant) error {
	if p.Email == "" {
		return storage.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO participants (email, name) VALUES ($1, $2)", p.Email, p.Name)
	return translate(err)
}

// Participants returns all participants, name descending.
func (s *Store) Participants(ctx context.Context) ([]storage.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT email, name FROM participants ORDER BY name DESC, email ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.Participant
	for rows.Next() {
		var p storage.Participant
		if err := rows.Scan(&p.Email, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveMessage inserts msg in a single statement, so either every share is
// stored or none is.
func (s *Store) SaveMessage(ctx context.Context, msg *disclosure.Message) error {
	if msg.ID == "" {
		return storage.ErrInvalidID
	}

	shares, err := json.Marshal(msg.Shares)
	if err != nil {
		return fmt.Errorf("marshalling shares: %w", err)
	}

	seen := msg.Seen
	if seen == nil {
		seen = []string{}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
	INSERT INTO messages (id, sender, created_at, shares, users_seen)
	VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(ctx, query,
		msg.ID,
		msg.Sender,
		msg.CreatedAt,
		shares,
		pq.Array(seen),
	)
	return translate(err)
}

// Messages returns all messages, newest first.
func (s *Store) Messages(ctx context.Context) ([]*disclosure.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender, created_at, shares, users_seen
		FROM messages
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*disclosure.Message
	for rows.Next() {
		var (
			msg    disclosure.Message
			shares []byte
		)
		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.CreatedAt, &shares, pq.Array(&msg.Seen)); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(shares, &msg.Shares); err != nil {
			return nil, fmt.Errorf("message %s: decoding shares: %w", msg.ID, err)
		}
		out = append(out, &msg)
	}
	return out, rows.Err()
}

// MarkSeen appends viewer to the seen-list. The ANY guard keeps the
// update idempotent under concurrent readers.
func (s *Store) MarkSeen(ctx context.Context, messageID, viewer string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		UPDATE messages
		SET users_seen = array_append(users_seen, $2)
		WHERE id = $1 AND NOT ($2 = ANY(users_seen))
	`, messageID, viewer)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists bool
		err := s.db.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM messages WHERE id = $1)", messageID).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return storage.ErrNotFound
		}
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return storage.ErrAlreadyExists
	}
	return err
}
