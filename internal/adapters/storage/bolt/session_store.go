// Package bolt persists conversation sessions in a single BoltDB file.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	bbolt "go.etcd.io/bbolt"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

var sessionsBucket = []byte("sessions")

// SessionStore implements ports.SessionStore. Each session is one key
// holding its JSON-encoded message list.
type SessionStore struct {
	db     *bbolt.DB
	logger arbor.ILogger
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore opens (or creates) the BoltDB file at path.
func NewSessionStore(path string, logger arbor.ILogger) (*SessionStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating sessions bucket: %w", err)
	}
	logger.Debug().Str("path", path).Msg("Session store opened")
	return &SessionStore{db: db, logger: logger}, nil
}

// Load returns the stored messages, or an empty history for an unknown session.
func (s *SessionStore) Load(ctx context.Context, sessionID string) ([]entities.ConversationMessage, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	var messages []entities.ConversationMessage
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(sessionsBucket).Get([]byte(sessionID))
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, &messages)
	})
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	return messages, nil
}

// Save replaces the session's messages.
func (s *SessionStore) Save(ctx context.Context, sessionID string, messages []entities.ConversationMessage) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(sessionID), data)
	})
}

// Delete removes a session. Unknown sessions are ignored.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(sessionID))
	})
}

// Close closes the database file.
func (s *SessionStore) Close() error {
	return s.db.Close()
}
