// Package memory provides in-process adapters used in tests and single-node
// development.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
)

type entry struct {
	token     string
	profile   []byte
	expiresAt time.Time
}

// SessionStore keeps sessions in a map. The profile is held serialized so the
// store behaves like the persistent backends.
type SessionStore struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
}

// NewSessionStore returns an empty store.
func NewSessionStore(defaultTTL time.Duration) *SessionStore {
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	return &SessionStore{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (s *SessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	if sess.Token == "" {
		return errors.New("session token cannot be empty")
	}
	data, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	expiresAt := sess.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = s.now().Add(s.defaultTTL)
	}
	if !expiresAt.After(s.now()) {
		return errors.New("session is expired")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sess.ID] = entry{token: sess.Token, profile: data, expiresAt: expiresAt}
	return nil
}

// PutRaw stores a token and an unparsed profile payload as-is.
func (s *SessionStore) PutRaw(id, token string, profile []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = entry{token: token, profile: profile, expiresAt: s.now().Add(s.defaultTTL)}
}

func (s *SessionStore) Load(_ context.Context, id string) (domainauth.Session, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok && !e.expiresAt.After(s.now()) {
		delete(s.entries, id)
		ok = false
	}
	s.mu.Unlock()

	if !ok || e.token == "" {
		return domainauth.Session{}, nil
	}

	sess := domainauth.Session{ID: id, Token: e.token, ExpiresAt: e.expiresAt}
	var profile domainauth.UserProfile
	if json.Unmarshal(e.profile, &profile) == nil {
		sess.User = profile
	}
	return sess, nil
}

func (s *SessionStore) Clear(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
