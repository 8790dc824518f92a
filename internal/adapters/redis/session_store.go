// Package redis provides Redis-based adapters for the dashboard.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
)

// DefaultSessionPrefix namespaces session keys.
const DefaultSessionPrefix = "hrdash:session:"

// SessionStore keeps each session as two keys, one holding the bearer token and
// one holding the JSON profile. Keys share a hash tag so cluster deployments
// place them in the same slot.
type SessionStore struct {
	client     redis.UniversalClient
	prefix     string
	defaultTTL time.Duration
}

// NewSessionStore creates a Redis session store. defaultTTL applies when a
// session carries no expiry of its own.
func NewSessionStore(client redis.UniversalClient, defaultTTL time.Duration) *SessionStore {
	return NewSessionStoreWithPrefix(client, DefaultSessionPrefix, defaultTTL)
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string, defaultTTL time.Duration) *SessionStore {
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	return &SessionStore{
		client:     client,
		prefix:     prefix,
		defaultTTL: defaultTTL,
	}
}

// TokenKey returns the key holding the bearer token for id.
func (s *SessionStore) TokenKey(id string) string { return s.prefix + "{" + id + "}:token" }

// UserKey returns the key holding the serialized profile for id.
func (s *SessionStore) UserKey(id string) string { return s.prefix + "{" + id + "}:user" }

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
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

	ttl := s.defaultTTL
	if !sess.ExpiresAt.IsZero() {
		ttl = time.Until(sess.ExpiresAt)
		if ttl <= 0 {
			return errors.New("session is expired")
		}
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.TokenKey(sess.ID), sess.Token, ttl)
		p.Set(ctx, s.UserKey(sess.ID), data, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, nil
	}

	var (
		tokenCmd *redis.StringCmd
		userCmd  *redis.StringCmd
		ttlCmd   *redis.DurationCmd
	)
	_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		tokenCmd = p.Get(ctx, s.TokenKey(id))
		userCmd = p.Get(ctx, s.UserKey(id))
		ttlCmd = p.PTTL(ctx, s.TokenKey(id))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return domainauth.Session{}, fmt.Errorf("redis load session: %w", err)
	}

	token, err := tokenCmd.Result()
	if errors.Is(err, redis.Nil) || token == "" {
		return domainauth.Session{}, nil
	}
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("redis get token: %w", err)
	}

	sess := domainauth.Session{ID: id, Token: token}
	if raw, uerr := userCmd.Result(); uerr == nil {
		var profile domainauth.UserProfile
		if json.Unmarshal([]byte(raw), &profile) == nil {
			sess.User = profile
		}
	}
	if ttl, terr := ttlCmd.Result(); terr == nil && ttl > 0 {
		sess.ExpiresAt = time.Now().Add(ttl)
	}
	return sess, nil
}

func (s *SessionStore) Clear(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.TokenKey(id), s.UserKey(id)).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}

// Count reports how many sessions are live. Redis expires keys on its own so
// every token key found is active.
func (s *SessionStore) Count(ctx context.Context) (int64, error) {
	var (
		cursor uint64
		total  int64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*:token", 500).Result()
		if err != nil {
			return 0, fmt.Errorf("scan sessions: %w", err)
		}
		total += int64(len(keys))
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}
