// Package postgres provides a Postgres-backed session store for deployments
// that already run a database and no Redis.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
)

// ErrSchemaMissing is returned when the sessions table has not been created.
// Run `hrdash-admin migrate` or enable migrations on start.
var ErrSchemaMissing = errors.New("postgres session store: dashboard_sessions table missing")

// SessionStore persists sessions in the dashboard_sessions table.
type SessionStore struct {
	db         *sql.DB
	defaultTTL time.Duration
}

// NewSessionStore creates a Postgres session store.
func NewSessionStore(db *sql.DB, defaultTTL time.Duration) *SessionStore {
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	return &SessionStore{db: db, defaultTTL: defaultTTL}
}

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	if sess.Token == "" {
		return errors.New("session token cannot be empty")
	}
	profile, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	expiresAt := sess.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(s.defaultTTL)
	}
	if !expiresAt.After(time.Now()) {
		return errors.New("session is expired")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dashboard_sessions (id, token, profile, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET token = EXCLUDED.token, profile = EXCLUDED.profile, expires_at = EXCLUDED.expires_at`,
		sess.ID, sess.Token, string(profile), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", classify(err))
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, nil
	}

	var (
		token     string
		profile   []byte
		expiresAt time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT token, profile::text, expires_at
		FROM dashboard_sessions
		WHERE id = $1 AND expires_at > now()`, id,
	).Scan(&token, &profile, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domainauth.Session{}, nil
	}
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("load session: %w", classify(err))
	}
	if token == "" {
		return domainauth.Session{}, nil
	}

	sess := domainauth.Session{ID: id, Token: token, ExpiresAt: expiresAt}
	var p domainauth.UserProfile
	if json.Unmarshal(profile, &p) == nil {
		sess.User = p
	}
	return sess, nil
}

func (s *SessionStore) Clear(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM dashboard_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("clear session: %w", classify(err))
	}
	return nil
}

// PurgeExpired deletes lapsed sessions and reports how many were removed.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dashboard_sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions rows affected: %w", err)
	}
	return n, nil
}

// Count reports live and lapsed-but-unpurged sessions.
func (s *SessionStore) Count(ctx context.Context) (active, expired int64, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT count(*) FILTER (WHERE expires_at > now()),
		       count(*) FILTER (WHERE expires_at <= now())
		FROM dashboard_sessions`).Scan(&active, &expired)
	if err != nil {
		return 0, 0, fmt.Errorf("count sessions: %w", classify(err))
	}
	return active, expired, nil
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return fmt.Errorf("%w: %w", ErrSchemaMissing, err)
	}
	return err
}
