package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
	apperrors "github.com/target/hr-dashboard/internal/errors"
	"github.com/target/hr-dashboard/internal/hrapi"
	"github.com/target/hr-dashboard/internal/mocks"
	"github.com/target/hr-dashboard/internal/testutil"
)

var fixedNow = time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*AuthService, *mocks.MockIdentityProvider, *mocks.MockSessionStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	identity := mocks.NewMockIdentityProvider(ctrl)
	sessions := mocks.NewMockSessionStore(ctrl)
	svc := NewAuthService(AuthServiceOptions{
		Identity:   identity,
		Sessions:   sessions,
		SessionTTL: time.Hour,
		Now:        testutil.FixedTimeFunc(fixedNow),
	})
	return svc, identity, sessions
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, identity, sessions := newTestService(t)
	ctx := context.Background()
	exp := fixedNow.Add(30 * time.Minute)
	profile := domainauth.UserProfile{Username: "bob", Role: domainauth.RoleEmployee, EmployeeID: testutil.IntPtr(4)}

	identity.EXPECT().Authenticate(ctx, "bob", "secret").Return(domainauth.Credentials{Token: "tok", ExpiresAt: exp}, nil)
	identity.EXPECT().Profile(ctx, "tok").Return(profile, nil)

	var saved domainauth.Session
	sessions.EXPECT().Save(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, s domainauth.Session) error {
		saved = s
		return nil
	})

	sess, err := svc.Login(ctx, "bob", "secret")
	require.NoError(t, err)
	assert.Equal(t, saved, sess)
	assert.Equal(t, "tok", sess.Token)
	assert.Equal(t, profile, sess.User)
	assert.Equal(t, exp, sess.ExpiresAt)
	_, parseErr := uuid.Parse(sess.ID)
	assert.NoError(t, parseErr)
}

func TestAuthService_Login_FallsBackToSessionTTL(t *testing.T) {
	svc, identity, sessions := newTestService(t)
	ctx := context.Background()

	identity.EXPECT().Authenticate(ctx, "a", "b").Return(domainauth.Credentials{Token: "opaque"}, nil)
	identity.EXPECT().Profile(ctx, "opaque").Return(domainauth.UserProfile{Username: "a", Role: domainauth.RoleAdmin}, nil)
	sessions.EXPECT().Save(ctx, gomock.Any()).Return(nil)

	sess, err := svc.Login(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(time.Hour), sess.ExpiresAt)
}

func TestAuthService_Login_MissingFields(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "bob", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAuthService_Login_InvalidCredentialsSavesNothing(t *testing.T) {
	svc, identity, _ := newTestService(t)
	ctx := context.Background()

	identity.EXPECT().Authenticate(ctx, "bob", "nope").Return(domainauth.Credentials{}, hrapi.ErrInvalidCredentials)

	_, err := svc.Login(ctx, "bob", "nope")
	require.ErrorIs(t, err, hrapi.ErrInvalidCredentials)
}

func TestAuthService_Login_ProfileFailureSavesNothing(t *testing.T) {
	svc, identity, _ := newTestService(t)
	ctx := context.Background()

	identity.EXPECT().Authenticate(ctx, "bob", "pw").Return(domainauth.Credentials{Token: "tok"}, nil)
	identity.EXPECT().Profile(ctx, "tok").Return(domainauth.UserProfile{}, &hrapi.APIError{StatusCode: 500})

	_, err := svc.Login(ctx, "bob", "pw")
	require.ErrorIs(t, err, hrapi.ErrRequestFailed)
}

func TestAuthService_Login_UnknownRole(t *testing.T) {
	svc, identity, _ := newTestService(t)
	ctx := context.Background()

	identity.EXPECT().Authenticate(ctx, "bob", "pw").Return(domainauth.Credentials{Token: "tok"}, nil)
	identity.EXPECT().Profile(ctx, "tok").Return(domainauth.UserProfile{Username: "bob"}, nil)

	_, err := svc.Login(ctx, "bob", "pw")
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestAuthService_Login_SaveError(t *testing.T) {
	svc, identity, sessions := newTestService(t)
	ctx := context.Background()

	identity.EXPECT().Authenticate(ctx, "bob", "pw").Return(domainauth.Credentials{Token: "tok"}, nil)
	identity.EXPECT().Profile(ctx, "tok").Return(domainauth.UserProfile{Username: "bob", Role: domainauth.RoleAdmin}, nil)
	sessions.EXPECT().Save(ctx, gomock.Any()).Return(errors.New("redis down"))

	_, err := svc.Login(ctx, "bob", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save session")
}

func TestAuthService_Revalidate(t *testing.T) {
	ctx := context.Background()
	stored := domainauth.Session{ID: "s1", Token: "tok", User: domainauth.UserProfile{Username: "bob", Role: domainauth.RoleAdmin}}

	t.Run("valid token keeps session", func(t *testing.T) {
		svc, identity, sessions := newTestService(t)
		sessions.EXPECT().Load(ctx, "s1").Return(stored, nil)
		identity.EXPECT().Profile(ctx, "tok").Return(stored.User, nil)

		sess, err := svc.Revalidate(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, stored, sess)
	})

	t.Run("changed profile is written back", func(t *testing.T) {
		svc, identity, sessions := newTestService(t)
		demoted := domainauth.UserProfile{Username: "bob", Role: domainauth.RoleEmployee, EmployeeID: testutil.IntPtr(8)}
		sessions.EXPECT().Load(ctx, "s1").Return(stored, nil)
		identity.EXPECT().Profile(ctx, "tok").Return(demoted, nil)

		want := stored
		want.User = demoted
		sessions.EXPECT().Save(ctx, want).Return(nil)

		sess, err := svc.Revalidate(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, want, sess)
	})

	t.Run("rejected token clears session", func(t *testing.T) {
		svc, identity, sessions := newTestService(t)
		sessions.EXPECT().Load(ctx, "s1").Return(stored, nil)
		identity.EXPECT().Profile(ctx, "tok").Return(domainauth.UserProfile{}, &hrapi.APIError{StatusCode: 401})
		sessions.EXPECT().Clear(ctx, "s1").Return(nil)

		sess, err := svc.Revalidate(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, sess.Empty())
	})

	t.Run("empty session skips backend", func(t *testing.T) {
		svc, _, sessions := newTestService(t)
		sessions.EXPECT().Load(ctx, "s2").Return(domainauth.Session{}, nil)

		sess, err := svc.Revalidate(ctx, "s2")
		require.NoError(t, err)
		assert.True(t, sess.Empty())
	})

	t.Run("store error", func(t *testing.T) {
		svc, _, sessions := newTestService(t)
		sessions.EXPECT().Load(ctx, "s3").Return(domainauth.Session{}, errors.New("redis down"))

		_, err := svc.Revalidate(ctx, "s3")
		require.Error(t, err)
	})
}

func TestAuthService_Logout(t *testing.T) {
	svc, _, sessions := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx, ""))

	sessions.EXPECT().Clear(ctx, "s1").Return(nil)
	require.NoError(t, svc.Logout(ctx, "s1"))

	sessions.EXPECT().Clear(ctx, "s2").Return(errors.New("boom"))
	require.Error(t, svc.Logout(ctx, "s2"))
}
