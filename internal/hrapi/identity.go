package hrapi

import (
	"context"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
	"github.com/target/hr-dashboard/internal/ports"
)

// Identity adapts a Client to ports.IdentityProvider.
type Identity struct {
	Client *Client
}

var _ ports.IdentityProvider = Identity{}

// Authenticate logs in with the password grant.
func (i Identity) Authenticate(ctx context.Context, username, password string) (domainauth.Credentials, error) {
	creds, err := i.Client.Login(ctx, username, password)
	if err != nil {
		return domainauth.Credentials{}, err
	}
	return domainauth.Credentials{Token: creds.AccessToken, ExpiresAt: creds.Expiry}, nil
}

// Profile calls GET /auth/me with token.
func (i Identity) Profile(ctx context.Context, token string) (domainauth.UserProfile, error) {
	return i.Client.WithToken(StaticToken(token)).Me(ctx)
}
