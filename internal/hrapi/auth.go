package hrapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
)

const (
	loginPath = "/auth/login"
	mePath    = "/auth/me"
)

// ErrInvalidCredentials is returned by Login when the backend rejects the
// username or password.
var ErrInvalidCredentials = errors.New("hrapi: invalid username or password")

// Credentials is the result of a successful login.
type Credentials struct {
	AccessToken string
	TokenType   string
	// Expiry comes from the token response or, failing that, the JWT exp claim.
	Expiry time.Time
}

// Login exchanges a username and password for a bearer token using the OAuth2
// password grant against POST /auth/login.
func (c *Client) Login(ctx context.Context, username, password string) (Credentials, error) {
	cfg := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.resolve(loginPath, nil),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	start := time.Now()
	tok, err := cfg.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			status := rerr.Response.StatusCode
			apiErr := &APIError{Method: http.MethodPost, Path: loginPath, StatusCode: status, RawBody: string(rerr.Body)}
			c.observe(http.MethodPost, loginPath, status, start, apiErr)
			if status == http.StatusBadRequest || apiErr.AuthRejected() {
				return Credentials{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, apiErr)
			}
			return Credentials{}, apiErr
		}
		err = fmt.Errorf("hrapi: login: %w", err)
		c.observe(http.MethodPost, loginPath, 0, start, err)
		return Credentials{}, err
	}
	c.observe(http.MethodPost, loginPath, http.StatusOK, start, nil)

	creds := Credentials{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		Expiry:      tok.Expiry,
	}
	if creds.Expiry.IsZero() {
		creds.Expiry = TokenExpiry(tok.AccessToken)
	}
	return creds, nil
}

// Me returns the profile of the user the client's token belongs to.
func (c *Client) Me(ctx context.Context) (domainauth.UserProfile, error) {
	var raw struct {
		Username   string `json:"username"`
		Role       string `json:"role"`
		EmployeeID *int   `json:"employee_id"`
	}
	if err := c.Get(ctx, mePath, nil, &raw); err != nil {
		return domainauth.UserProfile{}, err
	}
	role, _ := domainauth.ParseRole(raw.Role)
	return domainauth.UserProfile{
		Username:   raw.Username,
		Role:       role,
		EmployeeID: raw.EmployeeID,
	}, nil
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The backend owns verification; the dashboard only needs to know when to stop
// holding the token. Non-JWT tokens yield the zero time.
func TokenExpiry(token string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
