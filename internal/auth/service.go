// Package auth provides the external auth collaborator implementations and
// the HTTP handlers for the sign-in flows.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pilotdeck/pilotdeck/internal/apiclient"
	"github.com/pilotdeck/pilotdeck/internal/session"
	"github.com/pilotdeck/pilotdeck/internal/shared"
)

// Registrar is the optional account-creation collaborator.
type Registrar interface {
	Register(ctx context.Context, name string, creds session.Credentials) (*session.User, string, error)
}

type loginResponse struct {
	User  session.User `json:"user"`
	Token string       `json:"token"`
}

// APIAuthenticator authenticates against the external auth backend.
type APIAuthenticator struct {
	client *apiclient.Client
}

// NewAPIAuthenticator constructs the backend-backed collaborator.
func NewAPIAuthenticator(client *apiclient.Client) *APIAuthenticator {
	return &APIAuthenticator{client: client}
}

// Login exchanges credentials for a user and token.
func (a *APIAuthenticator) Login(ctx context.Context, creds session.Credentials) (*session.User, string, error) {
	body := map[string]string{"email": creds.Email, "password": creds.Password}
	var resp loginResponse
	if err := a.client.Post(ctx, "/auth/login", body, &resp); err != nil {
		var apiErr *apiclient.APIError
		if errors.Is(err, shared.ErrUnauthorized) ||
			(errors.As(err, &apiErr) && apiErr.Status < 500) {
			return nil, "", shared.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("auth: login: %w", err)
	}
	return &resp.User, resp.Token, nil
}

// Logout notifies the backend. Callers treat failures as best effort.
func (a *APIAuthenticator) Logout(ctx context.Context) error {
	return a.client.Post(ctx, "/auth/logout", nil, nil)
}

// StubAuthenticator is the development collaborator: any email except the
// always-rejected one signs in with the configured password.
type StubAuthenticator struct {
	passwordHash []byte
	signingKey   []byte
	tokenTTL     time.Duration
}

// RejectedEmail always fails login, for exercising the error path by hand.
const RejectedEmail = "error@example.com"

// NewStubAuthenticator builds the stub. The password is stored hashed.
func NewStubAuthenticator(password, signingKey string, tokenTTL time.Duration) (*StubAuthenticator, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash stub password: %w", err)
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &StubAuthenticator{
		passwordHash: hash,
		signingKey:   []byte(signingKey),
		tokenTTL:     tokenTTL,
	}, nil
}

// Login validates credentials against the stub account.
func (a *StubAuthenticator) Login(ctx context.Context, creds session.Credentials) (*session.User, string, error) {
	if creds.Email == RejectedEmail {
		return nil, "", shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(creds.Password)); err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}
	user := &session.User{
		ID:        "1",
		Email:     creds.Email,
		Name:      "Admin User",
		Role:      session.RoleAdmin,
		Status:    session.StatusActive,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	token, err := a.mintToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout is a no-op for the stub.
func (a *StubAuthenticator) Logout(ctx context.Context) error {
	return nil
}

// Register creates a throwaway account with the user role.
func (a *StubAuthenticator) Register(ctx context.Context, name string, creds session.Credentials) (*session.User, string, error) {
	user := &session.User{
		ID:        uuid.NewString(),
		Email:     creds.Email,
		Name:      name,
		Role:      session.RoleUser,
		Status:    session.StatusActive,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	token, err := a.mintToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (a *StubAuthenticator) mintToken(user *session.User) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.signingKey)
	if err != nil {
		return "", fmt.Errorf("auth: mint token: %w", err)
	}
	return token, nil
}

var (
	_ session.Authenticator = (*APIAuthenticator)(nil)
	_ session.Authenticator = (*StubAuthenticator)(nil)
	_ Registrar             = (*StubAuthenticator)(nil)
)
