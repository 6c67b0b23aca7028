package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/codr1/yogadesk/internal/api/authz"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Authenticator checks operator credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*authz.Operator, error)
}

// ConfigAuthenticator accepts the single operator account from configuration.
type ConfigAuthenticator struct {
	Username     string
	PasswordHash string
}

// dummyHash keeps the bcrypt cost constant when the username does not match.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOa8Q5Q3tY5FJmJjB9bG3Ff2V0C7mYJ3W"

func (a ConfigAuthenticator) Authenticate(ctx context.Context, username, password string) (*authz.Operator, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || a.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	userMatch := subtle.ConstantTimeCompare([]byte(strings.ToLower(username)), []byte(strings.ToLower(a.Username))) == 1
	hash := a.PasswordHash
	if !userMatch {
		hash = dummyHash
	}
	if !VerifyPassword(hash, password) || !userMatch {
		return nil, ErrInvalidCredentials
	}
	return &authz.Operator{Username: a.Username}, nil
}
