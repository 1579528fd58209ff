package auth

import (
	"context"

	"github.com/andynicholson/cricket/client"
	"github.com/andynicholson/cricket/db"
)

// CredentialStore defines the contract for any component that can persist the
// credential record. db.CredentialRepository satisfies it.
type CredentialStore interface {
	Get(ctx context.Context) (*db.Credentials, error)
	Save(ctx context.Context, creds *db.Credentials) error
	Clear(ctx context.Context) error
}

// Bridge is the slice of the capability surface the manager consumes.
type Bridge interface {
	ExchangeStravaCode(ctx context.Context, code string) (*client.TokenResponse, error)
	RefreshStravaToken(ctx context.Context, refreshToken string) (*client.TokenResponse, error)
	OnAuthCallback(fn func(code string)) func()
}

// WindowOpener opens the authorization popup for a login attempt. The
// correlation identifier tags the popup so the intercepted redirect can find
// its way back.
type WindowOpener interface {
	OpenAuthWindow(authorizeURL, correlation string) error
}
