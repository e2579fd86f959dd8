// Package auth provides optional request authentication for the item API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Method identifies how a request was authenticated.
type Method string

// Supported authentication methods.
const (
	MethodNone   Method = "none"
	MethodBasic  Method = "basic"
	MethodAPIKey Method = "apikey"
)

// Identity describes the authenticated caller.
type Identity struct {
	Method  Method
	Subject string
}

// Authenticator validates a request and returns the caller identity.
type Authenticator interface {
	Authenticate(r *http.Request) (*Identity, error)
	Method() Method
}

// Sentinel errors for authentication failures.
var (
	ErrUnauthenticated    = errors.New("unauthenticated: no credentials provided")
	ErrInvalidAPIKey      = errors.New("invalid API key")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownMode        = errors.New("unknown auth mode")
)

type contextKey struct{}

// FromContext returns the identity stored by the auth middleware.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// New builds the authenticator for mode. Mode "none" (or empty) returns nil,
// which disables authentication.
func New(mode, basicUsers, apiKeys string) (Authenticator, error) {
	switch Method(mode) {
	case MethodNone, "":
		return nil, nil
	case MethodBasic:
		a, err := NewBasicAuthenticator(basicUsers)
		if err != nil {
			return nil, err
		}
		return a, nil
	case MethodAPIKey:
		a, err := NewAPIKeyAuthenticator(apiKeys)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
}
