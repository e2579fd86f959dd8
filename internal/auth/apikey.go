package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
)

// APIKeyHeader carries the API key.
const APIKeyHeader = "X-API-Key"

// APIKeyAuthenticator accepts requests bearing one of the configured keys.
type APIKeyAuthenticator struct {
	keys map[string]string // key -> client name
}

// NewAPIKeyAuthenticator parses "key:name,key2:name2".
func NewAPIKeyAuthenticator(keys string) (*APIKeyAuthenticator, error) {
	pairs, err := parsePairs(keys)
	if err != nil {
		return nil, fmt.Errorf("apikey auth: %w", err)
	}
	return &APIKeyAuthenticator{keys: pairs}, nil
}

// Authenticate compares the X-API-Key header in constant time against every key.
func (a *APIKeyAuthenticator) Authenticate(r *http.Request) (*Identity, error) {
	presented := r.Header.Get(APIKeyHeader)
	if presented == "" {
		return nil, ErrUnauthenticated
	}

	for key, name := range a.keys {
		if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) == 1 {
			return &Identity{Method: MethodAPIKey, Subject: name}, nil
		}
	}

	return nil, ErrInvalidAPIKey
}

// Method returns MethodAPIKey.
func (a *APIKeyAuthenticator) Method() Method {
	return MethodAPIKey
}
