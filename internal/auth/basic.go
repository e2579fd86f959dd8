package auth

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BasicAuthenticator checks HTTP Basic credentials against bcrypt hashes.
type BasicAuthenticator struct {
	hashes map[string][]byte
}

// NewBasicAuthenticator parses "user:bcrypthash,user2:bcrypthash".
func NewBasicAuthenticator(users string) (*BasicAuthenticator, error) {
	entries, err := parsePairs(users)
	if err != nil {
		return nil, fmt.Errorf("basic auth: %w", err)
	}

	hashes := make(map[string][]byte, len(entries))
	for user, hash := range entries {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("basic auth: user %s: %w", user, err)
		}
		hashes[user] = []byte(hash)
	}

	return &BasicAuthenticator{hashes: hashes}, nil
}

// Authenticate verifies the request's Basic credentials.
func (a *BasicAuthenticator) Authenticate(r *http.Request) (*Identity, error) {
	user, password, ok := r.BasicAuth()
	if !ok {
		return nil, ErrUnauthenticated
	}

	hash, exists := a.hashes[user]
	if !exists {
		return nil, fmt.Errorf("%w: unknown user", ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: wrong password", ErrInvalidCredentials)
	}

	return &Identity{Method: MethodBasic, Subject: user}, nil
}

// Method returns MethodBasic.
func (a *BasicAuthenticator) Method() Method {
	return MethodBasic
}

// parsePairs splits "a:b,c:d" on the first colon of each entry.
func parsePairs(raw string) (map[string]string, error) {
	pairs := make(map[string]string)

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		left, right, found := strings.Cut(entry, ":")
		left, right = strings.TrimSpace(left), strings.TrimSpace(right)
		if !found || left == "" || right == "" {
			return nil, fmt.Errorf("invalid entry %q, expected left:right", entry)
		}

		pairs[left] = right
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("no entries configured")
	}

	return pairs, nil
}
