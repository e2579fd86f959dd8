package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/nnizic/unipu-ds/internal/auth"
)

// Auth returns a middleware that authenticates requests with authenticator.
// Probe endpoints and CORS preflight requests pass through unauthenticated.
func Auth(authenticator auth.Authenticator, logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if probePaths[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := authenticator.Authenticate(r)
			if err != nil {
				logger.Warn("authentication failed",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("request_id", RequestIDFromContext(r.Context())),
					zap.Error(err),
				)
				writeUnauthorized(w, authenticator.Method(), err)
				return
			}

			logger.Debug("authenticated",
				zap.String("subject", identity.Subject),
				zap.String("auth_method", string(identity.Method)),
			)

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

type unauthorizedResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeUnauthorized(w http.ResponseWriter, method auth.Method, err error) {
	switch method {
	case auth.MethodBasic:
		w.Header().Set("WWW-Authenticate", `Basic realm="items"`)
	case auth.MethodAPIKey:
		w.Header().Set("WWW-Authenticate", "API-Key")
	}

	message := "authentication required"
	if !errors.Is(err, auth.ErrUnauthenticated) {
		message = "invalid credentials"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(unauthorizedResponse{
		Code:    http.StatusUnauthorized,
		Message: message,
	})
}
