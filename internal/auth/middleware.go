package auth

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// registerClaims are the JWT claims the register issues to API callers.
type registerClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Middleware resolves the caller identity from a bearer token. Requests
// without a token proceed unauthenticated: capability checks downstream treat
// an unknown actor as holding no capability, so resolution here never blocks
// read paths. A present-but-invalid token is rejected.
func Middleware(secret []byte, issuer string, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw := strings.TrimPrefix(header, "Bearer ")
			if raw == header {
				http.Error(w, "malformed authorization header", http.StatusUnauthorized)
				return
			}

			claims := &registerClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			}, jwt.WithIssuer(issuer), jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				logger.Warn("rejected bearer token", zap.Error(err))
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			identity := Identity{Subject: claims.Subject, Name: claims.Name}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}
