package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const userKey contextKey = "user"

// UserID returns the authenticated user identity stored in the request
// context, or "" when the request was not authenticated.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(userKey).(string)
	return id
}

// SignToken issues an HMAC-signed bearer token for userID. Session and
// password handling live elsewhere; taskwire only consumes tokens, and
// this helper exists for the CLI and tests.
func SignToken(secret, userID string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// verifyToken parses a bearer token and returns the user identity from
// its subject claim.
func verifyToken(secret, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}

// authMiddleware resolves the user identity from the Authorization
// header. Requests without a valid bearer token fail with 401.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			s.writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userID, err := verifyToken(s.cfg.JWTSecret, tokenString)
		if err != nil {
			s.writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
