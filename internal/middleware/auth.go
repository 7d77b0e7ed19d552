package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-auth-api/internal/model"
	"go-auth-api/internal/token"
)

type tokenVerifier interface {
	Verify(tokenString string, expectedKind string) (*token.Claims, error)
}

type contextKey string

const (
	claimsContextKey       contextKey = "auth_claims"
	refreshTokenContextKey contextKey = "refresh_token"
)

const refreshTokenHeader = "refresh_token"

type AuthMiddleware struct {
	verifier tokenVerifier
}

func NewAuthMiddleware(verifier tokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth guards authenticated routes with a bearer access token.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeUnauthorized(w, "missing or invalid authorization header")
			return
		}

		claims, err := m.verifier.Verify(raw, token.KindAccess)
		if err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRefresh guards the refresh route. The refresh token arrives in its
// own header; its claims and the raw token are both placed in the context so
// the handler can run the store cross-check.
func (m *AuthMiddleware) RequireRefresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(refreshTokenHeader))
		if raw == "" {
			writeUnauthorized(w, "missing refresh token")
			return
		}

		claims, err := m.verifier.Verify(raw, token.KindRefresh)
		if err != nil {
			writeUnauthorized(w, "invalid or expired refresh token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		ctx = context.WithValue(ctx, refreshTokenContextKey, raw)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*token.Claims)
	return claims, ok
}

func RefreshTokenFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(refreshTokenContextKey).(string)
	return raw, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", false
	}
	return strings.TrimSpace(header[7:]), true
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "UNAUTHORIZED",
			Message: message,
		},
	})
}
