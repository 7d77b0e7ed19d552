package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"go-auth-api/internal/middleware"
	"go-auth-api/internal/model"
	"go-auth-api/internal/service"
	"go-auth-api/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	tokens, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens)
}

// Refresh runs behind the refresh-token guard, which has already verified the
// token's signature and expiry; the service adds the store cross-check and
// rotates the pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	raw, rawOK := middleware.RefreshTokenFromContext(r.Context())
	if !ok || !rawOK {
		writeError(w, model.ErrInvalidRefreshToken)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), claims.Email, raw)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens)
}

// Logout intentionally bypasses the standard guard: the bearer token only
// needs a valid signature, not a live expiry, so a client can still end its
// session with a token that just lapsed. The response is best-effort and
// always empty.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	raw, ok := bearerToken(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	claims, err := h.service.DecryptToken(raw)
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	refreshToken := strings.TrimSpace(r.Header.Get("refresh_token"))
	if err := h.service.Logout(r.Context(), claims.Email, refreshToken); err != nil {
		slog.Warn("logout failed", "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", false
	}
	return strings.TrimSpace(header[7:]), true
}
