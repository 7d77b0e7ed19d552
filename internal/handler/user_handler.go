package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go-auth-api/internal/middleware"
	"go-auth-api/internal/model"
	"go-auth-api/internal/service"
	"go-auth-api/pkg/apierror"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		writeError(w, apierror.New("BAD_REQUEST", "email and password are required", "", http.StatusBadRequest))
		return
	}

	user, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, model.ErrDuplicateEmail)
		return
	}

	writeSuccess(w, http.StatusCreated, user.ToResponse())
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	user, err := h.service.GetByEmail(r.Context(), claims.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, model.ErrUserNotFound)
		return
	}

	full, err := h.service.GetAllUserData(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if full == nil {
		writeError(w, model.ErrUserNotFound)
		return
	}

	writeSuccess(w, http.StatusOK, full.ToResponse())
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	var payload model.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	user, err := h.service.Update(r.Context(), claims.Email, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, model.ErrUserNotFound)
		return
	}

	writeSuccess(w, http.StatusOK, user.ToResponse())
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	user, err := h.service.GetByEmail(r.Context(), claims.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	if user != nil {
		if err := h.service.Remove(r.Context(), user.ID); err != nil {
			writeError(w, err)
			return
		}
	}

	writeSuccess(w, http.StatusOK, map[string]any{"message": "User deleted successfully"})
}

// ForgotPassword always answers 202 with the same message regardless of
// whether the address is known.
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Email) == "" {
		writeError(w, apierror.New("BAD_REQUEST", "email is required", "", http.StatusBadRequest))
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), payload.Email); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusAccepted, map[string]any{
		"message": "If the address exists, a reset link has been sent.",
	})
}

// ResetPassword consumes the single-use token carried in the query string.
// The failure response is uniform: the client learns the token is invalid,
// not why.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	resetToken := strings.TrimSpace(r.URL.Query().Get("token"))
	if resetToken == "" {
		writeError(w, apierror.New("BAD_REQUEST", "token is required", "token", http.StatusBadRequest))
		return
	}

	var payload model.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	// Confirmation mismatch fails before any storage is touched.
	if payload.Password == "" || payload.Password != payload.PasswordConfirmation {
		writeError(w, model.ErrPasswordMismatch)
		return
	}

	changed, err := h.service.ChangePassword(r.Context(), resetToken, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	if !changed {
		writeError(w, apierror.New("BAD_REQUEST", "Token is invalid.", "", http.StatusBadRequest))
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"message": "Password changed successfully."})
}
