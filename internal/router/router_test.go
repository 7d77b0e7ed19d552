package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-auth-api/internal/config"
	"go-auth-api/internal/handler"
	"go-auth-api/internal/hasher"
	"go-auth-api/internal/mail"
	"go-auth-api/internal/middleware"
	"go-auth-api/internal/repository"
	"go-auth-api/internal/service"
	"go-auth-api/internal/token"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		ServerPort:       "8080",
		RequestTimeout:   30 * time.Second,
		JWTSecret:        "test-secret",
		JWTIssuer:        "test",
		JWTAccessTTL:     15 * time.Minute,
		JWTRefreshTTL:    24 * time.Hour,
		ResetTokenTTL:    30 * time.Minute,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
	}

	tokens, err := token.NewService(token.Config{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.JWTAccessTTL,
		RefreshTTL: cfg.JWTRefreshTTL,
		ResetTTL:   cfg.ResetTokenTTL,
	})
	require.NoError(t, err)

	users := repository.NewMemoryUserRepository()
	h := hasher.NewBcryptHasher(bcrypt.MinCost)

	authService := service.NewAuthService(tokens, users, h)
	userService := service.NewUserService(users, h, tokens, mail.NewLogMailer(), "http://localhost/reset-password")

	authMiddleware := middleware.NewAuthMiddleware(tokens)
	handlers := Handlers{
		Auth: handler.NewAuthHandler(authService),
		User: handler.NewUserHandler(userService),
	}

	health := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}

	server := httptest.NewServer(New(cfg, authMiddleware, handlers, health))
	t.Cleanup(server.Close)
	return server
}

type apiResponse struct {
	Success bool `json:"success"`
	Data    struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ID           string `json:"id"`
		Email        string `json:"email"`
		Name         string `json:"name"`
		Message      string `json:"message"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, method string, url string, payload any, headers map[string]string) (*http.Response, apiResponse) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var parsed apiResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}

	return resp, parsed
}

func registerAndLogin(t *testing.T, baseURL string, email string, password string) (string, string) {
	t.Helper()

	resp, _ := doJSON(t, http.MethodPost, baseURL+"/user", map[string]string{
		"email": email, "password": password, "name": "Test User",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, parsed := doJSON(t, http.MethodPost, baseURL+"/login", map[string]string{
		"email": email, "password": password,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, parsed.Data.AccessToken)
	require.NotEmpty(t, parsed.Data.RefreshToken)

	return parsed.Data.AccessToken, parsed.Data.RefreshToken
}

func TestRegisterConflict(t *testing.T) {
	server := newTestServer(t)

	payload := map[string]string{"email": "a@x.com", "password": "secret1"}

	resp, parsed := doJSON(t, http.MethodPost, server.URL+"/user", payload, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "a@x.com", parsed.Data.Email)

	resp, parsed = doJSON(t, http.MethodPost, server.URL+"/user", payload, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "ALREADY_EXISTS", parsed.Error.Code)
}

func TestRegisterNeverLeaksPasswordHash(t *testing.T) {
	server := newTestServer(t)

	raw, err := json.Marshal(map[string]string{"email": "a@x.com", "password": "secret1"})
	require.NoError(t, err)
	resp, err := http.Post(server.URL+"/user", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NotContains(t, string(body), "password")
	require.NotContains(t, string(body), "secret1")
}

func TestLoginFailuresAreUniform(t *testing.T) {
	server := newTestServer(t)
	registerAndLogin(t, server.URL, "a@x.com", "secret1")

	respWrong, parsedWrong := doJSON(t, http.MethodPost, server.URL+"/login", map[string]string{
		"email": "a@x.com", "password": "wrong",
	}, nil)
	respUnknown, parsedUnknown := doJSON(t, http.MethodPost, server.URL+"/login", map[string]string{
		"email": "nobody@x.com", "password": "secret1",
	}, nil)

	require.Equal(t, http.StatusUnauthorized, respWrong.StatusCode)
	require.Equal(t, http.StatusUnauthorized, respUnknown.StatusCode)
	require.Equal(t, parsedWrong.Error.Code, parsedUnknown.Error.Code)
	require.Equal(t, parsedWrong.Error.Message, parsedUnknown.Error.Message)
}

func TestRefreshRotationOverHTTP(t *testing.T) {
	server := newTestServer(t)
	_, refresh1 := registerAndLogin(t, server.URL, "a@x.com", "secret1")

	resp, parsed := doJSON(t, http.MethodGet, server.URL+"/refresh", nil, map[string]string{
		"refresh_token": refresh1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refresh2 := parsed.Data.RefreshToken
	require.NotEmpty(t, refresh2)
	require.NotEqual(t, refresh1, refresh2)

	// The rotated-out token is dead.
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/refresh", nil, map[string]string{
		"refresh_token": refresh1,
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/refresh", nil, map[string]string{
		"refresh_token": refresh2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefreshRequiresToken(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/refresh", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/refresh", nil, map[string]string{
		"refresh_token": "garbage",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutOverHTTP(t *testing.T) {
	server := newTestServer(t)
	access, refresh := registerAndLogin(t, server.URL, "a@x.com", "secret1")

	headers := map[string]string{
		"Authorization": "Bearer " + access,
		"refresh_token": refresh,
	}

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/logout", nil, headers)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// The refresh token is revoked.
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/refresh", nil, map[string]string{
		"refresh_token": refresh,
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Logging out again is still a 2xx no-op.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/logout", nil, headers)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestProfileCRUD(t *testing.T) {
	server := newTestServer(t)
	access, _ := registerAndLogin(t, server.URL, "a@x.com", "secret1")
	auth := map[string]string{"Authorization": "Bearer " + access}

	t.Run("requires authentication", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, server.URL+"/profile", nil, nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("get", func(t *testing.T) {
		resp, parsed := doJSON(t, http.MethodGet, server.URL+"/profile", nil, auth)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "a@x.com", parsed.Data.Email)
		require.Equal(t, "Test User", parsed.Data.Name)
	})

	t.Run("patch", func(t *testing.T) {
		resp, parsed := doJSON(t, http.MethodPatch, server.URL+"/profile", map[string]string{
			"name": "Grace",
		}, auth)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "Grace", parsed.Data.Name)
		require.Equal(t, "a@x.com", parsed.Data.Email)
	})

	t.Run("delete then 404", func(t *testing.T) {
		resp, parsed := doJSON(t, http.MethodDelete, server.URL+"/profile", nil, auth)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "User deleted successfully", parsed.Data.Message)

		resp, _ = doJSON(t, http.MethodGet, server.URL+"/profile", nil, auth)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestResetPasswordValidation(t *testing.T) {
	server := newTestServer(t)
	registerAndLogin(t, server.URL, "a@x.com", "secret1")

	t.Run("confirmation mismatch", func(t *testing.T) {
		resp, parsed := doJSON(t, http.MethodPatch, server.URL+"/reset-password?token=whatever", map[string]string{
			"password":             "new1",
			"passwordConfirmation": "new2",
		}, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "BAD_REQUEST", parsed.Error.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		resp, parsed := doJSON(t, http.MethodPatch, server.URL+"/reset-password?token=garbage", map[string]string{
			"password":             "new1",
			"passwordConfirmation": "new1",
		}, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "Token is invalid.", parsed.Error.Message)
	})

	t.Run("missing token", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPatch, server.URL+"/reset-password", map[string]string{
			"password":             "new1",
			"passwordConfirmation": "new1",
		}, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestForgotPasswordIsNonCommittal(t *testing.T) {
	server := newTestServer(t)
	registerAndLogin(t, server.URL, "a@x.com", "secret1")

	respKnown, parsedKnown := doJSON(t, http.MethodPost, server.URL+"/forgot-password", map[string]string{
		"email": "a@x.com",
	}, nil)
	respUnknown, parsedUnknown := doJSON(t, http.MethodPost, server.URL+"/forgot-password", map[string]string{
		"email": "nobody@x.com",
	}, nil)

	require.Equal(t, http.StatusAccepted, respKnown.StatusCode)
	require.Equal(t, http.StatusAccepted, respUnknown.StatusCode)
	require.Equal(t, parsedKnown.Data.Message, parsedUnknown.Data.Message)
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
