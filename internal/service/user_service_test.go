package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-auth-api/internal/hasher"
	"go-auth-api/internal/model"
	"go-auth-api/internal/repository"
)

// recordingMailer captures the reset link instead of sending it, letting the
// test recover the token the way a real recipient would.
type recordingMailer struct {
	sent chan string
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{sent: make(chan string, 1)}
}

func (m *recordingMailer) SendPasswordReset(ctx context.Context, to string, resetURL string) error {
	m.sent <- resetURL
	return nil
}

func (m *recordingMailer) waitForResetToken(t *testing.T) string {
	t.Helper()

	select {
	case resetURL := <-m.sent:
		parsed, err := url.Parse(resetURL)
		require.NoError(t, err)
		tok := parsed.Query().Get("token")
		require.NotEmpty(t, tok)
		return tok
	case <-time.After(5 * time.Second):
		t.Fatal("no reset mail was sent")
		return ""
	}
}

func newResetTestServices(t *testing.T) (*AuthService, *UserService, *recordingMailer) {
	t.Helper()

	tokens := newTestTokenService(t)
	users := repository.NewMemoryUserRepository()
	h := hasher.NewBcryptHasher(bcrypt.MinCost)
	mailer := newRecordingMailer()

	authService := NewAuthService(tokens, users, h)
	userService := NewUserService(users, h, tokens, mailer, "http://localhost/reset-password")
	return authService, userService, mailer
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	_, userService, _ := newTestServices(t)

	t.Run("stores the account with a hashed password", func(t *testing.T) {
		user, err := userService.Create(ctx, model.CreateUserRequest{
			Email:    "a@x.com",
			Password: "secret1",
			Name:     "Ada",
		})
		require.NoError(t, err)
		require.NotNil(t, user)
		require.NotEmpty(t, user.ID)
		require.Equal(t, "a@x.com", user.Email)
		require.Equal(t, "Ada", user.Name)
		require.NotEqual(t, "secret1", user.PasswordHash)
	})

	t.Run("duplicate email yields the conflict sentinel", func(t *testing.T) {
		user, err := userService.Create(ctx, model.CreateUserRequest{
			Email:    "a@x.com",
			Password: "other",
		})
		require.NoError(t, err)
		require.Nil(t, user)
	})
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, userService, _ := newTestServices(t)

	created := registerUser(t, userService, "a@x.com", "secret1")

	fetched, err := userService.GetAllUserData(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.Equal(t, created.Email, fetched.Email)
	require.Equal(t, created.Name, fetched.Name)
	require.NotEqual(t, "secret1", fetched.PasswordHash)

	// The presenter shape must not expose the hash or token references.
	resp := fetched.ToResponse()
	require.Equal(t, created.ID, resp.ID)
	require.Equal(t, created.Email, resp.Email)
}

func TestGetAllUserDataUnknownID(t *testing.T) {
	_, userService, _ := newTestServices(t)

	user, err := userService.GetAllUserData(context.Background(), "no-such-id")
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	_, userService, _ := newTestServices(t)
	registerUser(t, userService, "a@x.com", "secret1")

	t.Run("partial update touches only the provided fields", func(t *testing.T) {
		name := "Grace"
		updated, err := userService.Update(ctx, "a@x.com", model.UserUpdate{Name: &name})
		require.NoError(t, err)
		require.NotNil(t, updated)
		require.Equal(t, "Grace", updated.Name)
		require.Equal(t, "a@x.com", updated.Email)
	})

	t.Run("unknown user yields nil", func(t *testing.T) {
		name := "Nobody"
		updated, err := userService.Update(ctx, "nobody@x.com", model.UserUpdate{Name: &name})
		require.NoError(t, err)
		require.Nil(t, updated)
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	_, userService, _ := newTestServices(t)
	created := registerUser(t, userService, "a@x.com", "secret1")

	require.NoError(t, userService.Remove(ctx, created.ID))

	fetched, err := userService.GetAllUserData(ctx, created.ID)
	require.NoError(t, err)
	require.Nil(t, fetched)

	// Removing an already-absent user is not an error.
	require.NoError(t, userService.Remove(ctx, created.ID))
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	authService, userService, mailer := newResetTestServices(t)
	registerUser(t, userService, "a@x.com", "secret1")

	require.NoError(t, userService.RequestPasswordReset(ctx, "a@x.com"))
	resetToken := mailer.waitForResetToken(t)

	changed, err := userService.ChangePassword(ctx, resetToken, "newsecret")
	require.NoError(t, err)
	require.True(t, changed)

	// Old password out, new password in.
	_, err = authService.Login(ctx, "a@x.com", "secret1")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
	_, err = authService.Login(ctx, "a@x.com", "newsecret")
	require.NoError(t, err)
}

func TestPasswordResetTokenIsSingleUse(t *testing.T) {
	ctx := context.Background()
	_, userService, mailer := newResetTestServices(t)
	registerUser(t, userService, "a@x.com", "secret1")

	require.NoError(t, userService.RequestPasswordReset(ctx, "a@x.com"))
	resetToken := mailer.waitForResetToken(t)

	changed, err := userService.ChangePassword(ctx, resetToken, "newsecret")
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = userService.ChangePassword(ctx, resetToken, "another")
	require.NoError(t, err)
	require.False(t, changed)
}

func TestPasswordResetRevokesSession(t *testing.T) {
	ctx := context.Background()
	authService, userService, mailer := newResetTestServices(t)
	registerUser(t, userService, "a@x.com", "secret1")

	pair, err := authService.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, userService.RequestPasswordReset(ctx, "a@x.com"))
	resetToken := mailer.waitForResetToken(t)

	changed, err := userService.ChangePassword(ctx, resetToken, "newsecret")
	require.NoError(t, err)
	require.True(t, changed)

	_, err = authService.Refresh(ctx, "a@x.com", pair.RefreshToken)
	require.ErrorIs(t, err, model.ErrInvalidRefreshToken)
}

func TestChangePasswordRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	authService, userService, _ := newResetTestServices(t)
	registerUser(t, userService, "a@x.com", "secret1")

	t.Run("garbage token", func(t *testing.T) {
		changed, err := userService.ChangePassword(ctx, "garbage", "newsecret")
		require.NoError(t, err)
		require.False(t, changed)
	})

	t.Run("wrong-kind token", func(t *testing.T) {
		pair, err := authService.Login(ctx, "a@x.com", "secret1")
		require.NoError(t, err)

		changed, err := userService.ChangePassword(ctx, pair.AccessToken, "newsecret")
		require.NoError(t, err)
		require.False(t, changed)
	})

	t.Run("no reset was requested", func(t *testing.T) {
		tokens := newTestTokenService(t)
		resetToken, err := tokens.IssueReset("a@x.com")
		require.NoError(t, err)

		changed, err := userService.ChangePassword(ctx, resetToken, "newsecret")
		require.NoError(t, err)
		require.False(t, changed)
	})
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	_, userService, _ := newResetTestServices(t)

	// Indistinguishable from the known-email path for the caller.
	require.NoError(t, userService.RequestPasswordReset(context.Background(), "nobody@x.com"))
}
