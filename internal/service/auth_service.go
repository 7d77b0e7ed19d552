package service

import (
	"context"
	"errors"

	"go-auth-api/internal/hasher"
	"go-auth-api/internal/model"
	"go-auth-api/internal/token"
)

// AuthService orchestrates the session lifecycle: credential check and token
// issuance at login, refresh-token rotation, and logout.
type AuthService struct {
	tokens *token.Service
	users  UserStore
	hasher hasher.PasswordHasher
}

func NewAuthService(tokens *token.Service, users UserStore, h hasher.PasswordHasher) *AuthService {
	return &AuthService{tokens: tokens, users: users, hasher: h}
}

// Login verifies the credentials and issues a fresh token pair. Unknown email
// and wrong password fail with the same error so the response does not reveal
// whether the account exists.
func (s *AuthService) Login(ctx context.Context, email string, password string) (model.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.TokenPair{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	return s.issuePair(ctx, user.Email)
}

// Refresh validates the presented refresh token against both its signature
// and the reference stored on the user record, then rotates the pair. A
// mismatch, including the no-reference state after logout, fails uniformly.
//
// Two concurrent refreshes with the same valid token can both pass the
// cross-check before either writes; the second writer wins and the first
// caller's new refresh token goes stale immediately. Accepted for the low
// per-session concurrency this sees.
func (s *AuthService) Refresh(ctx context.Context, email string, refreshToken string) (model.TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, token.KindRefresh)
	if err != nil || claims.Email != email {
		return model.TokenPair{}, model.ErrInvalidRefreshToken
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.TokenPair{}, model.ErrInvalidRefreshToken
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	if user.RefreshTokenRef == "" || user.RefreshTokenRef != token.Ref(refreshToken) {
		return model.TokenPair{}, model.ErrInvalidRefreshToken
	}

	return s.issuePair(ctx, user.Email)
}

// Logout clears the stored refresh-token reference when it matches the
// presented token, and is a no-op otherwise. Logging out twice is not an
// error.
func (s *AuthService) Logout(ctx context.Context, email string, refreshToken string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if user.RefreshTokenRef == "" || user.RefreshTokenRef != token.Ref(refreshToken) {
		return nil
	}

	return s.users.SetRefreshToken(ctx, email, "")
}

// DecryptToken recovers the identity from a bearer token without the full
// route guard. The signature is still checked but expiry is tolerated, so
// logout works with an access token that just lapsed.
func (s *AuthService) DecryptToken(accessToken string) (*token.Claims, error) {
	return s.tokens.Decode(accessToken)
}

func (s *AuthService) issuePair(ctx context.Context, email string) (model.TokenPair, error) {
	accessToken, err := s.tokens.IssueAccess(email)
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, err := s.tokens.IssueRefresh(email)
	if err != nil {
		return model.TokenPair{}, err
	}

	// Overwrites any prior reference, enforcing a single active session.
	if err := s.users.SetRefreshToken(ctx, email, token.Ref(refreshToken)); err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}
