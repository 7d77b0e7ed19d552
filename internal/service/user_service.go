package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-auth-api/internal/hasher"
	"go-auth-api/internal/mail"
	"go-auth-api/internal/model"
	"go-auth-api/internal/token"
)

// UserService orchestrates the account lifecycle: registration, profile
// reads and updates, deletion, and the password-reset flow.
//
// Several operations deliberately return (nil, nil) or false instead of a
// descriptive error. The boundary translates those sentinels into uniform
// responses that do not leak whether an account exists or why a reset token
// was rejected.
type UserService struct {
	users        UserStore
	hasher       hasher.PasswordHasher
	tokens       *token.Service
	mailer       mail.Mailer
	resetURLBase string
}

func NewUserService(users UserStore, h hasher.PasswordHasher, tokens *token.Service, mailer mail.Mailer, resetURLBase string) *UserService {
	return &UserService{
		users:        users,
		hasher:       h,
		tokens:       tokens,
		mailer:       mailer,
		resetURLBase: resetURLBase,
	}
}

// Create registers a new account. A duplicate email returns (nil, nil) so the
// handler can answer with a plain conflict.
func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        strings.TrimSpace(req.Email),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.users.Create(ctx, user)
	if errors.Is(err, model.ErrDuplicateEmail) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *UserService) GetAllUserData(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update applies a partial profile update, returning nil when no such user
// exists.
func (s *UserService) Update(ctx context.Context, email string, upd model.UserUpdate) (*model.User, error) {
	user, err := s.users.Update(ctx, email, upd)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Remove hard-deletes the account. Deleting an already-absent user is not an
// error.
func (s *UserService) Remove(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}

// RequestPasswordReset issues a single-use reset token for the address and
// mails the reset link. An unknown email is treated exactly like a known one
// so the endpoint cannot be used to probe for accounts; the mail is sent
// asynchronously for the same reason.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	resetToken, err := s.tokens.IssueReset(user.Email)
	if err != nil {
		return err
	}

	exp := time.Now().UTC().Add(s.tokens.ResetTTL())
	if err := s.users.SetResetToken(ctx, user.Email, token.Ref(resetToken), &exp); err != nil {
		return err
	}

	resetURL := s.resetURLBase + "?token=" + url.QueryEscape(resetToken)
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.mailer.SendPasswordReset(sendCtx, user.Email, resetURL); err != nil {
			slog.Warn("password reset mail failed", "error", err)
		}
	}()

	return nil
}

// ChangePassword consumes a reset token and replaces the password. Any
// failure mode, expired or forged token, unknown subject, stale or already
// used reference, reports false without distinguishing why. The error return
// is reserved for store failures.
func (s *UserService) ChangePassword(ctx context.Context, resetToken string, newPassword string) (bool, error) {
	email, err := s.tokens.VerifyReset(resetToken)
	if err != nil {
		return false, nil
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if user.ResetTokenRef == "" || user.ResetTokenRef != token.Ref(resetToken) {
		return false, nil
	}
	if user.ResetTokenExp == nil || time.Now().UTC().After(*user.ResetTokenExp) {
		return false, nil
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return false, err
	}

	// Clears the reset reference (single use) and the live refresh token
	// (a password change ends the active session) in one statement.
	if err := s.users.UpdatePassword(ctx, user.Email, hash); err != nil {
		return false, err
	}

	return true, nil
}
