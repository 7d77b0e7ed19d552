package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-auth-api/internal/model"
)

const uniqueViolationCode = "23505"

const userColumns = `id, email, name, password_hash, refresh_token_ref,
	 reset_token_ref, reset_token_exp, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.RefreshTokenRef,
		&u.ResetTokenRef, &u.ResetTokenExp, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email)))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return model.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update applies a partial profile update; nil fields keep their current
// value via COALESCE.
func (r *UserRepository) Update(ctx context.Context, email string, upd model.UserUpdate) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`UPDATE users
		 SET name = COALESCE($2, name),
		     email = COALESCE($3, email),
		     updated_at = $4
		 WHERE lower(email) = lower($1)
		 RETURNING `+userColumns,
		strings.TrimSpace(email), upd.Name, upd.Email, time.Now().UTC()))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return model.User{}, model.ErrDuplicateEmail
	}
	if err != nil {
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// SetRefreshToken stores the reference of the single live refresh token, or
// clears it when ref is empty. Overwriting invalidates any previously issued
// refresh token for that user.
func (r *UserRepository) SetRefreshToken(ctx context.Context, email string, ref string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token_ref = $2, updated_at = $3 WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email), ref, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, email string, ref string, exp *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET reset_token_ref = $2, reset_token_exp = $3, updated_at = $4
		 WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email), ref, exp, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// UpdatePassword replaces the password hash and, in the same statement,
// clears the reset token (single use) and the refresh token (a password
// change revokes the active session).
func (r *UserRepository) UpdatePassword(ctx context.Context, email string, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET password_hash = $2,
		     reset_token_ref = '',
		     reset_token_exp = NULL,
		     refresh_token_ref = '',
		     updated_at = $3
		 WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email), passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
