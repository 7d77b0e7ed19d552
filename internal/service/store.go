package service

import (
	"context"
	"time"

	"go-auth-api/internal/model"
)

// UserStore is the persistence surface the services need. Both the pgx-backed
// repository and the in-memory one satisfy it. All operations are atomic at
// the single-record granularity.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id string) (model.User, error)
	Create(ctx context.Context, u model.User) error
	Update(ctx context.Context, email string, upd model.UserUpdate) (model.User, error)
	Delete(ctx context.Context, id string) error
	SetRefreshToken(ctx context.Context, email string, ref string) error
	SetResetToken(ctx context.Context, email string, ref string, exp *time.Time) error
	UpdatePassword(ctx context.Context, email string, passwordHash string) error
}
