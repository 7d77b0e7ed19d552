package model

import "time"

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	// RefreshTokenRef holds a SHA-256 reference of the single live refresh
	// token; empty when the user is logged out.
	RefreshTokenRef string
	ResetTokenRef   string
	ResetTokenExp   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UserResponse is the presenter shape returned to clients. It never carries
// the password hash or any token reference.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UserUpdate carries the mutable profile fields for a partial update. Nil
// fields are left untouched.
type UserUpdate struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}
