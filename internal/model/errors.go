package model

import "errors"

var (
	// User related errors
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")

	// Credential errors. Unknown email and wrong password both surface as
	// ErrInvalidCredentials so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token related errors. The verifier distinguishes these so callers can
	// react; the HTTP boundary collapses them into a uniform message.
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenMalformed      = errors.New("token malformed")
	ErrTokenSignature      = errors.New("token signature mismatch")
	ErrTokenInvalid        = errors.New("token invalid")
	ErrInvalidRefreshToken = errors.New("refresh token invalid or revoked")

	// Validation errors
	ErrPasswordMismatch = errors.New("passwords do not match")
)
