// Package token issues and verifies the signed, time-bounded tokens used by
// the auth flows: short-lived access tokens, rotating refresh tokens and
// single-use password-reset tokens. Access tokens are verified statelessly;
// refresh and reset tokens additionally carry a nonce so callers can persist
// a reference and revoke them server-side.
package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-auth-api/internal/model"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"
	KindReset   = "reset"
)

type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
}

// Claims is the verified content of a token.
type Claims struct {
	Email     string
	Kind      string
	Nonce     string
	ExpiresAt time.Time
}

type jwtClaims struct {
	Kind string `json:"typ"`
	jwt.RegisteredClaims
}

type Service struct {
	cfg    Config
	secret []byte
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.ResetTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}

	return &Service{cfg: cfg, secret: []byte(cfg.Secret)}, nil
}

func (s *Service) AccessTTL() time.Duration { return s.cfg.AccessTTL }

func (s *Service) ResetTTL() time.Duration { return s.cfg.ResetTTL }

func (s *Service) IssueAccess(email string) (string, error) {
	return s.issue(email, KindAccess, s.cfg.AccessTTL)
}

func (s *Service) IssueRefresh(email string) (string, error) {
	return s.issue(email, KindRefresh, s.cfg.RefreshTTL)
}

func (s *Service) IssueReset(email string) (string, error) {
	return s.issue(email, KindReset, s.cfg.ResetTTL)
}

func (s *Service) issue(email string, kind string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwtClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   email,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature, expiry and kind. Failure modes are distinct so
// callers can tell a stale-but-genuine token from garbage or forgery.
func (s *Service) Verify(tokenString string, expectedKind string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, model.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, model.ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, model.ErrTokenSignature
		default:
			return nil, model.ErrTokenInvalid
		}
	}

	return s.toClaims(parsed, expectedKind)
}

// VerifyReset validates a password-reset token and returns the subject email.
// Single-use semantics are enforced by the caller clearing the stored
// reference after a successful use, not here.
func (s *Service) VerifyReset(tokenString string) (string, error) {
	claims, err := s.Verify(tokenString, KindReset)
	if err != nil {
		return "", err
	}
	return claims.Email, nil
}

// Decode checks the signature but tolerates an expired token. Logout uses it
// so a client holding an expired-but-parseable access token can still end its
// session.
func (s *Service) Decode(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, model.ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, model.ErrTokenSignature
		default:
			return nil, model.ErrTokenInvalid
		}
	}

	return s.toClaims(parsed, "")
}

func (s *Service) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, model.ErrTokenSignature
	}
	return s.secret, nil
}

func (s *Service) toClaims(parsed *jwt.Token, expectedKind string) (*Claims, error) {
	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok {
		return nil, model.ErrTokenInvalid
	}

	if claims.Subject == "" {
		return nil, model.ErrTokenInvalid
	}
	if expectedKind != "" && claims.Kind != expectedKind {
		return nil, model.ErrTokenInvalid
	}

	out := &Claims{
		Email: claims.Subject,
		Kind:  claims.Kind,
		Nonce: claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	return out, nil
}

// Ref derives the opaque reference stored on the user record for a refresh
// or reset token. Storing a digest instead of the raw token keeps the store
// from holding usable credentials.
func Ref(tokenString string) string {
	sum := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(sum[:])
}
