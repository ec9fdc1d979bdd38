// Package token issues and verifies the signed credentials used for email
// verification and login sessions. Tokens are HS256 JWTs signed with a
// process-wide secret.
package token

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// VerificationTTL is the validity window of an email verification token.
	VerificationTTL = 2 * time.Hour
	// SessionTTL is the validity window of a login credential.
	SessionTTL = 30 * 24 * time.Hour
)

type Config struct {
	Secret string
}

// ConfigFromEnv reads the signing secret from JWT_SECRET.
func ConfigFromEnv() Config {
	return Config{Secret: os.Getenv("JWT_SECRET")}
}

// Service signs and verifies tokens with a shared HMAC secret.
type Service struct {
	secret []byte
}

func NewService(cfg Config) *Service {
	return &Service{secret: []byte(cfg.Secret)}
}

var ErrInvalidToken = errors.New("invalid or expired token")

type sessionClaims struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	IsAuthor bool   `json:"isAuthor"`
	jwt.RegisteredClaims
}

type verificationClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IssueVerification creates a verification token binding the email address.
// The token is stored on the account and matched by exact value; the embedded
// expiry mirrors the stored one.
func (s *Service) IssueVerification(email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := verificationClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// IssueSession creates a login credential encoding the account id, email and
// author flag.
func (s *Service) IssueSession(id, email string, isAuthor bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		UserID:   id,
		Email:    email,
		IsAuthor: isAuthor,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifySession validates a login credential and returns the identity it
// asserts.
func (s *Service) VerifySession(tok string) (*Identity, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{ID: claims.UserID, Email: claims.Email, IsAuthor: claims.IsAuthor}, nil
}
