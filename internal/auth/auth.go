package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Provider is the identity backend.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*models.Identity, error)
	SignIn(ctx context.Context, email, password string) (*models.Identity, error)
	SignOut(ctx context.Context, userID string) error
	GetUser(ctx context.Context, userID string) (*models.Identity, error)
}

// TokenTTL is the lifetime of a session token.
const TokenTTL = 72 * time.Hour

// Tokens issues and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = TokenTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for id bound to sessionID.
func (t *Tokens) Issue(id models.Identity, sessionID string) (string, error) {
	now := t.now()
	claims := &models.JwtCustomClaims{
		UserID:    id.ID,
		Email:     id.Email,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse verifies raw and returns its claims.
func (t *Tokens) Parse(raw string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" || claims.SessionID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
