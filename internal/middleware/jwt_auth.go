package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/anonto42/feedback-loop/backend/internal/auth"
	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// Context keys set by the auth middlewares.
const (
	ContextKeyClaims   = "user"
	ContextKeySession  = "session"
	ContextKeyIdentity = "identity"
)

// Sessions resolves verified claims to a live session.
type Sessions interface {
	Resolve(ctx context.Context, claims *models.JwtCustomClaims) (*session.Session, error)
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}
	return parts[1], nil
}

func authenticate(c echo.Context, tokens *auth.Tokens, sessions Sessions) error {
	raw, err := bearerToken(c)
	if err != nil {
		return err
	}

	claims, err := tokens.Parse(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	s, err := sessions.Resolve(c.Request().Context(), claims)
	if err != nil {
		if errors.Is(err, models.ErrUnauthenticated) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Session has ended")
		}
		log.Printf("Resolve session %s failed: %v", claims.SessionID, err)
		return echo.NewHTTPError(http.StatusBadGateway, "Could not restore session")
	}

	c.Set(ContextKeyClaims, claims)
	c.Set(ContextKeySession, s)
	c.Set(ContextKeyIdentity, s.Identity())
	return nil
}

// JWTAuthMiddleware checks for a valid JWT and attaches its session to the context.
func JWTAuthMiddleware(tokens *auth.Tokens, sessions Sessions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authenticate(c, tokens, sessions); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// OptionalJWTAuth attaches the session when a valid token is present and lets anonymous
// requests through untouched.
func OptionalJWTAuth(tokens *auth.Tokens, sessions Sessions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") != "" {
				if err := authenticate(c, tokens, sessions); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}

// Identity returns the signed-in user, or nil for anonymous requests.
func Identity(c echo.Context) *models.Identity {
	id, _ := c.Get(ContextKeyIdentity).(*models.Identity)
	return id
}

// UserID returns the signed-in user's id, or "".
func UserID(c echo.Context) string {
	if id := Identity(c); id != nil {
		return id.ID
	}
	return ""
}

func Session(c echo.Context) *session.Session {
	s, _ := c.Get(ContextKeySession).(*session.Session)
	return s
}
