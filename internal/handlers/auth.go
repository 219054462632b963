package handlers

import (
	"net/http"

	"github.com/anonto42/feedback-loop/backend/internal/middleware"
	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/profiles"
	"github.com/anonto42/feedback-loop/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles sign-up, sign-in and the signed-in session
type AuthHandler struct {
	sessions *session.Manager
	profiles *profiles.Service
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(sessions *session.Manager, profileService *profiles.Service) *AuthHandler {
	return &AuthHandler{sessions: sessions, profiles: profileService}
}

// RegisterAuthRoutes registers the unauthenticated auth routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
}

// RegisterSessionRoutes registers routes that need a session
func (h *AuthHandler) RegisterSessionRoutes(g *echo.Group) {
	g.POST("/auth/signout", h.SignOut)
	g.GET("/me", h.Me)
}

// Signup creates the account and its profile and returns a session token
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.sessions.SignUp(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusCreated, res)
}

// SignIn authenticates with email and password and returns a session token
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.sessions.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, res)
}

// SignOut ends the current session
func (h *AuthHandler) SignOut(c echo.Context) error {
	s := middleware.Session(c)
	if s == nil {
		return httpError(models.ErrUnauthenticated)
	}
	if err := h.sessions.SignOut(c.Request().Context(), s); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the signed-in user with their profile
func (h *AuthHandler) Me(c echo.Context) error {
	id := middleware.Identity(c)
	if id == nil {
		return httpError(models.ErrUnauthenticated)
	}
	profile, err := h.profiles.Current(c.Request().Context(), id.ID)
	if err != nil {
		return httpError(err)
	}

	live := false
	if s := middleware.Session(c); s != nil {
		live = s.LiveNotifications()
	}
	return success(c, http.StatusOK, echo.Map{
		"user":               id,
		"profile":            profile,
		"live_notifications": live,
	})
}
