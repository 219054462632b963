package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// WelcomeHandler decides when the welcome modal is shown
type WelcomeHandler struct {
	now func() time.Time
}

// NewWelcomeHandler creates a new WelcomeHandler
func NewWelcomeHandler() *WelcomeHandler {
	return &WelcomeHandler{now: time.Now}
}

// RegisterWelcomeRoutes registers welcome modal routes
func (h *WelcomeHandler) RegisterWelcomeRoutes(g *echo.Group) {
	g.GET("/welcome", h.GetWelcome)
	g.POST("/welcome/shown", h.MarkShown)
}

// GetWelcome reports whether the modal is due for the caller
func (h *WelcomeHandler) GetWelcome(c echo.Context) error {
	s := middleware.Session(c)
	if s == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "You need to be logged in")
	}
	return success(c, http.StatusOK, echo.Map{"show": s.WelcomeDue(c.Request().Context(), h.now())})
}

// MarkShown starts the cooldown after the modal was displayed
func (h *WelcomeHandler) MarkShown(c echo.Context) error {
	s := middleware.Session(c)
	if s == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "You need to be logged in")
	}
	s.MarkWelcomeShown(c.Request().Context(), h.now())
	return c.NoContent(http.StatusNoContent)
}
