package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/anonto42/feedback-loop/backend/internal/auth"
	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// httpError maps a domain error to the HTTP error returned to the client.
func httpError(err error) error {
	var (
		he       *echo.HTTPError
		vErr     *models.ValidationError
		conflict *models.ConflictError
		stepErr  *models.StepError
	)
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, models.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "You need to be logged in")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, models.ErrNotFound), errors.Is(err, session.ErrProfileMissing):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, models.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "You are not allowed to do that")
	case errors.As(err, &vErr):
		return echo.NewHTTPError(http.StatusBadRequest, vErr.Error())
	case errors.As(err, &conflict):
		return echo.NewHTTPError(http.StatusConflict, conflict.Message)
	case errors.As(err, &stepErr):
		log.Printf("Multi-step write failed: %v", stepErr)
		return echo.NewHTTPError(http.StatusBadGateway, echo.Map{
			"message": "Publishing failed at step: " + stepErr.Step,
			"post_id": stepErr.PostID,
		})
	case errors.Is(err, context.Canceled):
		return echo.NewHTTPError(499, "Request cancelled")
	}
	log.Printf("Upstream request failed: %v", err)
	return echo.NewHTTPError(http.StatusBadGateway, "Upstream request failed")
}

func success(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

// intQuery reads a non-negative integer query parameter, falling back to def.
func intQuery(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || v < 0 {
		return def
	}
	return v
}
