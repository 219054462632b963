package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Check reports whether one backing service is reachable.
type Check func(ctx context.Context) error

// HealthHandler reports the status of the backing services
type HealthHandler struct {
	checks map[string]Check
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthCheck runs every check and answers 503 if any of them fails
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	return c.JSON(status, echo.Map{
		"status":       overall,
		"service":      "feedback-loop-api",
		"dependencies": deps,
	})
}
