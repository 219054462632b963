package router

import (
	"log"
	"net/http"

	"github.com/anonto42/feedback-loop/backend/internal/auth"
	"github.com/anonto42/feedback-loop/backend/internal/handlers"
	"github.com/anonto42/feedback-loop/backend/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers are the HTTP handlers mounted by SetupRoutes.
type Handlers struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Posts         *handlers.PostHandler
	Comments      *handlers.CommentHandler
	Notifications *handlers.NotificationHandler
	Profiles      *handlers.ProfileHandler
	Explore       *handlers.ExploreHandler
	Welcome       *handlers.WelcomeHandler
}

// SetupRoutes configures all application routes
func SetupRoutes(e *echo.Echo, h Handlers, tokens *auth.Tokens, sessions middleware.Sessions, gatherer prometheus.Gatherer) {
	e.GET("/health", h.Health.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "feedback-loop api"})
	})

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	h.Auth.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Public reads; a bearer token, when sent, still identifies the viewer ---
	public := e.Group("/api/v1")
	public.Use(middleware.OptionalJWTAuth(tokens, sessions))
	h.Posts.RegisterPublicPostRoutes(public)
	h.Comments.RegisterPublicCommentRoutes(public)
	h.Profiles.RegisterPublicProfileRoutes(public)
	log.Println("Public routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(tokens, sessions))
	h.Auth.RegisterSessionRoutes(api)
	h.Posts.RegisterPostRoutes(api)
	h.Comments.RegisterCommentRoutes(api)
	h.Notifications.RegisterNotificationRoutes(api)
	h.Profiles.RegisterProfileRoutes(api)
	h.Explore.RegisterExploreRoutes(api)
	h.Welcome.RegisterWelcomeRoutes(api)
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	log.Println("All routes configured.")
}
