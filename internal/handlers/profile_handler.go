package handlers

import (
	"net/http"

	"github.com/anonto42/feedback-loop/backend/internal/middleware"
	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/profiles"
	"github.com/labstack/echo/v4"
)

// ProfileHandler handles HTTP requests related to profiles
type ProfileHandler struct {
	profiles *profiles.Service
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(service *profiles.Service) *ProfileHandler {
	return &ProfileHandler{profiles: service}
}

// RegisterPublicProfileRoutes registers profile lookups
func (h *ProfileHandler) RegisterPublicProfileRoutes(g *echo.Group) {
	g.GET("/profiles", h.SearchProfiles)
	g.GET("/profiles/:handle", h.GetProfilePage)
}

// RegisterProfileRoutes registers routes editing the caller's own profile
func (h *ProfileHandler) RegisterProfileRoutes(g *echo.Group) {
	g.PUT("/profile", h.UpdateProfile)
	g.POST("/profile/avatar", h.UploadAvatar)
}

// ProfilePage is a profile page with its social links classified for display
type ProfilePage struct {
	*models.ProfileData
	Links []profiles.SocialLink `json:"links"`
}

// GetProfilePage returns the profile, grouped medals, stats and recent posts for a handle
func (h *ProfileHandler) GetProfilePage(c echo.Context) error {
	data, err := h.profiles.Page(c.Request().Context(), c.Param("handle"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, ProfilePage{
		ProfileData: data,
		Links:       profiles.ParseSocialLinks(data.Profile.SocialLinks),
	})
}

// SearchProfiles finds profiles whose handle starts with ?q=
func (h *ProfileHandler) SearchProfiles(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return success(c, http.StatusOK, []models.Profile{})
	}
	list, err := h.profiles.Search(c.Request().Context(), q)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, list)
}

// UpdateProfile edits the caller's handle, display name, bio and social links
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	p, err := h.profiles.Update(c.Request().Context(), middleware.Identity(c), req)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, p)
}

// UploadAvatar replaces the caller's avatar with the "avatar" form file
func (h *ProfileHandler) UploadAvatar(c echo.Context) error {
	fh, err := c.FormFile("avatar")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "avatar file is required")
	}
	up, err := readUpload(fh)
	if err != nil {
		return httpError(err)
	}

	p, err := h.profiles.UploadAvatar(c.Request().Context(), middleware.Identity(c), up)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, p)
}
