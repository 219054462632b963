package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/anonto42/feedback-loop/backend/internal/explore"
	"github.com/anonto42/feedback-loop/backend/internal/feed"
	"github.com/anonto42/feedback-loop/backend/internal/middleware"
	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// MaxImageBytes caps a single uploaded image.
const MaxImageBytes = 10 << 20

// PostHandler handles HTTP requests related to posts and tags
type PostHandler struct {
	feed *feed.Service
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(feedService *feed.Service) *PostHandler {
	return &PostHandler{feed: feedService}
}

// RegisterPublicPostRoutes registers the read-only post routes
func (h *PostHandler) RegisterPublicPostRoutes(g *echo.Group) {
	g.GET("/posts", h.GetPosts)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/tags", h.GetTags)
}

// RegisterPostRoutes registers post routes that need a session
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// filterFromQuery reads sort, tags and q. Tags may be repeated or comma separated.
func filterFromQuery(c echo.Context) (models.PostFilter, error) {
	f := models.PostFilter{
		Sort:        models.SortMode(c.QueryParam("sort")),
		Tags:        []string{},
		SearchQuery: c.QueryParam("q"),
	}
	if f.Sort == "" {
		f.Sort = models.SortExplore
	}
	if !f.Sort.Valid() {
		return f, echo.NewHTTPError(http.StatusBadRequest, "sort must be one of: newest explore")
	}
	for _, v := range c.QueryParams()["tags"] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Tags = append(f.Tags, t)
			}
		}
	}
	return f, nil
}

// GetPosts returns one page of the feed
func (h *PostHandler) GetPosts(c echo.Context) error {
	filter, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	limit := intQuery(c, "limit", explore.PageSize)
	if limit < 1 || limit > 100 {
		limit = explore.PageSize
	}

	page, err := h.feed.Feed(c.Request().Context(), filter, limit, intQuery(c, "offset", 0))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, page)
}

// GetPost returns a single post with author and stats
func (h *PostHandler) GetPost(c echo.Context) error {
	detail, err := h.feed.Detail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, detail)
}

func (h *PostHandler) GetTags(c echo.Context) error {
	tags, err := h.feed.Tags(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, tags)
}

func readUpload(fh *multipart.FileHeader) (models.ImageUpload, error) {
	if fh.Size > MaxImageBytes {
		return models.ImageUpload{}, &models.ValidationError{
			Field:   "images",
			Message: fmt.Sprintf("%s is larger than %d MB", fh.Filename, MaxImageBytes>>20),
		}
	}
	f, err := fh.Open()
	if err != nil {
		return models.ImageUpload{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return models.ImageUpload{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return models.ImageUpload{}, &models.ValidationError{Field: "images", Message: fh.Filename + " is not an image"}
	}
	return models.ImageUpload{FileName: fh.Filename, ContentType: contentType, Data: data}, nil
}

// CreatePost publishes a post from a multipart form with title, body, tag_ids and images
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Expected a multipart form")
	}
	files := make([]models.ImageUpload, 0, len(form.File["images"]))
	for _, fh := range form.File["images"] {
		up, err := readUpload(fh)
		if err != nil {
			return httpError(err)
		}
		files = append(files, up)
	}

	created, err := h.feed.Create(c.Request().Context(), middleware.Identity(c), models.CreatePostParams{
		Title:  req.Title,
		Body:   &req.Body,
		TagIDs: req.TagIDs,
		Files:  files,
	})
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusCreated, created)
}

// DeletePost soft-deletes a post owned by the caller, or any post for admins
func (h *PostHandler) DeletePost(c echo.Context) error {
	if err := h.feed.Delete(c.Request().Context(), middleware.Identity(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
