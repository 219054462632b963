package handlers

import (
	"net/http"

	"github.com/anonto42/feedback-loop/backend/internal/comments"
	"github.com/anonto42/feedback-loop/backend/internal/middleware"
	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments and their reactions
type CommentHandler struct {
	comments *comments.Service
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentService *comments.Service) *CommentHandler {
	return &CommentHandler{comments: commentService}
}

// RegisterPublicCommentRoutes registers the comment list, which shows the viewer's own
// reactions when a session is present
func (h *CommentHandler) RegisterPublicCommentRoutes(g *echo.Group) {
	g.GET("/posts/:id/comments", h.GetComments)
}

// RegisterCommentRoutes registers comment routes that need a session
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.DELETE("/posts/:id/comments/:comment_id", h.DeleteComment)
	g.PUT("/comments/:id/reaction", h.React)
	g.DELETE("/comments/:id/reaction", h.ClearReaction)
}

// GetComments lists a post's comments sorted by ?sort=top|newest
func (h *CommentHandler) GetComments(c echo.Context) error {
	mode := comments.SortMode(c.QueryParam("sort"))
	if mode == "" {
		mode = comments.SortTop
	}
	if !mode.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "sort must be one of: top newest")
	}

	list, err := h.comments.List(c.Request().Context(), c.Param("id"), middleware.UserID(c), mode)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, list)
}

// CreateComment creates a new comment on a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	comment, err := h.comments.Create(c.Request().Context(), middleware.Identity(c), c.Param("id"), req.Body)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusCreated, comment)
}

// DeleteComment deletes a comment written by the caller, or any comment for admins
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	err := h.comments.Delete(c.Request().Context(), middleware.Identity(c), c.Param("id"), c.Param("comment_id"))
	if err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// React presses like (1) or dislike (-1). Pressing the active reaction again removes it.
func (h *CommentHandler) React(c echo.Context) error {
	var req models.SetReactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	next, err := h.comments.React(c.Request().Context(), middleware.Identity(c), req.PostID, c.Param("id"), models.ReactionValue(req.Reaction))
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"reaction": next})
}

// ClearReaction removes the caller's reaction. The post is named by ?post_id=.
func (h *CommentHandler) ClearReaction(c echo.Context) error {
	postID := c.QueryParam("post_id")
	if postID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "post_id is required")
	}
	if err := h.comments.Clear(c.Request().Context(), middleware.Identity(c), postID, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
