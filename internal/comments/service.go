package comments

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/query"
)

// Gateway is the subset of the data gateway used by the comment workflow.
type Gateway interface {
	FetchCommentsForPost(ctx context.Context, postID, viewerID string) ([]models.CommentWithMeta, error)
	CreateComment(ctx context.Context, actor *models.Identity, postID, body string) (*models.Comment, error)
	GetComment(ctx context.Context, commentID string) (*models.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
	GetCommentReaction(ctx context.Context, userID, commentID string) (*models.ReactionValue, error)
	SetCommentReaction(ctx context.Context, actor *models.Identity, commentID string, value *models.ReactionValue) error
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
}

const maxBodyLength = 2000

type Service struct {
	gw    Gateway
	cache *query.Client
}

func NewService(gw Gateway, cache *query.Client) *Service {
	return &Service{gw: gw, cache: cache}
}

// List returns the visible comments of a post as seen by viewerID, sorted by mode.
func (s *Service) List(ctx context.Context, postID, viewerID string, mode SortMode) ([]models.CommentWithMeta, error) {
	list, err := query.Fetch(ctx, s.cache, query.CommentsKey(postID, viewerID),
		func(ctx context.Context) ([]models.CommentWithMeta, error) {
			return s.gw.FetchCommentsForPost(ctx, postID, viewerID)
		})
	if err != nil {
		return nil, err
	}
	return Sort(list, mode), nil
}

// Create posts a comment as actor. The post's comments and detail are invalidated afterwards.
func (s *Service) Create(ctx context.Context, actor *models.Identity, postID, body string) (*models.Comment, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, &models.ValidationError{Field: "body", Message: "comment cannot be empty"}
	}
	if len([]rune(body)) > maxBodyLength {
		return nil, &models.ValidationError{Field: "body", Message: fmt.Sprintf("comment must be at most %d characters", maxBodyLength)}
	}

	c, err := s.gw.CreateComment(ctx, actor, postID, body)
	if err != nil {
		return nil, err
	}
	s.invalidatePost(ctx, postID)
	return c, nil
}

// Delete soft-deletes a comment. Only its author or an admin may do so.
func (s *Service) Delete(ctx context.Context, actor *models.Identity, postID, commentID string) error {
	if actor == nil {
		return models.ErrUnauthenticated
	}
	c, err := s.gw.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if c.PostID != postID || c.IsDeleted {
		return models.ErrNotFound
	}

	isAdmin := false
	if c.AuthorID != actor.ID {
		p, err := s.gw.GetProfileByID(ctx, actor.ID)
		if err != nil {
			return err
		}
		isAdmin = p != nil && p.IsAdmin
	}
	if !CanDelete(actor, isAdmin, c.AuthorID) {
		return models.ErrForbidden
	}

	if err := s.gw.DeleteComment(ctx, postID, commentID); err != nil {
		return err
	}
	s.invalidatePost(ctx, postID)
	return nil
}

// React applies a like or dislike press and returns the reaction now stored, nil when removed.
func (s *Service) React(ctx context.Context, actor *models.Identity, postID, commentID string, desired models.ReactionValue) (*models.ReactionValue, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	if !desired.Valid() {
		return nil, &models.ValidationError{Field: "reaction", Message: "reaction must be 1 or -1"}
	}
	existing, err := s.gw.GetCommentReaction(ctx, actor.ID, commentID)
	if err != nil {
		return nil, err
	}
	next := NextReaction(existing, desired)
	if err := s.gw.SetCommentReaction(ctx, actor, commentID, next); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, query.CommentsPrefix(postID))
	return next, nil
}

// Clear removes actor's reaction on a comment, if any.
func (s *Service) Clear(ctx context.Context, actor *models.Identity, postID, commentID string) error {
	if actor == nil {
		return models.ErrUnauthenticated
	}
	if err := s.gw.SetCommentReaction(ctx, actor, commentID, nil); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, query.CommentsPrefix(postID))
	return nil
}

func (s *Service) invalidatePost(ctx context.Context, postID string) {
	s.cache.Invalidate(ctx, query.CommentsPrefix(postID))
	s.cache.Invalidate(ctx, query.PostDetailKey(postID))
}
