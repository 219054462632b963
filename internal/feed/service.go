package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/feedback-loop/backend/internal/comments"
	"github.com/anonto42/feedback-loop/backend/internal/explore"
	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/query"
)

const (
	MaxTitleLength = 30
	MaxBodyLength  = 200
	MinTags        = 1
	MaxTags        = 3
)

// Gateway is the subset of the data gateway used for posts and tags.
type Gateway interface {
	FetchPostsFeed(ctx context.Context, filter models.PostFilter, limit, offset int) ([]models.PostFeedItem, error)
	FetchPostsByUser(ctx context.Context, userID string, limit, offset int) ([]models.PostFeedItem, error)
	FetchPostDetail(ctx context.Context, postID string) (*models.PostDetail, error)
	CreatePostWithImages(ctx context.Context, actor *models.Identity, params models.CreatePostParams) (*models.CreatedPost, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	DeletePost(ctx context.Context, postID string) error
	GetTags(ctx context.Context) ([]models.Tag, error)
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
}

// Page is one window of the feed. Limit grows as the client loads more.
type Page struct {
	Items   []models.PostFeedItem `json:"items"`
	HasMore bool                  `json:"has_more"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

type Service struct {
	gw    Gateway
	cache *query.Client
}

func NewService(gw Gateway, cache *query.Client) *Service {
	return &Service{gw: gw, cache: cache}
}

// Feed returns limit posts matching filter, starting at offset. While a refetch is in flight
// the previous result for the same key is served.
func (s *Service) Feed(ctx context.Context, filter models.PostFilter, limit, offset int) (*Page, error) {
	if limit <= 0 {
		limit = explore.PageSize
	}
	if offset < 0 {
		offset = 0
	}
	if filter.Sort == "" {
		filter.Sort = models.SortExplore
	}
	filter.SearchQuery = strings.TrimSpace(filter.SearchQuery)

	items, err := query.Fetch(ctx, s.cache, query.FeedKey(filter, limit, offset),
		func(ctx context.Context) ([]models.PostFeedItem, error) {
			return s.gw.FetchPostsFeed(ctx, filter, limit, offset)
		}, query.WithKeepPrevious())
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, HasMore: explore.HasMore(len(items), limit), Limit: limit, Offset: offset}, nil
}

func (s *Service) PostsByUser(ctx context.Context, userID string, limit, offset int) ([]models.PostFeedItem, error) {
	return query.Fetch(ctx, s.cache, query.PostsByUserKey(userID, limit, offset),
		func(ctx context.Context) ([]models.PostFeedItem, error) {
			return s.gw.FetchPostsByUser(ctx, userID, limit, offset)
		}, query.WithKeepPrevious())
}

func (s *Service) Detail(ctx context.Context, postID string) (*models.PostDetail, error) {
	return query.Fetch(ctx, s.cache, query.PostDetailKey(postID),
		func(ctx context.Context) (*models.PostDetail, error) {
			return s.gw.FetchPostDetail(ctx, postID)
		})
}

func (s *Service) Tags(ctx context.Context) ([]models.Tag, error) {
	return query.Fetch(ctx, s.cache, query.TagsKey(),
		func(ctx context.Context) ([]models.Tag, error) {
			return s.gw.GetTags(ctx)
		})
}

// ValidateCreate checks a new post before anything is written.
func ValidateCreate(params models.CreatePostParams) error {
	title := strings.TrimSpace(params.Title)
	switch {
	case title == "":
		return &models.ValidationError{Field: "title", Message: "title is required"}
	case len([]rune(title)) > MaxTitleLength:
		return &models.ValidationError{Field: "title", Message: fmt.Sprintf("title must be at most %d characters", MaxTitleLength)}
	}
	if params.Body == nil || strings.TrimSpace(*params.Body) == "" {
		return &models.ValidationError{Field: "body", Message: "body is required"}
	}
	if len([]rune(strings.TrimSpace(*params.Body))) > MaxBodyLength {
		return &models.ValidationError{Field: "body", Message: fmt.Sprintf("body must be at most %d characters", MaxBodyLength)}
	}
	if len(params.TagIDs) < MinTags || len(params.TagIDs) > MaxTags {
		return &models.ValidationError{Field: "tags", Message: fmt.Sprintf("choose between %d and %d tags", MinTags, MaxTags)}
	}
	if len(params.Files) == 0 {
		return &models.ValidationError{Field: "images", Message: "at least one image is required"}
	}
	return nil
}

// Create publishes a post. A partial failure still invalidates the feed since the post row
// may already exist.
func (s *Service) Create(ctx context.Context, actor *models.Identity, params models.CreatePostParams) (*models.CreatedPost, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	if err := ValidateCreate(params); err != nil {
		return nil, err
	}
	params.Title = strings.TrimSpace(params.Title)
	body := strings.TrimSpace(*params.Body)
	params.Body = &body

	created, err := s.gw.CreatePostWithImages(ctx, actor, params)
	if err != nil {
		var stepErr *models.StepError
		if errors.As(err, &stepErr) && stepErr.PostID != "" {
			s.invalidateAuthor(ctx, actor.ID)
		}
		return nil, err
	}
	s.invalidateAuthor(ctx, actor.ID)
	return created, nil
}

// Delete soft-deletes a post. Only its author or an admin may do so.
func (s *Service) Delete(ctx context.Context, actor *models.Identity, postID string) error {
	if actor == nil {
		return models.ErrUnauthenticated
	}
	post, err := s.gw.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil || post.IsDeleted {
		return models.ErrNotFound
	}

	isAdmin := false
	if post.AuthorID != actor.ID {
		p, err := s.gw.GetProfileByID(ctx, actor.ID)
		if err != nil {
			return err
		}
		isAdmin = p != nil && p.IsAdmin
	}
	if !comments.CanDelete(actor, isAdmin, post.AuthorID) {
		return models.ErrForbidden
	}

	if err := s.gw.DeletePost(ctx, postID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, query.PostDetailKey(postID))
	s.invalidateAuthor(ctx, post.AuthorID)
	return nil
}

func (s *Service) invalidateAuthor(ctx context.Context, authorID string) {
	s.cache.Invalidate(ctx, query.FeedPrefix())
	s.cache.Invalidate(ctx, query.PostsByUserPrefix(authorID))
	s.cache.Invalidate(ctx, query.ProfileStatsKey(authorID))
}
