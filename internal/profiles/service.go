package profiles

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/query"
)

// RecentPostsLimit is the number of posts shown on a profile page.
const RecentPostsLimit = 12

// Gateway is the subset of the data gateway used for profiles.
type Gateway interface {
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
	GetProfileByHandle(ctx context.Context, handle string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, actor *models.Identity, params models.UpdateProfileParams) (*models.Profile, error)
	SearchProfilesByHandlePrefix(ctx context.Context, prefix string) ([]models.Profile, error)
	GetMedalsForUser(ctx context.Context, userID string) ([]models.Medal, error)
	GetProfileStats(ctx context.Context, userID string) (models.ProfileStats, error)
	UploadAvatar(ctx context.Context, actor *models.Identity, file models.ImageUpload) (string, error)
	FetchPostsByUser(ctx context.Context, userID string, limit, offset int) ([]models.PostFeedItem, error)
}

type Service struct {
	gw           Gateway
	cache        *query.Client
	sessionStale time.Duration
}

// NewService creates a Service. sessionStale bounds how long the signed-in user's own profile
// is served from cache.
func NewService(gw Gateway, cache *query.Client, sessionStale time.Duration) *Service {
	return &Service{gw: gw, cache: cache, sessionStale: sessionStale}
}

func found(p *models.Profile, err error) (*models.Profile, error) {
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, models.ErrNotFound
	}
	return p, nil
}

// ByHandle returns the profile with that handle or ErrNotFound.
func (s *Service) ByHandle(ctx context.Context, handle string) (*models.Profile, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	return found(query.Fetch(ctx, s.cache, query.ProfileByHandleKey(handle),
		func(ctx context.Context) (*models.Profile, error) {
			return s.gw.GetProfileByHandle(ctx, handle)
		}))
}

func (s *Service) ByID(ctx context.Context, id string) (*models.Profile, error) {
	return found(query.Fetch(ctx, s.cache, query.ProfileByIDKey(id),
		func(ctx context.Context) (*models.Profile, error) {
			return s.gw.GetProfileByID(ctx, id)
		}))
}

// Current returns the signed-in user's profile. It is never served older than the session stale time.
func (s *Service) Current(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, models.ErrUnauthenticated
	}
	return found(query.Fetch(ctx, s.cache, query.CurrentUserKey(userID),
		func(ctx context.Context) (*models.Profile, error) {
			return s.gw.GetProfileByID(ctx, userID)
		}, query.WithStaleTime(s.sessionStale)))
}

// Medals returns a user's awards grouped per medal.
func (s *Service) Medals(ctx context.Context, userID string) ([]models.GroupedMedal, error) {
	list, err := query.Fetch(ctx, s.cache, query.UserMedalsKey(userID),
		func(ctx context.Context) ([]models.Medal, error) {
			return s.gw.GetMedalsForUser(ctx, userID)
		})
	if err != nil {
		return nil, err
	}
	return GroupMedals(list), nil
}

func (s *Service) Stats(ctx context.Context, userID string) (models.ProfileStats, error) {
	return query.Fetch(ctx, s.cache, query.ProfileStatsKey(userID),
		func(ctx context.Context) (models.ProfileStats, error) {
			return s.gw.GetProfileStats(ctx, userID)
		})
}

// Page assembles the profile page: the profile, grouped medals, stats and recent posts.
func (s *Service) Page(ctx context.Context, handle string) (*models.ProfileData, error) {
	p, err := s.ByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	medals, err := s.Medals(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	stats, err := s.Stats(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	posts, err := query.Fetch(ctx, s.cache, query.PostsByUserKey(p.ID, RecentPostsLimit, 0),
		func(ctx context.Context) ([]models.PostFeedItem, error) {
			return s.gw.FetchPostsByUser(ctx, p.ID, RecentPostsLimit, 0)
		}, query.WithKeepPrevious())
	if err != nil {
		return nil, err
	}
	return &models.ProfileData{Profile: *p, Medals: medals, Stats: stats, RecentPosts: posts}, nil
}

func (s *Service) Search(ctx context.Context, prefix string) ([]models.Profile, error) {
	return s.gw.SearchProfilesByHandlePrefix(ctx, prefix)
}

// Update edits the signed-in user's profile. Blank optional text clears the field.
func (s *Service) Update(ctx context.Context, actor *models.Identity, req models.UpdateProfileRequest) (*models.Profile, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	params := models.UpdateProfileParams{
		DisplayName: trimmed(req.DisplayName),
		Bio:         trimmed(req.Bio),
	}
	if req.Handle != nil {
		h := strings.ToLower(strings.TrimSpace(*req.Handle))
		params.Handle = &h
	}
	if req.SocialLinks != nil {
		links, err := NormalizeSocialLinks(req.SocialLinks)
		if err != nil {
			return nil, err
		}
		params.SocialLinks = links
	}
	return s.apply(ctx, actor, params)
}

// UploadAvatar stores a new avatar and points the profile at it.
func (s *Service) UploadAvatar(ctx context.Context, actor *models.Identity, file models.ImageUpload) (*models.Profile, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	url, err := s.gw.UploadAvatar(ctx, actor, file)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, actor, models.UpdateProfileParams{AvatarURL: &url})
}

func (s *Service) apply(ctx context.Context, actor *models.Identity, params models.UpdateProfileParams) (*models.Profile, error) {
	p, err := s.gw.UpdateProfile(ctx, actor, params)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, query.CurrentUserKey(actor.ID))
	s.cache.Invalidate(ctx, query.ProfileByIDKey(actor.ID))
	s.cache.Invalidate(ctx, query.ProfileByHandlePrefix())
	return p, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
