package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/pkg/storage"
)

// SearchLimit caps handle prefix searches.
const SearchLimit = 10

func (g *Gateway) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	p, err := g.profiles.GetProfileByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch profile %s: %w", id, err)
	}
	return p, nil
}

// GetProfileByHandle returns nil when no profile has that handle.
func (g *Gateway) GetProfileByHandle(ctx context.Context, handle string) (*models.Profile, error) {
	p, err := g.profiles.GetProfileByHandle(ctx, strings.ToLower(strings.TrimSpace(handle)))
	if err != nil {
		return nil, fmt.Errorf("fetch profile @%s: %w", handle, err)
	}
	return p, nil
}

// CreateProfile inserts the profile of a newly registered user.
func (g *Gateway) CreateProfile(ctx context.Context, userID, handle string, displayName *string) (*models.Profile, error) {
	p := &models.Profile{ID: userID, Handle: handle, DisplayName: displayName}
	if err := g.profiles.CreateProfile(ctx, p); err != nil {
		return nil, models.ClassifyConflict(err)
	}
	return p, nil
}

// UpdateProfile applies params to the signed-in user's profile. Taken handles become a ConflictError.
func (g *Gateway) UpdateProfile(ctx context.Context, actor *models.Identity, params models.UpdateProfileParams) (*models.Profile, error) {
	if actor == nil {
		return nil, models.ErrUnauthenticated
	}
	p, err := g.profiles.UpdateProfile(ctx, actor.ID, params)
	if err != nil {
		return nil, models.ClassifyConflict(err)
	}
	return p, nil
}

// SearchProfilesByHandlePrefix returns up to SearchLimit profiles whose handle starts with prefix.
func (g *Gateway) SearchProfilesByHandlePrefix(ctx context.Context, prefix string) ([]models.Profile, error) {
	prefix = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(prefix), "@")))
	if prefix == "" {
		return []models.Profile{}, nil
	}
	list, err := g.profiles.SearchByHandlePrefix(ctx, prefix, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	if list == nil {
		list = []models.Profile{}
	}
	return list, nil
}

// GetMedalsForUser lists every award of a user, in the order earned, repeats included.
func (g *Gateway) GetMedalsForUser(ctx context.Context, userID string) ([]models.Medal, error) {
	byUser, err := g.medalsByUser(ctx, []string{userID})
	if err != nil {
		return nil, fmt.Errorf("fetch medals: %w", err)
	}
	if m := byUser[userID]; m != nil {
		return m, nil
	}
	return []models.Medal{}, nil
}

// GetProfileStats counts a user's visible posts and comments and the likes their comments received.
func (g *Gateway) GetProfileStats(ctx context.Context, userID string) (models.ProfileStats, error) {
	var stats models.ProfileStats
	posts, err := g.posts.CountByAuthor(ctx, userID)
	if err != nil {
		return stats, fmt.Errorf("count posts: %w", err)
	}
	comments, err := g.comments.CountByAuthor(ctx, userID)
	if err != nil {
		return stats, fmt.Errorf("count comments: %w", err)
	}
	likes, err := g.reactions.CountLikesReceived(ctx, userID)
	if err != nil {
		return stats, fmt.Errorf("count likes: %w", err)
	}
	stats.PostCount = int(posts)
	stats.CommentCount = int(comments)
	stats.TotalCommentLikes = int(likes)
	return stats, nil
}

// UploadAvatar stores the image under the user's folder, overwriting, and returns its public URL.
// The profile itself is not updated.
func (g *Gateway) UploadAvatar(ctx context.Context, actor *models.Identity, file models.ImageUpload) (string, error) {
	if actor == nil {
		return "", models.ErrUnauthenticated
	}
	objectPath := storage.AvatarPath(actor.ID, g.now().UnixMilli(), file.FileName)
	if err := g.store.Upload(ctx, storage.BucketAvatars, objectPath, file.Data, file.ContentType, true); err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return g.store.PublicURL(storage.BucketAvatars, objectPath), nil
}
