package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
	GetProfileByHandle(ctx context.Context, handle string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id string, params models.UpdateProfileParams) (*models.Profile, error)
	SearchByHandlePrefix(ctx context.Context, prefix string, limit int) ([]models.Profile, error)
}

type postgresProfileRepository struct {
	db *gorm.DB
}

func NewPostgresProfileRepository(db *gorm.DB) ProfileRepository {
	return &postgresProfileRepository{db: db}
}

func (r *postgresProfileRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Clauses(clause.Returning{}).Create(profile).Error
}

// GetProfileByID returns nil without error when no profile exists.
func (r *postgresProfileRepository) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	return r.maybeFirst(ctx, "id = ?", id)
}

// GetProfileByHandle returns nil without error when no profile exists.
func (r *postgresProfileRepository) GetProfileByHandle(ctx context.Context, handle string) (*models.Profile, error) {
	return r.maybeFirst(ctx, "handle = ?", handle)
}

func (r *postgresProfileRepository) maybeFirst(ctx context.Context, query string, arg any) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where(query, arg).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *postgresProfileRepository) UpdateProfile(ctx context.Context, id string, params models.UpdateProfileParams) (*models.Profile, error) {
	updates := map[string]interface{}{}
	if params.Handle != nil {
		updates["handle"] = *params.Handle
	}
	if params.DisplayName != nil {
		updates["display_name"] = *params.DisplayName
	}
	if params.Bio != nil {
		updates["bio"] = *params.Bio
	}
	if params.AvatarURL != nil {
		updates["avatar_url"] = *params.AvatarURL
	}
	if params.SocialLinks != nil {
		updates["social_links"] = pq.StringArray(params.SocialLinks)
	}

	var profile models.Profile
	tx := r.db.WithContext(ctx).Model(&profile).Clauses(clause.Returning{}).Where("id = ?", id)
	if len(updates) > 0 {
		res := tx.Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, models.ErrNotFound
		}
		return &profile, nil
	}
	p, err := r.GetProfileByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, models.ErrNotFound
	}
	return p, nil
}

func (r *postgresProfileRepository) SearchByHandlePrefix(ctx context.Context, prefix string, limit int) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.WithContext(ctx).
		Where(`handle ILIKE ? ESCAPE '\'`, EscapeLike(prefix)+"%").
		Order("handle ASC").
		Limit(limit).
		Find(&profiles).Error
	return profiles, err
}
