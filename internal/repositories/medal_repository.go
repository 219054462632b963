package repositories

import (
	"context"

	"gorm.io/gorm"
)

// UserMedalRow is one award with the medal rendered as JSON text.
type UserMedalRow struct {
	UserID string
	Medal  *string
}

// MedalRepository defines the interface for medal lookups
type MedalRepository interface {
	ForUsers(ctx context.Context, userIDs []string) ([]UserMedalRow, error)
}

type postgresMedalRepository struct {
	db *gorm.DB
}

func NewPostgresMedalRepository(db *gorm.DB) MedalRepository {
	return &postgresMedalRepository{db: db}
}

// ForUsers returns every award of the given users, duplicates included, in award order.
func (r *postgresMedalRepository) ForUsers(ctx context.Context, userIDs []string) ([]UserMedalRow, error) {
	var rows []UserMedalRow
	if len(userIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Table("user_medals AS um").
		Select("um.user_id, row_to_json(m)::text AS medal").
		Joins("LEFT JOIN medals m ON m.id = um.medal_id").
		Where("um.user_id IN ?", userIDs).
		Order("um.earned_at ASC").Order("um.id ASC").
		Scan(&rows).Error
	return rows, err
}
