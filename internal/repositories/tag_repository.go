package repositories

import (
	"context"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"gorm.io/gorm"
)

// TagRepository reads the tag catalog
type TagRepository interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
}

type postgresTagRepository struct {
	db *gorm.DB
}

func NewPostgresTagRepository(db *gorm.DB) TagRepository {
	return &postgresTagRepository{db: db}
}

func (r *postgresTagRepository) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error
	return tags, err
}
