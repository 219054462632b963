package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository defines the interface for comment reaction operations
type ReactionRepository interface {
	ListForComments(ctx context.Context, commentIDs []string) ([]models.CommentReaction, error)
	GetReaction(ctx context.Context, userID, commentID string) (*models.CommentReaction, error)
	UpsertReaction(ctx context.Context, reaction *models.CommentReaction) error
	DeleteReaction(ctx context.Context, userID, commentID string) error
	CountLikesReceived(ctx context.Context, authorID string) (int64, error)
}

type postgresReactionRepository struct {
	db *gorm.DB
}

func NewPostgresReactionRepository(db *gorm.DB) ReactionRepository {
	return &postgresReactionRepository{db: db}
}

func (r *postgresReactionRepository) ListForComments(ctx context.Context, commentIDs []string) ([]models.CommentReaction, error) {
	var reactions []models.CommentReaction
	if len(commentIDs) == 0 {
		return reactions, nil
	}
	err := r.db.WithContext(ctx).Where("comment_id IN ?", commentIDs).Find(&reactions).Error
	return reactions, err
}

// GetReaction returns nil without error when the user has not reacted.
func (r *postgresReactionRepository) GetReaction(ctx context.Context, userID, commentID string) (*models.CommentReaction, error) {
	var reaction models.CommentReaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		First(&reaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (r *postgresReactionRepository) UpsertReaction(ctx context.Context, reaction *models.CommentReaction) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "comment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reaction"}),
	}).Create(reaction).Error
}

func (r *postgresReactionRepository) DeleteReaction(ctx context.Context, userID, commentID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&models.CommentReaction{}).Error
}

// CountLikesReceived counts likes on the visible comments written by authorID.
func (r *postgresReactionRepository) CountLikesReceived(ctx context.Context, authorID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("comment_reactions AS cr").
		Joins("JOIN comments c ON c.id = cr.comment_id").
		Where("c.author_id = ? AND c.is_deleted = false AND cr.reaction = ?", authorID, models.ReactionLike).
		Count(&count).Error
	return count, err
}
