package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRow is a comment with its author rendered as JSON text.
type CommentRow struct {
	ID        string
	PostID    string
	AuthorID  string
	Body      string
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt *time.Time
	Author    *string
}

func (r *CommentRow) Comment() models.Comment {
	return models.Comment{
		ID:        r.ID,
		PostID:    r.PostID,
		AuthorID:  r.AuthorID,
		Body:      r.Body,
		IsDeleted: r.IsDeleted,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]CommentRow, error)
	SoftDeleteComment(ctx context.Context, postID, id string) error
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
}

type postgresCommentRepository struct {
	db *gorm.DB
}

func NewPostgresCommentRepository(db *gorm.DB) CommentRepository {
	return &postgresCommentRepository{db: db}
}

func (r *postgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Clauses(clause.Returning{}).Create(comment).Error
}

func (r *postgresCommentRepository) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// ListByPost returns the visible comments of a post, oldest first.
func (r *postgresCommentRepository) ListByPost(ctx context.Context, postID string) ([]CommentRow, error) {
	var rows []CommentRow
	err := r.db.WithContext(ctx).
		Table("comments AS c").
		Select(`c.id, c.post_id, c.author_id, c.body, c.is_deleted, c.created_at, c.updated_at,
			(SELECT row_to_json(a)::text FROM
				(SELECT pr.id, pr.handle, pr.display_name, pr.avatar_url FROM profiles pr WHERE pr.id = c.author_id) a) AS author`).
		Where("c.post_id = ? AND c.is_deleted = false", postID).
		Order("c.created_at ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *postgresCommentRepository) SoftDeleteComment(ctx context.Context, postID, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND post_id = ?", id, postID).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *postgresCommentRepository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("author_id = ? AND is_deleted = false", authorID).
		Count(&count).Error
	return count, err
}
