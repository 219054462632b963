package repositories

import (
	"context"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRow is a notification with actor, post and comment rendered as JSON text.
type NotificationRow struct {
	ID        string
	UserID    string
	ActorID   string
	Type      models.NotificationType
	PostID    *string
	CommentID *string
	IsRead    bool
	CreatedAt time.Time
	Actor     *string
	Post      *string
	Comment   *string
}

func (r *NotificationRow) Notification() models.Notification {
	return models.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		ActorID:   r.ActorID,
		Type:      r.Type,
		PostID:    r.PostID,
		CommentID: r.CommentID,
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt,
	}
}

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]NotificationRow, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, userID, notificationID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) ListForUser(ctx context.Context, userID string, limit, offset int) ([]NotificationRow, error) {
	var rows []NotificationRow
	err := r.db.WithContext(ctx).
		Table("notifications AS n").
		Select(`n.id, n.user_id, n.actor_id, n.type, n.post_id, n.comment_id, n.is_read, n.created_at,
			(SELECT row_to_json(a)::text FROM
				(SELECT pr.id, pr.handle, pr.display_name, pr.avatar_url FROM profiles pr WHERE pr.id = n.actor_id) a) AS actor,
			(SELECT row_to_json(p)::text FROM
				(SELECT po.id, po.title, po.created_at FROM posts po WHERE po.id = n.post_id) p) AS post,
			(SELECT row_to_json(c)::text FROM
				(SELECT co.id, co.post_id, co.body, co.created_at FROM comments co WHERE co.id = n.comment_id) c) AS comment`).
		Where("n.user_id = ?", userID).
		Order("n.created_at DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	return rows, err
}

func (r *postgresNotificationRepository) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true).Error
}

func (r *postgresNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Update("is_read", true).Error
}
