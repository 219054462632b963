package models

import "time"

// NotificationType enumerates the notification kinds.
type NotificationType string

const NotificationCommentOnPost NotificationType = "comment_on_post"

// Notification represents a user notification (PostgreSQL). Rows are inserted by a database trigger.
type Notification struct {
	ID        string           `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    string           `json:"user_id" gorm:"type:uuid;index;not null"`
	ActorID   string           `json:"actor_id" gorm:"type:uuid;not null"`
	Type      NotificationType `json:"type" gorm:"size:30;not null"`
	PostID    *string          `json:"post_id" gorm:"type:uuid"`
	CommentID *string          `json:"comment_id" gorm:"type:uuid"`
	IsRead    bool             `json:"is_read" gorm:"default:false;index"`
	CreatedAt time.Time        `json:"created_at" gorm:"index"`
}

// NotificationPost is the post excerpt joined onto a notification.
type NotificationPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationComment is the comment excerpt joined onto a notification.
type NotificationComment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationWithMeta is a notification with its joined actor, post and comment.
type NotificationWithMeta struct {
	Notification Notification         `json:"notification"`
	Actor        *AuthorSummary       `json:"actor"`
	Post         *NotificationPost    `json:"post"`
	Comment      *NotificationComment `json:"comment"`
}
