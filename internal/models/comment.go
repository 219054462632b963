package models

import "time"

// Comment represents a comment on a post
type Comment struct {
	ID        string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PostID    string     `json:"post_id" gorm:"type:uuid;index;not null"`
	AuthorID  string     `json:"author_id" gorm:"type:uuid;index;not null"`
	Body      string     `json:"body" gorm:"not null"`
	IsDeleted bool       `json:"is_deleted" gorm:"default:false;index"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt *time.Time `json:"updated_at" gorm:"autoUpdateTime:false"`
}

// ReactionValue is a like (+1) or a dislike (-1).
type ReactionValue int16

const (
	ReactionLike    ReactionValue = 1
	ReactionDislike ReactionValue = -1
)

func (v ReactionValue) Valid() bool {
	return v == ReactionLike || v == ReactionDislike
}

// CommentReaction is a user's single reaction on a comment. The composite key keeps at most one row per pair.
type CommentReaction struct {
	UserID    string        `json:"user_id" gorm:"type:uuid;primaryKey"`
	CommentID string        `json:"comment_id" gorm:"type:uuid;primaryKey;index"`
	Reaction  ReactionValue `json:"reaction" gorm:"type:smallint;not null"`
	CreatedAt time.Time     `json:"created_at"`
}

// CommentReactionsSummary aggregates reactions for one comment from the viewer's point of view.
type CommentReactionsSummary struct {
	LikeCount      int            `json:"like_count"`
	DislikeCount   int            `json:"dislike_count"`
	ViewerReaction *ReactionValue `json:"viewer_reaction"`
}

// Score is likes minus dislikes.
func (s CommentReactionsSummary) Score() int {
	return s.LikeCount - s.DislikeCount
}

// CommentWithMeta is a comment as displayed under a post.
type CommentWithMeta struct {
	Comment   Comment                 `json:"comment"`
	Author    AuthorSummary           `json:"author"`
	Medals    []Medal                 `json:"medals"`
	Reactions CommentReactionsSummary `json:"reactions"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
}

// SetReactionRequest defines the request body for reacting to a comment
type SetReactionRequest struct {
	PostID   string `json:"post_id" validate:"required"`
	Reaction int    `json:"reaction" validate:"oneof=1 -1"`
}
