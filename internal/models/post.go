package models

import "time"

// SortMode selects the feed ordering.
type SortMode string

const (
	SortNewest  SortMode = "newest"
	SortExplore SortMode = "explore"
)

// Valid reports whether s is a known sort mode.
func (s SortMode) Valid() bool {
	return s == SortNewest || s == SortExplore
}

// Post represents a post row in PostgreSQL. Deleted posts keep their row with IsDeleted set.
type Post struct {
	ID           string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AuthorID     string     `json:"author_id" gorm:"type:uuid;index;not null"`
	Title        string     `json:"title" gorm:"not null"`
	Body         *string    `json:"body"`
	ExploreScore *float64   `json:"explore_score" gorm:"index"`
	IsDeleted    bool       `json:"is_deleted" gorm:"default:false;index"`
	CommentCount int        `json:"-" gorm:"default:0"`
	CreatedAt    time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt    *time.Time `json:"updated_at" gorm:"autoUpdateTime:false"`
}

// PostImage is one ordered image of a post.
type PostImage struct {
	ID        string `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PostID    string `json:"post_id" gorm:"type:uuid;index;not null"`
	ImageURL  string `json:"image_url" gorm:"not null"`
	SortOrder int    `json:"sort_order" gorm:"default:0"`
}

// Tag is an entry of the tag catalog.
type Tag struct {
	ID   int64  `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

// PostTag links a post to a tag.
type PostTag struct {
	PostID string `json:"post_id" gorm:"type:uuid;primaryKey"`
	TagID  int64  `json:"tag_id" gorm:"primaryKey;index"`
}

// PostFilter is the feed filter sent with every feed fetch.
type PostFilter struct {
	Sort        SortMode `json:"sort"`
	Tags        []string `json:"tags"`
	SearchQuery string   `json:"search_query"`
}

// PostStats are the counters shown next to a post.
type PostStats struct {
	CommentCount      int `json:"comment_count"`
	TotalCommentLikes int `json:"total_comment_likes"`
}

// AuthorSummary is the subset of a profile embedded in posts, comments and notifications.
type AuthorSummary struct {
	ID          string  `json:"id"`
	Handle      string  `json:"handle"`
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Bio         *string `json:"bio,omitempty"`
}

// PostFeedItem is a post as displayed in a feed.
type PostFeedItem struct {
	Post   Post          `json:"post"`
	Author AuthorSummary `json:"author"`
	Images []PostImage   `json:"images"`
	Tags   []Tag         `json:"tags"`
	Stats  PostStats     `json:"stats"`
}

// PostDetail is a single post with its author bio. Comments are fetched separately.
type PostDetail struct {
	Post     Post              `json:"post"`
	Author   AuthorSummary     `json:"author"`
	Images   []PostImage       `json:"images"`
	Tags     []Tag             `json:"tags"`
	Stats    PostStats         `json:"stats"`
	Comments []CommentWithMeta `json:"comments"`
}

// ImageUpload is one file attached to a new post.
type ImageUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// CreatePostParams carries everything needed to publish a post.
type CreatePostParams struct {
	Title  string
	Body   *string
	TagIDs []int64
	Files  []ImageUpload
}

// CreatedPost is the result of a successful publish.
type CreatedPost struct {
	Post      Post     `json:"post"`
	ImageURLs []string `json:"image_urls"`
}

// CreatePostRequest defines the form fields for creating a new post
type CreatePostRequest struct {
	Title  string  `json:"title" form:"title" validate:"required,min=1,max=30"`
	Body   string  `json:"body" form:"body" validate:"required,max=200"`
	TagIDs []int64 `json:"tag_ids" form:"tag_ids" validate:"min=1,max=3,dive,gt=0"`
}
