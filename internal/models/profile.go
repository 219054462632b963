package models

import (
	"time"

	"github.com/lib/pq"
)

// Profile is the public face of a user. Its ID equals the auth user id.
type Profile struct {
	ID          string         `json:"id" gorm:"type:uuid;primaryKey"`
	Handle      string         `json:"handle" gorm:"uniqueIndex;not null"`
	DisplayName *string        `json:"display_name"`
	AvatarURL   *string        `json:"avatar_url"`
	Bio         *string        `json:"bio"`
	SocialLinks pq.StringArray `json:"social_links" gorm:"type:text[]"`
	IsAdmin     bool           `json:"is_admin" gorm:"default:false"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Summary returns the fields embedded in posts and comments.
func (p *Profile) Summary() AuthorSummary {
	return AuthorSummary{
		ID:          p.ID,
		Handle:      p.Handle,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
	}
}

// Medal is an achievement definition.
type Medal struct {
	ID          int64   `json:"id" gorm:"primaryKey"`
	Code        string  `json:"code" gorm:"uniqueIndex;not null"`
	Name        string  `json:"name" gorm:"not null"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Threshold   int     `json:"threshold"`
}

// UserMedal records one award. The same medal may be awarded several times.
type UserMedal struct {
	ID       int64     `json:"id" gorm:"primaryKey"`
	UserID   string    `json:"user_id" gorm:"type:uuid;index;not null"`
	MedalID  int64     `json:"medal_id" gorm:"index;not null"`
	EarnedAt time.Time `json:"earned_at" gorm:"autoCreateTime"`
}

// GroupedMedal is a distinct medal with the number of times it was earned.
type GroupedMedal struct {
	Medal Medal `json:"medal"`
	Count int   `json:"count"`
}

// ProfileStats are the counters shown on a profile page.
type ProfileStats struct {
	PostCount         int `json:"post_count"`
	CommentCount      int `json:"comment_count"`
	TotalCommentLikes int `json:"total_comment_likes"`
}

// ProfileData is everything the profile page needs.
type ProfileData struct {
	Profile     Profile        `json:"profile"`
	Medals      []GroupedMedal `json:"medals"`
	Stats       ProfileStats   `json:"stats"`
	RecentPosts []PostFeedItem `json:"recent_posts"`
}

// UpdateProfileParams holds optional changes. A nil field is left untouched.
type UpdateProfileParams struct {
	Handle      *string
	DisplayName *string
	Bio         *string
	AvatarURL   *string
	SocialLinks []string
}

// UpdateProfileRequest defines the request body for editing the signed-in profile
type UpdateProfileRequest struct {
	Handle      *string  `json:"handle" validate:"omitempty,handle"`
	DisplayName *string  `json:"display_name" validate:"omitempty,min=3,max=20"`
	Bio         *string  `json:"bio" validate:"omitempty,max=300"`
	SocialLinks []string `json:"social_links" validate:"omitempty,max=6,dive,max=300"`
}
