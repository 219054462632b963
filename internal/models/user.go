package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is an account of the local auth provider.
type User struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-"` // bcrypt hash
	CreatedAt time.Time `json:"created_at"`
}

// Identity is the authenticated user as seen by the rest of the app.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,nospace"`
	Handle      string `json:"handle" validate:"required,handle"`
	DisplayName string `json:"display_name" validate:"omitempty,min=3,max=20"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
