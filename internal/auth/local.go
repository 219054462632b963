package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/anonto42/feedback-loop/backend/internal/repositories"
	"golang.org/x/crypto/bcrypt"
)

// LocalProvider keeps accounts in the users table with bcrypt password hashes.
type LocalProvider struct {
	users repositories.UserRepository
}

func NewLocalProvider(users repositories.UserRepository) *LocalProvider {
	return &LocalProvider{users: users}
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	_, err := p.users.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, models.ClassifyConflict(errors.New("user already registered"))
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{Email: email, Password: string(hashed)}
	if err := p.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return &models.Identity{ID: user.ID, Email: user.Email}, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	user, err := p.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &models.Identity{ID: user.ID, Email: user.Email}, nil
}

// SignOut has nothing to revoke; sessions are dropped by the caller.
func (p *LocalProvider) SignOut(context.Context, string) error { return nil }

func (p *LocalProvider) GetUser(ctx context.Context, userID string) (*models.Identity, error) {
	user, err := p.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Identity{ID: user.ID, Email: user.Email}, nil
}
