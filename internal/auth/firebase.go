package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// FirebaseProvider manages accounts through the Firebase Admin SDK. Password checks go through
// the Identity Toolkit API, which the Admin SDK does not expose.
type FirebaseProvider struct {
	client  *fbauth.Client
	toolkit *identitytoolkit.Service
}

func NewFirebaseProvider(ctx context.Context, client *fbauth.Client, apiKey string) (*FirebaseProvider, error) {
	if apiKey == "" {
		return nil, errors.New("firebase api key not provided")
	}
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("error creating identity toolkit client: %w", err)
	}
	return &FirebaseProvider{client: client, toolkit: svc}, nil
}

func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	// Profiles key on uuid, so the account gets one as its UID.
	params := (&fbauth.UserToCreate{}).
		UID(uuid.NewString()).
		Email(strings.TrimSpace(email)).
		Password(password)
	u, err := p.client.CreateUser(ctx, params)
	if err != nil {
		if fbauth.IsEmailAlreadyExists(err) {
			return nil, models.ClassifyConflict(fmt.Errorf("email_exists: %w", err))
		}
		return nil, err
	}
	return &models.Identity{ID: u.UID, Email: u.Email}, nil
}

func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	resp, err := p.toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             strings.TrimSpace(email),
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return &models.Identity{ID: resp.LocalId, Email: resp.Email}, nil
}

// SignOut revokes the user's refresh tokens.
func (p *FirebaseProvider) SignOut(ctx context.Context, userID string) error {
	return p.client.RevokeRefreshTokens(ctx, userID)
}

func (p *FirebaseProvider) GetUser(ctx context.Context, userID string) (*models.Identity, error) {
	u, err := p.client.GetUser(ctx, userID)
	if err != nil {
		if fbauth.IsUserNotFound(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &models.Identity{ID: u.UID, Email: u.Email}, nil
}
