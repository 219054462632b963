package firebase

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"github.com/anonto42/feedback-loop/backend/internal/auth"
	"google.golang.org/api/option"
)

// NewAuthProvider initializes the Admin SDK from a service account file and returns a provider
// that signs users in through the Identity Toolkit REST API with apiKey.
func NewAuthProvider(ctx context.Context, credentialsPath, apiKey string) (*auth.FirebaseProvider, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials file not usable at %s: %w", credentialsPath, err)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	provider, err := auth.NewFirebaseProvider(ctx, client, apiKey)
	if err != nil {
		return nil, err
	}
	log.Println("Firebase auth provider initialized.")
	return provider, nil
}
