package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/auth"
	"github.com/anonto42/feedback-loop/backend/internal/comments"
	"github.com/anonto42/feedback-loop/backend/internal/feed"
	"github.com/anonto42/feedback-loop/backend/internal/gateway"
	"github.com/anonto42/feedback-loop/backend/internal/handlers"
	"github.com/anonto42/feedback-loop/backend/internal/notifications"
	"github.com/anonto42/feedback-loop/backend/internal/prefs"
	"github.com/anonto42/feedback-loop/backend/internal/profiles"
	"github.com/anonto42/feedback-loop/backend/internal/query"
	"github.com/anonto42/feedback-loop/backend/internal/realtime"
	"github.com/anonto42/feedback-loop/backend/internal/repositories"
	"github.com/anonto42/feedback-loop/backend/internal/router"
	"github.com/anonto42/feedback-loop/backend/internal/session"
	"github.com/anonto42/feedback-loop/backend/pkg/config"
	"github.com/anonto42/feedback-loop/backend/pkg/firebase"
	"github.com/anonto42/feedback-loop/backend/pkg/storage"
	"github.com/anonto42/feedback-loop/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const sessionIdleTimeout = 24 * time.Hour

func main() {
	// Load configuration
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	store, err := storage.NewMinioStore(storage.Config{
		Endpoint:      cfg.MinioEndpoint,
		AccessKey:     cfg.MinioAccessKey,
		SecretKey:     cfg.MinioSecretKey,
		UseSSL:        cfg.MinioUseSSL,
		PublicBaseURL: cfg.StoragePublicURL,
	})
	if err != nil {
		log.Fatalf("Failed to create object store client: %v", err)
	}
	if err := store.EnsureBuckets(ctx); err != nil {
		log.Fatalf("Failed to prepare storage buckets: %v", err)
	}

	gw := gateway.New(gateway.Deps{
		Posts:         repositories.NewPostgresPostRepository(db.Postgres),
		Comments:      repositories.NewPostgresCommentRepository(db.Postgres),
		Reactions:     repositories.NewPostgresReactionRepository(db.Postgres),
		Medals:        repositories.NewPostgresMedalRepository(db.Postgres),
		Notifications: repositories.NewPostgresNotificationRepository(db.Postgres),
		Profiles:      repositories.NewPostgresProfileRepository(db.Postgres),
		Tags:          repositories.NewPostgresTagRepository(db.Postgres),
		Procedures:    repositories.NewPostgresProcedures(db.Postgres),
		Store:         store,
	})

	// Query cache, its metrics and cross-instance invalidation
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cache := query.NewClient(query.Config{FetchTimeout: cfg.FetchTimeout})
	cache.Subscribe(query.NewMetrics(registry).Observe)
	go cache.RunJanitor(ctx, time.Minute)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		go func() {
			if err := query.Bridge(ctx, cache, query.NewRedisBus(rdb, "query-invalidations")); err != nil {
				log.Printf("Query invalidation bus stopped: %v", err)
			}
		}()
		log.Printf("Query invalidations shared over Redis at %s", cfg.RedisAddr)
	}

	provider, err := newAuthProvider(ctx, cfg, db.Postgres)
	if err != nil {
		log.Fatalf("Failed to initialize auth provider: %v", err)
	}
	tokens := auth.NewTokens(cfg.JWTSecret, auth.TokenTTL)

	feedService := feed.NewService(gw, cache)
	commentService := comments.NewService(gw, cache)
	notificationService := notifications.NewService(gw, cache)
	profileService := profiles.NewService(gw, cache, cfg.SessionStaleTime)

	prefsDB := db.Mongo.Database(cfg.MongoDB)
	sessions := session.NewManager(session.Config{
		Provider:      provider,
		Tokens:        tokens,
		Profiles:      gw,
		Cache:         cache,
		Notifications: notificationService,
		Feed:          realtime.NewPGFeed(cfg.PostgresConnStr),
		Debounce:      cfg.RealtimeDebounce,
		Storage: func(userID string) prefs.Storage {
			return prefs.NewMongoStorage(prefsDB, userID)
		},
	})
	defer sessions.Close()
	go sessions.RunJanitor(ctx, 10*time.Minute, sessionIdleTimeout)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e)

	router.SetupRoutes(e, router.Handlers{
		Health: handlers.NewHealthHandler(map[string]handlers.Check{
			"postgres": db.PingPostgres,
			"mongo":    db.PingMongo,
		}),
		Auth:          handlers.NewAuthHandler(sessions, profileService),
		Posts:         handlers.NewPostHandler(feedService),
		Comments:      handlers.NewCommentHandler(commentService),
		Notifications: handlers.NewNotificationHandler(notificationService, 0),
		Profiles:      handlers.NewProfileHandler(profileService),
		Explore:       handlers.NewExploreHandler(feedService),
		Welcome:       handlers.NewWelcomeHandler(),
	}, tokens, sessions, registry)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Printf("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
}

func newAuthProvider(ctx context.Context, cfg *config.Config, pg *gorm.DB) (auth.Provider, error) {
	switch cfg.AuthProvider {
	case "firebase":
		return firebase.NewAuthProvider(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseAPIKey)
	default:
		log.Println("Using local email/password auth provider.")
		return auth.NewLocalProvider(repositories.NewPostgresUserRepository(pg)), nil
	}
}
