package config

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"time"

	"github.com/anonto42/feedback-loop/backend/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

//go:embed schema.sql
var schemaSQL string

// DB holds the database connections
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
}

// InitDB initializes and returns the database connections
func InitDB(cfg *Config) (*DB, error) {
	if cfg.PostgresConnStr == "" {
		return nil, fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
	}
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable not set")
	}

	postgresDB, err := initPostgres(cfg.PostgresConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	mongoClient, err := initMongo(cfg.MongoURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	db := &DB{Postgres: postgresDB, Mongo: mongoClient}
	if cfg.AutoMigrate {
		if err := db.Migrate(); err != nil {
			db.CloseDB()
			return nil, err
		}
	}
	return db, nil
}

// Migrate creates the tables and installs the server-side functions and triggers.
func (db *DB) Migrate() error {
	err := db.Postgres.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Post{},
		&models.PostImage{},
		&models.Tag{},
		&models.PostTag{},
		&models.Comment{},
		&models.CommentReaction{},
		&models.Medal{},
		&models.UserMedal{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	if err := db.Postgres.Exec(schemaSQL).Error; err != nil {
		return fmt.Errorf("failed to install schema functions: %w", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")
	return nil
}

// initPostgres initializes the PostgreSQL database connection using GORM
func initPostgres(connStr string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to PostgreSQL!")
	return db, nil
}

// initMongo initializes the MongoDB connection
func initMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to MongoDB!")
	return client, nil
}

// PingPostgres is a health check for the relational store.
func (db *DB) PingPostgres(ctx context.Context) error {
	sqlDB, err := db.Postgres.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// PingMongo is a health check for the preference store.
func (db *DB) PingMongo(ctx context.Context) error {
	return db.Mongo.Ping(ctx, nil)
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err != nil {
			log.Printf("Error getting SQL DB from GORM: %v\n", err)
		} else if err := sqlDB.Close(); err != nil {
			log.Printf("Error closing PostgreSQL connection: %v\n", err)
		} else {
			log.Println("PostgreSQL connection closed.")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			log.Printf("Error closing MongoDB connection: %v\n", err)
		} else {
			log.Println("MongoDB connection closed.")
		}
	}
}
