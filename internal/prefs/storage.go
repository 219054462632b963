package prefs

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Storage is durable key/value storage scoped to one client, with localStorage semantics:
// a missing key reads as "", and failures are reported but never fatal to callers.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
}

// MemoryStorage keeps items in process. Used for anonymous sessions and tests.
type MemoryStorage struct {
	mu    sync.Mutex
	items map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (s *MemoryStorage) GetItem(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[key], nil
}

func (s *MemoryStorage) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

type prefsDocument struct {
	Owner     string            `bson:"_id"`
	Items     map[string]string `bson:"items"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

// MongoStorage stores one document per owner in the client_prefs collection.
type MongoStorage struct {
	collection *mongo.Collection
	owner      string
}

// NewMongoStorage returns the storage of owner.
func NewMongoStorage(db *mongo.Database, owner string) *MongoStorage {
	return &MongoStorage{collection: db.Collection("client_prefs"), owner: owner}
}

func (s *MongoStorage) GetItem(ctx context.Context, key string) (string, error) {
	var doc prefsDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": s.owner}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return doc.Items[key], nil
}

func (s *MongoStorage) SetItem(ctx context.Context, key, value string) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": s.owner},
		bson.M{"$set": bson.M{"items." + key: value, "updated_at": time.Now()}},
		options.Update().SetUpsert(true),
	)
	return err
}
