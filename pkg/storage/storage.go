package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	BucketAvatars    = "avatars"
	BucketPostImages = "post-images"
)

// ObjectStore is the object storage used for avatars and post images.
type ObjectStore interface {
	// Upload stores data at bucket/objectPath. Without upsert an existing object is an error.
	Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string, upsert bool) error
	PublicURL(bucket, objectPath string) string
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PublicBaseURL prefixes object paths in public URLs, e.g. https://cdn.example.com
	PublicBaseURL string
}

// MinioStore is an ObjectStore on any S3 compatible server.
type MinioStore struct {
	cfg    Config
	client *minio.Client
}

func NewMinioStore(cfg Config) (*MinioStore, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	cl, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	if cfg.PublicBaseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		cfg.PublicBaseURL = scheme + "://" + endpoint
	}
	return &MinioStore{cfg: cfg, client: cl}, nil
}

// EnsureBuckets creates the app buckets when missing.
func (s *MinioStore) EnsureBuckets(ctx context.Context) error {
	for _, b := range []string{BucketAvatars, BucketPostImages} {
		exists, err := s.client.BucketExists(ctx, b)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := s.client.MakeBucket(ctx, b, minio.MakeBucketOptions{}); err != nil {
			return err
		}
		log.Printf("Created bucket %s", b)
	}
	return nil
}

func (s *MinioStore) Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string, upsert bool) error {
	if !upsert {
		_, err := s.client.StatObject(ctx, bucket, objectPath, minio.StatObjectOptions{})
		if err == nil {
			return fmt.Errorf("object %s/%s already exists", bucket, objectPath)
		}
		if minio.ToErrorResponse(err).Code != "NoSuchKey" {
			return err
		}
	}
	_, err := s.client.PutObject(ctx, bucket, objectPath,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (s *MinioStore) PublicURL(bucket, objectPath string) string {
	return strings.TrimSuffix(s.cfg.PublicBaseURL, "/") + "/" + path.Join(bucket, objectPath)
}

// Extension returns the extension of fileName without the dot, or "png" when it has none.
func Extension(fileName string) string {
	i := strings.LastIndex(fileName, ".")
	if i < 0 || i == len(fileName)-1 {
		return "png"
	}
	return fileName[i+1:]
}

// AvatarPath is <userID>/avatar-<unix ms>.<ext>.
func AvatarPath(userID string, unixMilli int64, fileName string) string {
	return fmt.Sprintf("%s/avatar-%d.%s", userID, unixMilli, Extension(fileName))
}

// PostImagePath is <userID>/<postID>/<random uuid>.<ext>.
func PostImagePath(userID, postID, fileName string) string {
	return fmt.Sprintf("%s/%s/%s.%s", userID, postID, uuid.NewString(), Extension(fileName))
}
