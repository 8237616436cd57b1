// Package objectstore reads session artifacts from S3-compatible storage.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrObjectNotFound = errors.New("objectstore: object not found") //nolint:gochecknoglobals // sentinel error

// ProjectPlaceholder in a bucket template is replaced by the project ID.
const ProjectPlaceholder = "{project}"

const maxObjectBytes = 256 << 20

type Config struct {
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string
	BucketTemplate string
	UseSSL         bool
}

// Store routes each project to its bucket and reads objects from it.
type Store struct {
	client         *minio.Client
	bucketTemplate string
}

func New(cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore.New: %w", err)
	}
	return &Store{client: client, bucketTemplate: cfg.BucketTemplate}, nil
}

// Bucket returns the bucket holding the project's artifacts.
func Bucket(template string, projectID uuid.UUID) string {
	return strings.ReplaceAll(template, ProjectPlaceholder, projectID.String())
}

func (s *Store) GetObject(ctx context.Context, projectID uuid.UUID, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, Bucket(s.bucketTemplate, projectID), key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("objectstore.Store.GetObject: %w", mapErr(err))
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, maxObjectBytes))
	if err != nil {
		return nil, fmt.Errorf("objectstore.Store.GetObject: %w", mapErr(err))
	}
	return data, nil
}

func (s *Store) HeadObjectSize(ctx context.Context, projectID uuid.UUID, key string) (int64, error) {
	info, err := s.client.StatObject(ctx, Bucket(s.bucketTemplate, projectID), key, minio.StatObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("objectstore.Store.HeadObjectSize: %w", mapErr(err))
	}
	return info.Size, nil
}

// SignedURL returns a presigned GET URL valid for ttl.
func (s *Store) SignedURL(ctx context.Context, projectID uuid.UUID, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, Bucket(s.bucketTemplate, projectID), key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("objectstore.Store.SignedURL: %w", mapErr(err))
	}
	return u.String(), nil
}

func mapErr(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
		return fmt.Errorf("%w: %w", ErrObjectNotFound, err)
	}
	return err
}
