package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/observability"
)

const (
	MaxAvatarSize    = 5 * 1024 * 1024
	presignedURLTTL  = 15 * time.Minute
	avatarPathPrefix = "avatars"
	sniffLen         = 512
)

var (
	ErrFileTooBig           = errors.New("file size exceeds 5MB limit")
	ErrInvalidFileType      = errors.New("invalid file type, only JPEG and PNG images are allowed")
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")
	ErrUploadFailed         = errors.New("failed to upload file")
	ErrDeleteFailed         = errors.New("failed to delete file")
	ErrURLGenerationFailed  = errors.New("failed to generate presigned URL")
	ErrUnauthorizedAccess   = errors.New("unauthorized access to resource")

	avatarExtensions = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
	}
)

// StorageService stores user avatars. Object keys are namespaced by user id
// and every mutation checks that namespace.
type StorageService interface {
	UploadAvatar(ctx context.Context, userID string, file io.Reader, size int64) (string, error)
	DeleteAvatar(ctx context.Context, userID, objectKey string) error
	GenerateAvatarURL(ctx context.Context, objectKey string) (string, error)
}

type MinIOStorageService struct {
	client   *minio.Client
	bucket   string
	initOnce sync.Once
	initErr  error
}

var _ StorageService = (*MinIOStorageService)(nil)

// NewMinIOStorageService builds the client only; the bucket is created on
// first use.
func NewMinIOStorageService(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinIOStorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOStorageService{client: client, bucket: bucket}, nil
}

func (s *MinIOStorageService) lazyInit(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.ensureBucket(ctx)
	})
	return s.initErr
}

func (s *MinIOStorageService) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%w: check bucket: %v", ErrBucketCreationFailed, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("%w: make bucket: %v", ErrBucketCreationFailed, err)
	}
	return nil
}

func avatarPrefix(userID string) string {
	return fmt.Sprintf("%s/user-%s/", avatarPathPrefix, userID)
}

// sniffAvatar reads the leading bytes and returns the detected image type
// together with a reader that replays them.
func sniffAvatar(file io.Reader) (string, io.Reader, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, fmt.Errorf("%w: read for content detection: %v", ErrUploadFailed, err)
	}
	buf = buf[:n]
	detected := strings.ToLower(http.DetectContentType(buf))
	if _, ok := avatarExtensions[detected]; !ok {
		return "", nil, ErrInvalidFileType
	}
	return detected, io.MultiReader(bytes.NewReader(buf), file), nil
}

// UploadAvatar validates size and sniffed content type before touching the
// bucket. The client-declared content type is ignored.
func (s *MinIOStorageService) UploadAvatar(ctx context.Context, userID string, file io.Reader, size int64) (string, error) {
	if size > MaxAvatarSize {
		observability.RecordAvatarStorageEvent(ctx, "upload", "too_large")
		return "", ErrFileTooBig
	}
	contentType, body, err := sniffAvatar(file)
	if err != nil {
		observability.RecordAvatarStorageEvent(ctx, "upload", "rejected")
		return "", err
	}
	if err := s.lazyInit(ctx); err != nil {
		observability.RecordAvatarStorageEvent(ctx, "upload", "error")
		return "", err
	}

	key := avatarPrefix(userID) + uuid.NewString() + avatarExtensions[contentType]
	_, err = s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"User-ID":     userID,
			"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		observability.RecordAvatarStorageEvent(ctx, "upload", "error")
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	observability.RecordAvatarStorageEvent(ctx, "upload", "success")
	return key, nil
}

func (s *MinIOStorageService) DeleteAvatar(ctx context.Context, userID, objectKey string) error {
	if strings.TrimSpace(objectKey) == "" {
		return nil
	}
	if strings.Contains(objectKey, "..") || !strings.HasPrefix(objectKey, avatarPrefix(userID)) {
		observability.RecordAvatarStorageEvent(ctx, "delete", "rejected")
		return ErrUnauthorizedAccess
	}
	if err := s.lazyInit(ctx); err != nil {
		observability.RecordAvatarStorageEvent(ctx, "delete", "error")
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		observability.RecordAvatarStorageEvent(ctx, "delete", "error")
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	observability.RecordAvatarStorageEvent(ctx, "delete", "success")
	return nil
}

func (s *MinIOStorageService) GenerateAvatarURL(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", fmt.Errorf("%w: empty object key", ErrURLGenerationFailed)
	}
	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, presignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrURLGenerationFailed, err)
	}
	return u.String(), nil
}
