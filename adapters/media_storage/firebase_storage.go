package media_storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/pkg/apperror"
	"github.com/khoahotran/portgen/pkg/logger"
)

const downloadTokenKey = "firebaseStorageDownloadTokens"

type firebaseStorage struct {
	bucket     *gcs.BucketHandle
	bucketName string
	logger     logger.Logger
}

// NewFirebaseStorage stores blobs in the project's storage bucket and hands
// back token URLs in the same form the Firebase web SDK resolves.
func NewFirebaseStorage(bucket *gcs.BucketHandle, bucketName string, log logger.Logger) service.BlobStore {
	return &firebaseStorage{bucket: bucket, bucketName: bucketName, logger: log}
}

func (s *firebaseStorage) Upload(ctx context.Context, in service.UploadInput) (*service.Asset, error) {
	if in.Key == "" || in.Body == nil {
		return nil, apperror.NewInvalidInput("upload requires a key and a body", nil)
	}

	token := uuid.NewString()
	w := s.bucket.Object(in.Key).NewWriter(ctx)
	w.ContentType = in.ContentType
	w.Metadata = map[string]string{downloadTokenKey: token}

	pr := newProgressReader(in.Body, in.Size, in.OnProgress)
	if _, err := io.Copy(w, pr); err != nil {
		_ = w.Close()
		s.logger.Error("Firebase storage write failed", err, zap.String("key", in.Key))
		return nil, apperror.NewTransient("failed to upload asset", err)
	}
	if err := w.Close(); err != nil {
		s.logger.Error("Firebase storage commit failed", err, zap.String("key", in.Key))
		return nil, apperror.NewTransient("failed to upload asset", err)
	}
	pr.done()

	return &service.Asset{URL: s.downloadURL(in.Key, token), Key: in.Key}, nil
}

func (s *firebaseStorage) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(key).Delete(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return apperror.NewNotFound("asset", key)
		}
		s.logger.Error("Firebase storage delete failed", err, zap.String("key", key))
		return apperror.NewTransient("failed to delete asset", err)
	}
	return nil
}

func (s *firebaseStorage) downloadURL(key, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		s.bucketName, url.PathEscape(key), token)
}
