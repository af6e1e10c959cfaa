package media_storage

import (
	"context"
	"fmt"
	"path"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/config"
	"github.com/khoahotran/portgen/pkg/apperror"
	"github.com/khoahotran/portgen/pkg/logger"
)

type cloudinaryAdapter struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger logger.Logger
}

func NewCloudinaryAdapter(cfg config.Config, log logger.Logger) (service.BlobStore, error) {
	if cfg.Cloudinary.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name has not config")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}

	log.Info("Connect Cloudinary successfully.")
	return &cloudinaryAdapter{cld: cld, folder: cfg.Blob.Folder, logger: log}, nil
}

// publicID is the blob key under the configured folder; Cloudinary wants ids
// without an extension.
func (a *cloudinaryAdapter) publicID(key string) string {
	if a.folder == "" {
		return key
	}
	return path.Join(a.folder, key)
}

func (a *cloudinaryAdapter) Upload(ctx context.Context, in service.UploadInput) (*service.Asset, error) {
	if in.Key == "" || in.Body == nil {
		return nil, apperror.NewInvalidInput("upload requires a key and a body", nil)
	}

	pr := newProgressReader(in.Body, in.Size, in.OnProgress)
	overwrite := true
	result, err := a.cld.Upload.Upload(ctx, pr, uploader.UploadParams{
		PublicID:  a.publicID(in.Key),
		Overwrite: &overwrite,
	})
	if err != nil {
		a.logger.Error("Cloudinary upload failed", err, zap.String("key", in.Key))
		return nil, apperror.NewTransient("failed to upload asset", err)
	}
	if result.Error.Message != "" {
		a.logger.Error("Cloudinary rejected upload", nil, zap.String("key", in.Key), zap.String("reason", result.Error.Message))
		return nil, apperror.NewTransient("failed to upload asset: "+result.Error.Message, nil)
	}
	pr.done()

	return &service.Asset{URL: result.SecureURL, Key: in.Key}, nil
}

func (a *cloudinaryAdapter) Delete(ctx context.Context, key string) error {
	res, err := a.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: a.publicID(key),
	})
	if err != nil {
		a.logger.Error("Cloudinary delete failed", err, zap.String("key", key))
		return apperror.NewTransient("failed to delete asset", err)
	}
	if res != nil && res.Result == "not found" {
		return apperror.NewNotFound("asset", key)
	}
	return nil
}
