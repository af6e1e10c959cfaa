package service

import (
	"context"
	"io"
)

// Asset is a stored blob and the URL it can be fetched from.
type Asset struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// ProgressFunc receives the uploaded fraction in [0,1].
type ProgressFunc func(fraction float64)

type UploadInput struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
	OnProgress  ProgressFunc
}

// BlobStore is the client over hosted object storage.
type BlobStore interface {
	// Upload blocks until the blob is stored or the upload fails, reporting
	// progress through in.OnProgress when set.
	Upload(ctx context.Context, in UploadInput) (*Asset, error)
	Delete(ctx context.Context, key string) error
}
