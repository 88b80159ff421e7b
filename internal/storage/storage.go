package storage

import (
	"context"

	"catalog-api/internal/domain"
)

// File is an in-memory image file received from a multipart request.
type File struct {
	Name string
	Data []byte
}

// Service stores product images on the media host and removes them again by
// public id. Batch uploads are all-or-nothing: on failure no uploaded object
// may be treated as authoritative by the caller.
type Service interface {
	Upload(ctx context.Context, file File, folder, publicID string) (domain.UploadedImage, error)
	UploadBatch(ctx context.Context, files []File, folder string) ([]domain.UploadedImage, error)
	Delete(ctx context.Context, publicID string) bool
}
