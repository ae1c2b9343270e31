package repository

import (
	"context"
	"image"

	"go-image-augmentor/internal/storage"
	"go-image-augmentor/pkg/validation"
)

// ImageRepository loads source images addressed by URL
type ImageRepository interface {
	// FetchImage retrieves an image from a URL
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

// BlobSource is a fetcher bound to one storage account
type BlobSource interface {
	storage.ImageFetcher
	Handles(imageURL string) bool
}

type sourceRepository struct {
	http      storage.ImageFetcher
	blobs     BlobSource
	validator *validation.URLValidator
}

// NewImageRepository creates a repository fetching over HTTP, or from blob
// storage when blobs is non-nil and handles the URL
func NewImageRepository(http storage.ImageFetcher, blobs BlobSource, validator *validation.URLValidator) ImageRepository {
	if validator == nil {
		validator = validation.NewURLValidator()
	}
	return &sourceRepository{
		http:      http,
		blobs:     blobs,
		validator: validator,
	}
}

func (r *sourceRepository) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}
	if r.blobs != nil && r.blobs.Handles(imageURL) {
		return r.blobs.FetchImage(ctx, imageURL)
	}
	if r.http == nil {
		return nil, ErrRepositoryUnavailable
	}
	return r.http.FetchImage(ctx, imageURL)
}

func (r *sourceRepository) ValidateImageURL(imageURL string) error {
	return r.validator.ValidateImageURL(imageURL)
}
