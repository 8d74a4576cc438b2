package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lorahalle/storefront/storefront-backend/internal/repository/storage"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

const (
	MaxImageSize   = 5 * 1024 * 1024 // 5MB
	MinImageWidth  = 50
	MinImageHeight = 50
	ThumbnailWidth = 400
	DisplayWidth   = 1600
	JPEGQuality    = 85
)

var (
	ErrImageTooLarge             = errors.New("file too large. Maximum size is 5MB")
	ErrInvalidFormat             = errors.New("invalid format. Supported: JPEG, PNG, WebP")
	ErrImageTooSmall             = errors.New("image too small. Minimum 50x50 pixels")
	ErrInvalidImageData          = errors.New("invalid image data")
	ErrImageStorageNotConfigured = errors.New("image storage not configured")
)

// AllowedImageFormats contains the supported image MIME types
var AllowedImageFormats = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// AllowedExtensions maps extensions to content types
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// imageVariants are rendered for every product image, largest first
var imageVariants = []struct {
	name     string
	maxWidth int
}{
	{"display", DisplayWidth},
	{"thumb", ThumbnailWidth},
}

// ImageMetadata contains URLs for different image sizes
type ImageMetadata struct {
	ID           string `json:"id"`
	ThumbnailURL string `json:"thumbnailUrl"`
	DisplayURL   string `json:"displayUrl"`
}

// ImageService handles product image processing and storage
type ImageService struct {
	storage storage.ImageRepository
}

// NewImageService creates a new ImageService
func NewImageService(storage storage.ImageRepository) *ImageService {
	return &ImageService{storage: storage}
}

// IsEnabled indicates whether uploads/deletes are supported (storage configured).
func (s *ImageService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// ValidateImage validates image format and size
func (s *ImageService) ValidateImage(data []byte, filename string) error {
	_, err := s.validateAndDecode(data, filename)
	return err
}

func (s *ImageService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedExtensions[ext]; !ok {
		return nil, ErrInvalidFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImageData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinImageWidth || bounds.Dy() < MinImageHeight {
		return nil, ErrImageTooSmall
	}

	return img, nil
}

// ProcessAndUpload renders the display and thumbnail variants of a product
// image and uploads both. A failed upload removes the variants already stored.
func (s *ImageService) ProcessAndUpload(ctx context.Context, productID string, data []byte, filename string) (*ImageMetadata, error) {
	if !s.IsEnabled() {
		return nil, ErrImageStorageNotConfigured
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	imageID := storage.NewImageID()
	uploaded := make(map[string]string)

	for _, variant := range imageVariants {
		processed := img
		if img.Bounds().Dx() > variant.maxWidth {
			processed = imaging.Resize(img, variant.maxWidth, 0, imaging.Lanczos)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}

		objectPath := storage.GenerateObjectPath(productID, imageID, variant.name, ".jpg")
		url, err := s.storage.Upload(ctx, objectPath, buf.Bytes(), "image/jpeg")
		if err != nil {
			s.cleanupVariants(ctx, uploaded)
			return nil, fmt.Errorf("failed to upload %s variant: %w", variant.name, err)
		}
		uploaded[objectPath] = url
	}

	return &ImageMetadata{
		ID:           imageID,
		ThumbnailURL: s.storage.GenerateURL(storage.GenerateObjectPath(productID, imageID, "thumb", ".jpg")),
		DisplayURL:   s.storage.GenerateURL(storage.GenerateObjectPath(productID, imageID, "display", ".jpg")),
	}, nil
}

func (s *ImageService) cleanupVariants(ctx context.Context, uploaded map[string]string) {
	for objectPath := range uploaded {
		if err := s.storage.Delete(ctx, objectPath); err != nil {
			log.Warn().Err(err).Str("object", objectPath).Msg("Failed to clean up image variant")
		}
	}
}

// DeleteAllVariants deletes every variant of the image behind imageURL.
// URLs not pointing into the configured storage are ignored.
func (s *ImageService) DeleteAllVariants(ctx context.Context, imageURL string) error {
	if imageURL == "" {
		return nil
	}
	if !s.IsEnabled() {
		return ErrImageStorageNotConfigured
	}

	objectPath := s.objectPath(imageURL)
	basePath := extractBasePath(objectPath)
	if basePath == "" {
		return nil
	}

	for _, variant := range imageVariants {
		variantPath := basePath + "_" + variant.name + ".jpg"
		if err := s.storage.Delete(ctx, variantPath); err != nil {
			log.Warn().Err(err).Str("object", variantPath).Msg("Failed to delete image variant")
		}
	}
	return nil
}

// objectPath strips the storage URL prefix, returning "" for foreign URLs
func (s *ImageService) objectPath(imageURL string) string {
	prefix := s.storage.GenerateURL("")
	if !strings.HasPrefix(imageURL, prefix) {
		return ""
	}
	return strings.TrimPrefix(imageURL, prefix)
}

// extractBasePath removes the variant suffix from an object path
func extractBasePath(objectPath string) string {
	for _, variant := range imageVariants {
		suffix := "_" + variant.name + ".jpg"
		if strings.HasSuffix(objectPath, suffix) {
			return strings.TrimSuffix(objectPath, suffix)
		}
	}
	return ""
}

// GetContentType returns the content type for a file extension
func GetContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := AllowedExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// IsValidImageFormat checks if a content type is a valid image format
func IsValidImageFormat(contentType string) bool {
	return AllowedImageFormats[contentType]
}
