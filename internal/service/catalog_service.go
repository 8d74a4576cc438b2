package service

import (
	"context"
	"errors"
	"strings"

	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultProductPageSize = 50
	MaxProductPageSize     = 100
)

// CatalogService handles product catalog business logic
type CatalogService struct {
	productRepo domain.ProductRepository
	images      *ImageService
}

// NewCatalogService creates a new CatalogService. images may be nil when
// uploads are not configured.
func NewCatalogService(productRepo domain.ProductRepository, images *ImageService) *CatalogService {
	return &CatalogService{productRepo: productRepo, images: images}
}

// ListProducts returns products matching filter, one page at a time
func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Collection = strings.TrimSpace(filter.Collection)
	filter.Query = strings.TrimSpace(filter.Query)
	if filter.Limit <= 0 {
		filter.Limit = DefaultProductPageSize
	}
	if filter.Limit > MaxProductPageSize {
		filter.Limit = MaxProductPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.productRepo.List(ctx, filter)
}

// GetProduct retrieves a product by id
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrProductIDEmpty
	}
	return s.productRepo.GetByID(ctx, id)
}

// SaveProduct validates and creates or replaces a product
func (s *CatalogService) SaveProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	product.ID = strings.TrimSpace(product.ID)
	product.Name = strings.TrimSpace(product.Name)
	product.Category = strings.TrimSpace(product.Category)
	product.Collection = strings.TrimSpace(product.Collection)
	if err := product.Validate(); err != nil {
		return nil, err
	}
	return s.productRepo.Upsert(ctx, &product)
}

// DeleteProduct removes a product and, best effort, its stored image
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, product.ID); err != nil {
		return err
	}
	if s.images.IsEnabled() {
		if err := s.images.DeleteAllVariants(ctx, product.Image); err != nil {
			log.Warn().Err(err).Str("product_id", product.ID).Msg("Failed to delete product image")
		}
	}
	return nil
}

// SetProductImage uploads a new image for a product and points the product
// at its display variant. The previous image is removed afterwards.
func (s *CatalogService) SetProductImage(ctx context.Context, id string, data []byte, filename string) (*domain.Product, *ImageMetadata, error) {
	if !s.images.IsEnabled() {
		return nil, nil, ErrImageStorageNotConfigured
	}
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	meta, err := s.images.ProcessAndUpload(ctx, product.ID, data, filename)
	if err != nil {
		return nil, nil, err
	}

	previous := product.Image
	product.Image = meta.DisplayURL
	updated, err := s.productRepo.Upsert(ctx, product)
	if err != nil {
		if cleanupErr := s.images.DeleteAllVariants(ctx, meta.DisplayURL); cleanupErr != nil {
			log.Warn().Err(cleanupErr).Str("product_id", product.ID).Msg("Failed to clean up uploaded image")
		}
		return nil, nil, err
	}

	if err := s.images.DeleteAllVariants(ctx, previous); err != nil && !errors.Is(err, ErrImageStorageNotConfigured) {
		log.Warn().Err(err).Str("product_id", product.ID).Msg("Failed to delete previous product image")
	}
	return updated, meta, nil
}
