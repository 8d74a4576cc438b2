package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/lorahalle/storefront/storefront-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// CatalogHandler handles product catalog HTTP requests
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ProductListResponse represents a page of products
type ProductListResponse struct {
	Items  []*domain.Product `json:"items"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// SaveProductRequest represents the create or replace product request body
type SaveProductRequest struct {
	Name          string   `json:"name"`
	Price         int64    `json:"price"`
	OriginalPrice *int64   `json:"originalPrice,omitempty"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Collection    string   `json:"collection,omitempty"`
	Image         string   `json:"image"`
	Colors        []string `json:"colors,omitempty"`
	Trending      bool     `json:"trending,omitempty"`
	Features      []string `json:"features,omitempty"`
}

// ProductImageResponse represents the result of an image upload
type ProductImageResponse struct {
	Product *domain.Product        `json:"product"`
	Image   *service.ImageMetadata `json:"image"`
}

// ListProducts godoc
// @Summary List products
// @Tags catalog
// @Produce json
// @Param category query string false "Category"
// @Param collection query string false "Collection"
// @Param trending query bool false "Only trending products"
// @Param q query string false "Text search on name and description"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} ProductListResponse
// @Failure 400 {object} ProblemDetails
// @Router /products [get]
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	filter := domain.ProductFilter{
		Category:   c.QueryParam("category"),
		Collection: c.QueryParam("collection"),
		Query:      c.QueryParam("q"),
	}

	var fieldErrors []ValidationError
	if v := c.QueryParam("trending"); v != "" {
		trending, err := strconv.ParseBool(v)
		if err != nil {
			fieldErrors = append(fieldErrors, ValidationError{Field: "trending", Message: "Must be true or false"})
		}
		filter.TrendingOnly = trending
	}
	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			fieldErrors = append(fieldErrors, ValidationError{Field: "limit", Message: "Must be a non-negative integer"})
		}
		filter.Limit = limit
	}
	if v := c.QueryParam("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			fieldErrors = append(fieldErrors, ValidationError{Field: "offset", Message: "Must be a non-negative integer"})
		}
		filter.Offset = offset
	}
	if len(fieldErrors) > 0 {
		return NewValidationError(c, "Invalid query parameters", fieldErrors)
	}

	products, err := h.catalog.ListProducts(c.Request().Context(), filter)
	if err != nil {
		return writeError(c, err, "Failed to list products")
	}
	if products == nil {
		products = []*domain.Product{}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = service.DefaultProductPageSize
	}
	if limit > service.MaxProductPageSize {
		limit = service.MaxProductPageSize
	}
	return c.JSON(http.StatusOK, ProductListResponse{Items: products, Limit: limit, Offset: filter.Offset})
}

// GetProduct handles GET /api/v1/products/:id
func (h *CatalogHandler) GetProduct(c echo.Context) error {
	product, err := h.catalog.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err, "Failed to get product")
	}
	return c.JSON(http.StatusOK, product)
}

// SaveProduct godoc
// @Summary Create or replace a product
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body SaveProductRequest true "Product"
// @Success 200 {object} domain.Product
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Router /admin/products/{id} [put]
func (h *CatalogHandler) SaveProduct(c echo.Context) error {
	var req SaveProductRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	product, err := h.catalog.SaveProduct(c.Request().Context(), domain.Product{
		ID:            c.Param("id"),
		Name:          req.Name,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Description:   req.Description,
		Category:      req.Category,
		Collection:    req.Collection,
		Image:         req.Image,
		Colors:        req.Colors,
		Trending:      req.Trending,
		Features:      req.Features,
	})
	if err != nil {
		return writeError(c, err, "Failed to save product")
	}

	log.Info().Str("product_id", product.ID).Msg("Product saved")
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/admin/products/:id
func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	id := c.Param("id")
	if err := h.catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return writeError(c, err, "Failed to delete product")
	}

	log.Info().Str("product_id", id).Msg("Product deleted")
	return c.NoContent(http.StatusNoContent)
}

// UploadProductImage godoc
// @Summary Upload a product image
// @Description Renders display and thumbnail variants and points the product at the display variant
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Product ID"
// @Param file formData file true "JPEG, PNG or WebP image, at most 5MB"
// @Success 201 {object} ProductImageResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /admin/products/{id}/image [post]
func (h *CatalogHandler) UploadProductImage(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}
	if file.Size > service.MaxImageSize {
		return writeError(c, service.ErrImageTooLarge, "Failed to upload image")
	}

	contentType := file.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = service.GetContentType(file.Filename)
	}
	if !service.IsValidImageFormat(contentType) {
		return writeError(c, service.ErrInvalidFormat, "Failed to upload image")
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	// Read one byte past the limit so oversized bodies are still rejected
	data, err := io.ReadAll(io.LimitReader(src, service.MaxImageSize+1))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	product, meta, err := h.catalog.SetProductImage(c.Request().Context(), c.Param("id"), data, file.Filename)
	if err != nil {
		return writeError(c, err, "Failed to upload image")
	}

	log.Info().
		Str("product_id", product.ID).
		Str("image_id", meta.ID).
		Msg("Product image uploaded")

	return c.JSON(http.StatusCreated, ProductImageResponse{Product: product, Image: meta})
}
