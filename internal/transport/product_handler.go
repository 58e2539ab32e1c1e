package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
)

// CreateProductRequest represents the product creation payload. The slug is
// server-derived from the title and cannot be supplied.
type CreateProductRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description" validate:"required"`
	ImageURL    string  `json:"image" validate:"omitempty,url"`
	Price       float64 `json:"price" validate:"gte=0"`
	CategoryID  string  `json:"categoryId" validate:"omitempty,uuid"`
}

// UpdateProductRequest represents the product update payload
type UpdateProductRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description" validate:"required"`
	ImageURL    string  `json:"image" validate:"omitempty,url"`
	Price       float64 `json:"price" validate:"gte=0"`
	CategoryID  string  `json:"categoryId" validate:"omitempty,uuid"`
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes. Reads are open; writes
// require authentication and are authorized by the service layer.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, optionalAuth func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/", h.List)
			r.Get("/search", h.Search)
			r.Get("/{slug}", h.GetBySlug)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func parseCategoryID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product creation validation failed", zap.Error(err))
		respondDecodeError(w, err)
		return
	}

	categoryID, err := parseCategoryID(req.CategoryID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	product, err := h.productService.Create(r.Context(), middleware.GetCaller(r.Context()), service.CreateProductInput{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		CategoryID:  categoryID,
	})
	if err != nil {
		h.logger.Debug("Product creation failed", zap.Error(err))
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Product created successfully",
		zap.String("product_id", product.ID.String()),
		zap.String("slug", product.Slug),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// List returns a page of products, optionally filtered by category and sorted
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	categoryID, err := parseCategoryID(r.URL.Query().Get("category"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	sortBy := r.URL.Query().Get("sortBy")
	sortOrder := repository.SortOrder(r.URL.Query().Get("sortOrder"))

	products, total, err := h.productService.List(r.Context(), categoryID, page, pageSize, sortBy, sortOrder)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CollectionResponse{
		Items: products,
		Total: total,
		Page:  page,
	})
}

// Search returns products whose title or description matches the query
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	products, total, err := h.productService.Search(r.Context(), r.URL.Query().Get("q"), page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CollectionResponse{
		Items: products,
		Total: total,
		Page:  page,
	})
}

// GetBySlug returns a single product addressed by its slug
func (h *ProductHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Update handles product changes; the slug keeps its created value
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product update validation failed", zap.Error(err))
		respondDecodeError(w, err)
		return
	}

	categoryID, err := parseCategoryID(req.CategoryID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	product, err := h.productService.Update(r.Context(), middleware.GetCaller(r.Context()), id, service.UpdateProductInput{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		CategoryID:  categoryID,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Product updated successfully", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete removes a product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.productService.Delete(r.Context(), middleware.GetCaller(r.Context()), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Product deleted successfully", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
