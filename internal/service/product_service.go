package service

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain"
	"storefront/internal/policy"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

var ErrUnknownCategory = errors.New("referenced category does not exist")

// CreateProductInput carries the client-settable product fields. Slug,
// owner and creation time are server-derived and have no input field.
type CreateProductInput struct {
	Title       string
	Description string
	ImageURL    string
	Price       float64
	CategoryID  *uuid.UUID
}

// UpdateProductInput carries the mutable product fields. The slug stays
// fixed to the slug derived at creation.
type UpdateProductInput struct {
	Title       string
	Description string
	ImageURL    string
	Price       float64
	CategoryID  *uuid.UUID
}

// ProductService defines the interface for product business logic
type ProductService interface {
	Create(ctx context.Context, caller *policy.Caller, input CreateProductInput) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error)
	Update(ctx context.Context, caller *policy.Caller, id uuid.UUID, input UpdateProductInput) (*domain.Product, error)
	Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	evaluator    *policy.Evaluator
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	evaluator *policy.Evaluator,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		evaluator:    evaluator,
	}
}

// Create adds a product to the catalog. Admin only. The slug is derived
// from the title, the owner is the caller and the creation timestamp is
// server time; none of these are taken from the request.
func (s *productService) Create(ctx context.Context, caller *policy.Caller, input CreateProductInput) (*domain.Product, error) {
	if err := s.evaluator.Evaluate(caller, policy.EntityProduct, policy.OpCreate, nil); err != nil {
		return nil, err
	}

	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrUnknownCategory
			}
			return nil, err
		}
	}

	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Title:       input.Title,
		Slug:        domain.Slugify(input.Title),
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		UserID:      caller.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// GetBySlug retrieves a product by its public identifier. Open to anyone.
func (s *productService) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return s.productRepo.FindBySlug(ctx, slug)
}

// List retrieves products with filtering, pagination and sorting. Open to
// anyone.
func (s *productService) List(ctx context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	return s.productRepo.List(ctx, categoryID, page, pageSize, sortBy, sortOrder)
}

// Search finds products by partial title or description match. Open to
// anyone.
func (s *productService) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	return s.productRepo.Search(ctx, query, page, pageSize)
}

// Update rewrites a product's mutable fields. Admin only; the slug computed
// at creation is untouched even when the title changes.
func (s *productService) Update(ctx context.Context, caller *policy.Caller, id uuid.UUID, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.evaluator.Evaluate(caller, policy.EntityProduct, policy.OpUpdate, product); err != nil {
		return nil, err
	}

	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrUnknownCategory
			}
			return nil, err
		}
	}

	product.Title = input.Title
	product.Description = input.Description
	product.ImageURL = input.ImageURL
	product.Price = input.Price
	product.CategoryID = input.CategoryID
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Delete removes a product. Admin only; comments cascade with it.
func (s *productService) Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.evaluator.Evaluate(caller, policy.EntityProduct, policy.OpDelete, product); err != nil {
		return err
	}

	return s.productRepo.Delete(ctx, id)
}
