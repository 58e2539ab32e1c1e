package service

import (
	"context"
	"time"

	"storefront/internal/domain"
	"storefront/internal/policy"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// CategoryWithProducts is a category read together with a page of the
// products it owns.
type CategoryWithProducts struct {
	Category *domain.Category  `json:"category"`
	Products []*domain.Product `json:"products"`
	Total    int               `json:"total"`
}

// CategoryService defines the interface for category business logic
type CategoryService interface {
	Create(ctx context.Context, caller *policy.Caller, name string) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	GetByName(ctx context.Context, name string, page, pageSize int) (*CategoryWithProducts, error)
	Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	evaluator    *policy.Evaluator
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	evaluator *policy.Evaluator,
) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		evaluator:    evaluator,
	}
}

// Create adds a category. Admin only; names are unique.
func (s *categoryService) Create(ctx context.Context, caller *policy.Caller, name string) (*domain.Category, error) {
	if err := s.evaluator.Evaluate(caller, policy.EntityCategory, policy.OpCreate, nil); err != nil {
		return nil, err
	}

	category := &domain.Category{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// List retrieves all categories. Open to anyone.
func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

// GetByName retrieves a category and a page of its products. Open to anyone.
func (s *categoryService) GetByName(ctx context.Context, name string, page, pageSize int) (*CategoryWithProducts, error) {
	category, err := s.categoryRepo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	products, total, err := s.productRepo.List(ctx, &category.ID, page, pageSize, "created_at", repository.SortOrderDesc)
	if err != nil {
		return nil, err
	}

	return &CategoryWithProducts{
		Category: category,
		Products: products,
		Total:    total,
	}, nil
}

// Delete removes a category. Admin only. Its products survive with their
// category reference cleared by the schema.
func (s *categoryService) Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.evaluator.Evaluate(caller, policy.EntityCategory, policy.OpDelete, category); err != nil {
		return err
	}

	return s.categoryRepo.Delete(ctx, id)
}
