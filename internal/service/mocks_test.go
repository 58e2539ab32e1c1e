package service

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// In-memory repositories used across the service tests.

type mockUserRepository struct {
	users map[uuid.UUID]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, exists := m.users[id]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	users := []*domain.User{}
	for _, user := range m.users {
		copied := *user
		users = append(users, &copied)
	}
	return users, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.ID]; !exists {
		return repository.ErrUserNotFound
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	user, exists := m.users[id]
	if !exists {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.users[id]; !exists {
		return repository.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	for _, existing := range m.products {
		if existing.Slug == product.Slug {
			return repository.ErrSlugTaken
		}
	}
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, exists := m.products[product.ID]; !exists {
		return repository.ErrProductNotFound
	}
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.products[id]; !exists {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (m *mockProductRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	for _, product := range m.products {
		if product.Slug == slug {
			copied := *product
			return &copied, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) List(ctx context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	products := []*domain.Product{}
	for _, product := range m.products {
		if categoryID != nil && (product.CategoryID == nil || *product.CategoryID != *categoryID) {
			continue
		}
		copied := *product
		products = append(products, &copied)
	}
	return products, len(products), nil
}

func (m *mockProductRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	return m.List(ctx, nil, page, pageSize, "created_at", repository.SortOrderDesc)
}

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[uuid.UUID]*domain.Category)}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, existing := range m.categories {
		if existing.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	copied := *category
	m.categories[category.ID] = &copied
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for _, category := range m.categories {
		copied := *category
		categories = append(categories, &copied)
	}
	return categories, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, exists := m.categories[id]
	if !exists {
		return nil, repository.ErrCategoryNotFound
	}
	copied := *category
	return &copied, nil
}

func (m *mockCategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	for _, category := range m.categories {
		if category.Name == name {
			copied := *category
			return &copied, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.categories[id]; !exists {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

type mockCommentRepository struct {
	comments map[uuid.UUID]*domain.Comment
}

func newMockCommentRepository() *mockCommentRepository {
	return &mockCommentRepository{comments: make(map[uuid.UUID]*domain.Comment)}
}

func (m *mockCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	copied := *comment
	m.comments[comment.ID] = &copied
	return nil
}

func (m *mockCommentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	comment, exists := m.comments[id]
	if !exists {
		return nil, repository.ErrCommentNotFound
	}
	copied := *comment
	return &copied, nil
}

func (m *mockCommentRepository) ListByProduct(ctx context.Context, productID uuid.UUID, page, pageSize int) ([]*domain.Comment, int, error) {
	comments := []*domain.Comment{}
	for _, comment := range m.comments {
		if comment.ProductID == productID {
			copied := *comment
			comments = append(comments, &copied)
		}
	}
	return comments, len(comments), nil
}

func (m *mockCommentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	if _, exists := m.comments[comment.ID]; !exists {
		return repository.ErrCommentNotFound
	}
	copied := *comment
	m.comments[comment.ID] = &copied
	return nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.comments[id]; !exists {
		return repository.ErrCommentNotFound
	}
	delete(m.comments, id)
	return nil
}

type mockOrderRepository struct {
	orders map[uuid.UUID]*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, exists := m.orders[id]
	if !exists {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	orders := []*domain.Order{}
	for _, order := range m.orders {
		if order.UserID == userID {
			copied := *order
			orders = append(orders, &copied)
		}
	}
	return orders, nil
}

func (m *mockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	if _, exists := m.orders[order.ID]; !exists {
		return repository.ErrOrderNotFound
	}
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

// recordingPublisher captures published order events.
type recordingPublisher struct {
	published []*domain.Order
}

func (p *recordingPublisher) PublishOrderCreated(order *domain.Order) error {
	p.published = append(p.published, order)
	return nil
}
