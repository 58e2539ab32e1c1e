package fixtures

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

// DefaultPassword is the credential every seeded account gets.
const DefaultPassword = "apiyaapiya"

var categoryNames = []string{"electro", "shoes", "shirt", "jeans"}

type seedUser struct {
	email     string
	firstName string
	lastName  string
	roles     []string
}

var seedUsers = []seedUser{
	{email: "admin@example.com", firstName: "Ada", lastName: "Admin", roles: []string{domain.RoleAdmin}},
	{email: "jane@example.com", firstName: "Jane", lastName: "Doe"},
	{email: "john@example.com", firstName: "John", lastName: "Smith"},
}

type seedProduct struct {
	title       string
	description string
	price       float64
	category    string
}

var seedProducts = []seedProduct{
	{title: "Wireless Headphones", description: "Over-ear headphones with noise cancelling", price: 129.99, category: "electro"},
	{title: "Mechanical Keyboard", description: "Tenkeyless board with tactile switches", price: 89.50, category: "electro"},
	{title: "Blue Running Shoes", description: "Lightweight trainers for daily runs", price: 74.00, category: "shoes"},
	{title: "Leather Boots", description: "Full-grain leather, goodyear welted", price: 189.00, category: "shoes"},
	{title: "Linen Shirt", description: "Breathable summer shirt", price: 39.90, category: "shirt"},
	{title: "Slim Fit Jeans", description: "Stretch denim, mid rise", price: 59.00, category: "jeans"},
}

// Loader seeds the database with a deterministic demo dataset.
type Loader struct {
	userRepo     repository.UserRepository
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	commentRepo  repository.CommentRepository
	hasher       *auth.Hasher
	logger       *zap.Logger
}

// NewLoader creates a fixture loader.
func NewLoader(
	userRepo repository.UserRepository,
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	commentRepo repository.CommentRepository,
	hasher *auth.Hasher,
	logger *zap.Logger,
) *Loader {
	return &Loader{
		userRepo:     userRepo,
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		commentRepo:  commentRepo,
		hasher:       hasher,
		logger:       logger,
	}
}

// Load seeds users, categories, products and comments. It is a no-op when
// accounts already exist, so it is safe to run on every startup.
func (l *Loader) Load(ctx context.Context) error {
	existing, err := l.userRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to check existing users: %w", err)
	}
	if len(existing) > 0 {
		l.logger.Debug("Fixtures skipped, users already present")
		return nil
	}

	hash, err := l.hasher.Hash(DefaultPassword)
	if err != nil {
		return fmt.Errorf("failed to hash fixture password: %w", err)
	}

	users := make([]*domain.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		user := &domain.User{
			ID:           uuid.New(),
			Email:        su.email,
			PasswordHash: hash,
			Roles:        su.roles,
			FirstName:    su.firstName,
			LastName:     su.lastName,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		if err := l.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", su.email, err)
		}
		users = append(users, user)
	}

	categories := make(map[string]*domain.Category, len(categoryNames))
	for _, name := range categoryNames {
		category := &domain.Category{
			ID:   uuid.New(),
			Name: name,
		}
		if err := l.categoryRepo.Create(ctx, category); err != nil {
			return fmt.Errorf("failed to seed category %s: %w", name, err)
		}
		categories[name] = category
	}

	admin := users[0]
	for i, sp := range seedProducts {
		categoryID := categories[sp.category].ID
		product := &domain.Product{
			ID:          uuid.New(),
			Title:       sp.title,
			Description: sp.description,
			Slug:        domain.Slugify(sp.title),
			Price:       sp.price,
			CategoryID:  &categoryID,
			UserID:      admin.ID,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		if err := l.productRepo.Create(ctx, product); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", sp.title, err)
		}

		// Every other product gets a comment from a non-admin account
		if i%2 == 0 {
			commenter := users[1+i%2]
			comment := &domain.Comment{
				ID:        uuid.New(),
				Content:   "Happy with this one, would buy again.",
				ProductID: product.ID,
				UserID:    commenter.ID,
				CreatedAt: time.Now(),
			}
			if err := l.commentRepo.Create(ctx, comment); err != nil {
				return fmt.Errorf("failed to seed comment on %s: %w", sp.title, err)
			}
		}
	}

	l.logger.Info("Fixtures loaded",
		zap.Int("users", len(seedUsers)),
		zap.Int("categories", len(categoryNames)),
		zap.Int("products", len(seedProducts)),
	)
	return nil
}
