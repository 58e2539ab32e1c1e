package service

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/mutation"
	"storefront/internal/policy"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// OrderEventPublisher emits order lifecycle events to the message broker.
// Publishing is best effort; a broker outage must not fail the order.
type OrderEventPublisher interface {
	PublishOrderCreated(order *domain.Order) error
}

// OrderService defines the interface for order business logic
type OrderService interface {
	Create(ctx context.Context, caller *policy.Caller, productID uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, caller *policy.Caller, userID uuid.UUID) ([]*domain.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	evaluator   *policy.Evaluator
	interceptor *mutation.Interceptor
	publisher   OrderEventPublisher
	logger      *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	evaluator *policy.Evaluator,
	interceptor *mutation.Interceptor,
	publisher OrderEventPublisher,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		evaluator:   evaluator,
		interceptor: interceptor,
		publisher:   publisher,
		logger:      logger,
	}
}

// Create places an order for a product. Any authenticated caller; the
// owning user is the caller, never the request body.
func (s *orderService) Create(ctx context.Context, caller *policy.Caller, productID uuid.UUID) (*domain.Order, error) {
	if err := s.evaluator.Evaluate(caller, policy.EntityOrder, policy.OpCreate, nil); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:        uuid.New(),
		ProductID: &product.ID,
		UserID:    caller.ID,
		CreatedAt: time.Now(),
	}

	if err := s.interceptor.Apply(caller, http.MethodPost, order); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishOrderCreated(order); err != nil {
			s.logger.Warn("Failed to publish order-created event",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
		}
	}

	return order, nil
}

// ListByUser retrieves the orders sub-resource of a user; the owner or an
// admin.
func (s *orderService) ListByUser(ctx context.Context, caller *policy.Caller, userID uuid.UUID) ([]*domain.Order, error) {
	owner, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.evaluator.Evaluate(caller, policy.EntityOrder, policy.OpReadCollection, owner); err != nil {
		return nil, err
	}

	return s.orderRepo.ListByUser(ctx, owner.ID)
}
