package service

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/domain"
	"storefront/internal/mutation"
	"storefront/internal/policy"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// CommentService defines the interface for comment business logic
type CommentService interface {
	Create(ctx context.Context, caller *policy.Caller, productID uuid.UUID, content string) (*domain.Comment, error)
	Get(ctx context.Context, caller *policy.Caller, id uuid.UUID) (*domain.Comment, error)
	ListByProduct(ctx context.Context, caller *policy.Caller, productID uuid.UUID, page, pageSize int) ([]*domain.Comment, int, error)
	Update(ctx context.Context, caller *policy.Caller, id uuid.UUID, content string) (*domain.Comment, error)
	Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error
}

type commentService struct {
	commentRepo repository.CommentRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	evaluator   *policy.Evaluator
	interceptor *mutation.Interceptor
}

// NewCommentService creates a new instance of CommentService
func NewCommentService(
	commentRepo repository.CommentRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	evaluator *policy.Evaluator,
	interceptor *mutation.Interceptor,
) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		evaluator:   evaluator,
		interceptor: interceptor,
	}
}

// Create adds a comment to a product. Any authenticated caller; creation
// implies authorship, so the owner is the caller by the create path's own
// resolution.
func (s *commentService) Create(ctx context.Context, caller *policy.Caller, productID uuid.UUID, content string) (*domain.Comment, error) {
	if err := s.evaluator.Evaluate(caller, policy.EntityComment, policy.OpCreate, nil); err != nil {
		return nil, err
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:        uuid.New(),
		Content:   content,
		ProductID: productID,
		UserID:    caller.ID,
		CreatedAt: time.Now(),
	}

	if err := s.interceptor.Apply(caller, http.MethodPost, comment); err != nil {
		return nil, err
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if author, err := s.userRepo.FindByID(ctx, comment.UserID); err == nil {
		comment.Author = author.DisplayName()
	}

	return comment, nil
}

// Get retrieves a single comment; open like the product it sits on.
func (s *commentService) Get(ctx context.Context, caller *policy.Caller, id uuid.UUID) (*domain.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.evaluator.Evaluate(caller, policy.EntityComment, policy.OpRead, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// ListByProduct retrieves a product's comments with derived author names.
func (s *commentService) ListByProduct(ctx context.Context, caller *policy.Caller, productID uuid.UUID, page, pageSize int) ([]*domain.Comment, int, error) {
	if err := s.evaluator.Evaluate(caller, policy.EntityComment, policy.OpReadCollection, nil); err != nil {
		return nil, 0, err
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, 0, err
	}

	return s.commentRepo.ListByProduct(ctx, productID, page, pageSize)
}

// Update rewrites a comment's content. The interceptor forces the owning
// user to the caller on this non-creation write path, discarding whatever
// the client claims.
func (s *commentService) Update(ctx context.Context, caller *policy.Caller, id uuid.UUID, content string) (*domain.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.evaluator.Evaluate(caller, policy.EntityComment, policy.OpUpdate, comment); err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.interceptor.Apply(caller, http.MethodPut, comment); err != nil {
		return nil, err
	}

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.FindByID(ctx, id)
}

// Delete removes a comment.
func (s *commentService) Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error {
	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.evaluator.Evaluate(caller, policy.EntityComment, policy.OpDelete, comment); err != nil {
		return err
	}

	return s.commentRepo.Delete(ctx, id)
}
