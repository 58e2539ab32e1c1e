package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/mutation"
	"storefront/internal/policy"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// MinPasswordLength is the floor for rotated passwords; a new password must
// be strictly longer than this.
const MinPasswordLength = 5

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// ValidationError is a field-level validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CreateUserInput carries the fields for an admin-created account. Password
// is plaintext here; it is hashed by the mutation interceptor before the
// store commit and never persisted as-is.
type CreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Roles     []string
}

// UpdateUserInput carries profile fields for a user update. The password is
// deliberately absent; it changes only through RotatePassword.
type UpdateUserInput struct {
	Email     string
	FirstName string
	LastName  string
	Roles     []string
}

// UserService defines the interface for user business logic
type UserService interface {
	Create(ctx context.Context, caller *policy.Caller, input CreateUserInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	ValidateToken(ctx context.Context, tokenString string) (*policy.Caller, error)
	Get(ctx context.Context, caller *policy.Caller, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context, caller *policy.Caller) ([]*domain.User, error)
	Update(ctx context.Context, caller *policy.Caller, id uuid.UUID, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error
	RotatePassword(ctx context.Context, caller *policy.Caller, id uuid.UUID, oldPassword, newPassword, confirmPassword string) (token string, err error)
}

type userService struct {
	userRepo    repository.UserRepository
	evaluator   *policy.Evaluator
	interceptor *mutation.Interceptor
	hasher      *auth.Hasher
	tokens      *auth.TokenManager
}

// NewUserService creates a new instance of UserService
func NewUserService(
	userRepo repository.UserRepository,
	evaluator *policy.Evaluator,
	interceptor *mutation.Interceptor,
	hasher *auth.Hasher,
	tokens *auth.TokenManager,
) UserService {
	return &userService{
		userRepo:    userRepo,
		evaluator:   evaluator,
		interceptor: interceptor,
		hasher:      hasher,
		tokens:      tokens,
	}
}

// Create registers a new account. Only admins may create users; the
// interceptor hashes the plaintext password on this creation path.
func (s *userService) Create(ctx context.Context, caller *policy.Caller, input CreateUserInput) (*domain.User, error) {
	if err := s.evaluator.Evaluate(caller, policy.EntityUser, policy.OpCreate, nil); err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: input.Password,
		Roles:        input.Roles,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.interceptor.Apply(caller, http.MethodPost, user); err != nil {
		return nil, fmt.Errorf("failed to prepare user for commit: %w", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates by email and password and issues a token carrying the
// fixed claim set.
func (s *userService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return token, user, nil
}

// ValidateToken parses a token and resolves it to a caller identity. The
// embedded password-hash claim must match the user's stored hash: a token
// issued before a password rotation fails here, which is the implicit
// revocation mechanism.
func (s *userService) ValidateToken(ctx context.Context, tokenString string) (*policy.Caller, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims.PasswordHash != user.PasswordHash {
		return nil, ErrInvalidToken
	}

	return &policy.Caller{ID: user.ID, Roles: user.EffectiveRoles()}, nil
}

// Get retrieves a single user; admins or the user themselves.
func (s *userService) Get(ctx context.Context, caller *policy.Caller, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.evaluator.Evaluate(caller, policy.EntityUser, policy.OpRead, user); err != nil {
		return nil, err
	}

	return user, nil
}

// List retrieves all users; admin only.
func (s *userService) List(ctx context.Context, caller *policy.Caller) ([]*domain.User, error) {
	if err := s.evaluator.Evaluate(caller, policy.EntityUser, policy.OpReadCollection, nil); err != nil {
		return nil, err
	}

	return s.userRepo.List(ctx)
}

// Update rewrites a user's profile fields; admins or the user themselves.
func (s *userService) Update(ctx context.Context, caller *policy.Caller, id uuid.UUID, input UpdateUserInput) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.evaluator.Evaluate(caller, policy.EntityUser, policy.OpUpdate, user); err != nil {
		return nil, err
	}

	user.Email = input.Email
	user.FirstName = input.FirstName
	user.LastName = input.LastName
	if caller.IsAdmin() {
		user.Roles = input.Roles
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Delete removes a user; admins or the user themselves.
func (s *userService) Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.evaluator.Evaluate(caller, policy.EntityUser, policy.OpDelete, user); err != nil {
		return err
	}

	return s.userRepo.Delete(ctx, id)
}

// RotatePassword validates the old/new/confirm triple, commits the new hash
// and returns a freshly issued token. Authorization is evaluated before any
// of the password fields are looked at, and nothing is committed unless
// every validation passes. Tokens issued before the rotation stop
// validating once the stored hash changes.
func (s *userService) RotatePassword(ctx context.Context, caller *policy.Caller, id uuid.UUID, oldPassword, newPassword, confirmPassword string) (string, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}

	if err := s.evaluator.Evaluate(caller, policy.EntityUser, policy.OpRotatePassword, user); err != nil {
		return "", err
	}

	if confirmPassword != newPassword {
		return "", &ValidationError{Field: "confirmPassword", Message: "Do not match password"}
	}

	if len(newPassword) <= MinPasswordLength {
		return "", &ValidationError{Field: "newPassword", Message: fmt.Sprintf("Must be greater than %d characters", MinPasswordLength)}
	}

	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return "", err
	}

	user.PasswordHash = hash
	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	return token, nil
}
