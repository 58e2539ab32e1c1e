package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"
)

// CreateUserRequest represents the account creation request payload
type CreateUserRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=6"`
	FirstName string   `json:"firstName" validate:"required"`
	LastName  string   `json:"lastName" validate:"required"`
	Roles     []string `json:"roles"`
}

// UpdateUserRequest represents the account update request payload. The
// password is deliberately absent; it only changes through the rotation
// endpoint.
type UpdateUserRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	FirstName string   `json:"firstName" validate:"required"`
	LastName  string   `json:"lastName" validate:"required"`
	Roles     []string `json:"roles"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RotatePasswordRequest represents the password rotation payload
type RotatePasswordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

// TokenResponse carries a freshly issued token after password rotation
type TokenResponse struct {
	Token string `json:"token"`
}

// UserProfile represents user profile data
type UserProfile struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Roles     []string `json:"roles"`
}

func toUserProfile(user *domain.User) UserProfile {
	return UserProfile{
		ID:        user.ID.String(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Roles:     user.EffectiveRoles(),
	}
}

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	userService  service.UserService
	orderService service.OrderService
	logger       *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, orderService service.OrderService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService:  userService,
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all user routes
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	// Public routes
	r.Post("/api/login", h.Login)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Route("/api/users", func(r chi.Router) {
			r.Post("/", h.Create)
			r.Get("/", h.List)
			r.Get("/{id}", h.Get)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.Get("/{id}/orders", h.ListOrders)
		})

		r.Put("/api/password/{id}/update", h.RotatePassword)
	})
}

// Login handles user authentication
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		respondDecodeError(w, err)
		return
	}

	token, user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debug("Login failed", zap.Error(err))
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("User logged in successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		User:  toUserProfile(user),
	})
}

// Create handles account creation
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("User creation validation failed", zap.Error(err))
		respondDecodeError(w, err)
		return
	}

	user, err := h.userService.Create(r.Context(), middleware.GetCaller(r.Context()), service.CreateUserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Roles:     req.Roles,
	})
	if err != nil {
		h.logger.Debug("User creation failed", zap.Error(err))
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("User created successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, toUserProfile(user))
}

// List returns all accounts
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context(), middleware.GetCaller(r.Context()))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	profiles := make([]UserProfile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, toUserProfile(user))
	}

	middleware.RespondWithJSON(w, http.StatusOK, profiles)
}

// Get returns a single account
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.userService.Get(r.Context(), middleware.GetCaller(r.Context()), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toUserProfile(user))
}

// Update handles account profile changes
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req UpdateUserRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("User update validation failed", zap.Error(err))
		respondDecodeError(w, err)
		return
	}

	user, err := h.userService.Update(r.Context(), middleware.GetCaller(r.Context()), id, service.UpdateUserInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Roles:     req.Roles,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("User updated successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, toUserProfile(user))
}

// Delete removes an account
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.userService.Delete(r.Context(), middleware.GetCaller(r.Context()), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("User deleted successfully", zap.String("user_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ListOrders returns the orders placed by an account
func (h *UserHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	orders, err := h.orderService.ListByUser(r.Context(), middleware.GetCaller(r.Context()), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// RotatePassword verifies the old password, applies the new one and issues
// a replacement token; tokens minted before the rotation stop validating.
func (h *UserHandler) RotatePassword(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req RotatePasswordRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Password rotation validation failed", zap.Error(err))
		respondDecodeError(w, err)
		return
	}

	token, err := h.userService.RotatePassword(
		r.Context(),
		middleware.GetCaller(r.Context()),
		id,
		req.OldPassword,
		req.NewPassword,
		req.ConfirmPassword,
	)
	if err != nil {
		h.logger.Debug("Password rotation failed", zap.Error(err))
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Password rotated successfully", zap.String("user_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, TokenResponse{Token: token})
}
