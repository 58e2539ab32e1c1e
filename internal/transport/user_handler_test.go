package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/mutation"
	"storefront/internal/policy"
	"storefront/internal/repository"
	"storefront/internal/service"
)

// Mock repositories for testing
type mockUserRepository struct {
	users map[uuid.UUID]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, exists := m.users[id]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	users := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.ID]; !exists {
		return repository.ErrUserNotFound
	}
	m.users[user.ID] = user
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

type mockOrderRepository struct {
	orders map[uuid.UUID]*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, exists := m.orders[id]
	if !exists {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	var orders []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (m *mockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	if _, exists := m.orders[order.ID]; !exists {
		return repository.ErrOrderNotFound
	}
	m.orders[order.ID] = order
	return nil
}

type mockProductRepository struct{}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error { return nil }
func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error { return nil }
func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error            { return nil }
func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return nil, repository.ErrProductNotFound
}
func (m *mockProductRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return nil, repository.ErrProductNotFound
}
func (m *mockProductRepository) List(ctx context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	return nil, 0, nil
}
func (m *mockProductRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	return nil, 0, nil
}

type handlerFixture struct {
	router      chi.Router
	userRepo    *mockUserRepository
	userService service.UserService
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	logger := zap.NewNop()
	userRepo := newMockUserRepository()
	orderRepo := newMockOrderRepository()
	evaluator := policy.NewEvaluator()
	hasher := auth.NewHasher()
	tokens := auth.NewTokenManager("test-secret")
	interceptor := mutation.NewInterceptor(hasher, logger)

	userService := service.NewUserService(userRepo, evaluator, interceptor, hasher, tokens)
	orderService := service.NewOrderService(orderRepo, &mockProductRepository{}, userRepo, evaluator, interceptor, nil, logger)

	handler := NewUserHandler(userService, orderService, logger)

	router := chi.NewRouter()
	handler.RegisterRoutes(router, middleware.AuthMiddleware(userService, logger))

	return &handlerFixture{
		router:      router,
		userRepo:    userRepo,
		userService: userService,
	}
}

func (f *handlerFixture) seedUser(t *testing.T, email, password string, roles []string) *domain.User {
	t.Helper()

	hasher := auth.NewHasher()
	hash, err := hasher.Hash(password)
	require.NoError(t, err)

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
		FirstName:    "Jane",
		LastName:     "Doe",
	}
	require.NoError(t, f.userRepo.Create(context.Background(), user))
	return user
}

func (f *handlerFixture) login(t *testing.T, email, password string) string {
	t.Helper()

	body, _ := json.Marshal(LoginRequest{Email: email, Password: password})
	req := httptest.NewRequest("POST", "/api/login", bytes.NewReader(body))
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func TestUserHandler_LoginReturnsTokenAndProfile(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedUser(t, "jane@example.com", "apiyaapiya", nil)

	body, _ := json.Marshal(LoginRequest{Email: "jane@example.com", Password: "apiyaapiya"})
	req := httptest.NewRequest("POST", "/api/login", bytes.NewReader(body))
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "jane@example.com", resp.User.Email)
	assert.Contains(t, resp.User.Roles, domain.RoleUser)
}

func TestUserHandler_LoginRejectsWrongPassword(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedUser(t, "jane@example.com", "apiyaapiya", nil)

	body, _ := json.Marshal(LoginRequest{Email: "jane@example.com", Password: "wrong"})
	req := httptest.NewRequest("POST", "/api/login", bytes.NewReader(body))
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserHandler_ListRequiresAdmin(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedUser(t, "jane@example.com", "apiyaapiya", nil)
	token := f.login(t, "jane@example.com", "apiyaapiya")

	req := httptest.NewRequest("GET", "/api/users/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserHandler_AdminCreatesUser(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedUser(t, "admin@example.com", "apiyaapiya", []string{domain.RoleAdmin})
	token := f.login(t, "admin@example.com", "apiyaapiya")

	body, _ := json.Marshal(CreateUserRequest{
		Email:     "new@example.com",
		Password:  "apiyaapiya",
		FirstName: "New",
		LastName:  "Person",
	})
	req := httptest.NewRequest("POST", "/api/users/", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var profile UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "new@example.com", profile.Email)

	// The stored credential must be a hash, not the plaintext
	stored, err := f.userRepo.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "apiyaapiya", stored.PasswordHash)
}

func TestUserHandler_RotatePasswordInvalidatesOldToken(t *testing.T) {
	f := newHandlerFixture(t)
	user := f.seedUser(t, "jane@example.com", "apiyaapiya", nil)
	oldToken := f.login(t, "jane@example.com", "apiyaapiya")

	body, _ := json.Marshal(RotatePasswordRequest{
		OldPassword:     "apiyaapiya",
		NewPassword:     "different-password",
		ConfirmPassword: "different-password",
	})
	req := httptest.NewRequest("PUT", "/api/password/"+user.ID.String()+"/update", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+oldToken)
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	// A request with the pre-rotation token must now be rejected
	req = httptest.NewRequest("GET", "/api/users/"+user.ID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+oldToken)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The freshly issued token keeps working
	req = httptest.NewRequest("GET", "/api/users/"+user.ID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserHandler_RotatePasswordValidationFailure(t *testing.T) {
	f := newHandlerFixture(t)
	user := f.seedUser(t, "jane@example.com", "apiyaapiya", nil)
	token := f.login(t, "jane@example.com", "apiyaapiya")

	body, _ := json.Marshal(RotatePasswordRequest{
		OldPassword:     "apiyaapiya",
		NewPassword:     "new-password",
		ConfirmPassword: "other-password",
	})
	req := httptest.NewRequest("PUT", "/api/password/"+user.ID.String()+"/update", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "confirmPassword")
}

func TestUserHandler_RotateOtherUsersPasswordForbidden(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedUser(t, "jane@example.com", "apiyaapiya", nil)
	other := f.seedUser(t, "other@example.com", "apiyaapiya", nil)
	token := f.login(t, "jane@example.com", "apiyaapiya")

	body, _ := json.Marshal(RotatePasswordRequest{
		OldPassword:     "apiyaapiya",
		NewPassword:     "new-password",
		ConfirmPassword: "new-password",
	})
	req := httptest.NewRequest("PUT", "/api/password/"+other.ID.String()+"/update", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserHandler_GetSelfAllowed(t *testing.T) {
	f := newHandlerFixture(t)
	user := f.seedUser(t, "jane@example.com", "apiyaapiya", nil)
	token := f.login(t, "jane@example.com", "apiyaapiya")

	req := httptest.NewRequest("GET", "/api/users/"+user.ID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var profile UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, user.ID.String(), profile.ID)
}
