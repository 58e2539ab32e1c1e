package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/config"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/mutation"
	"storefront/internal/policy"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/transport"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	db *sql.DB,
	redisClient *redis.Client,
	publisher service.OrderEventPublisher,
) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.IsDevelopment()))

	if redisClient != nil {
		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: 100,
			Window:            time.Minute,
			KeyPrefix:         "rate_limit",
		}, logger))
	}

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Initialize the authorization and mutation pipeline
	evaluator := policy.NewEvaluator()
	hasher := auth.NewHasher()
	tokens := auth.NewTokenManager(cfg.JWT.Secret)
	interceptor := mutation.NewInterceptor(hasher, logger)

	// Initialize services
	userService := service.NewUserService(userRepo, evaluator, interceptor, hasher, tokens)
	productService := service.NewProductService(productRepo, categoryRepo, evaluator)
	categoryService := service.NewCategoryService(categoryRepo, productRepo, evaluator)
	commentService := service.NewCommentService(commentRepo, productRepo, userRepo, evaluator, interceptor)
	orderService := service.NewOrderService(orderRepo, productRepo, userRepo, evaluator, interceptor, publisher, logger)

	// Initialize handlers
	userHandler := transport.NewUserHandler(userService, orderService, logger)
	productHandler := transport.NewProductHandler(productService, logger)
	categoryHandler := transport.NewCategoryHandler(categoryService, logger)
	commentHandler := transport.NewCommentHandler(commentService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)

	// Token validation goes through the user service so rotated credentials
	// invalidate outstanding tokens
	authMiddleware := custommiddleware.AuthMiddleware(userService, logger)
	optionalAuth := custommiddleware.OptionalAuthMiddleware(userService, logger)

	// Register routes
	userHandler.RegisterRoutes(router, authMiddleware)
	productHandler.RegisterRoutes(router, authMiddleware, optionalAuth)
	categoryHandler.RegisterRoutes(router, authMiddleware)
	commentHandler.RegisterRoutes(router, authMiddleware, optionalAuth)
	orderHandler.RegisterRoutes(router, authMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
