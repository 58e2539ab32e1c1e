package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/middleware"
	"storefront/internal/service"
)

// CommentRequest represents the comment creation and update payload. The
// author is never client-supplied; it is resolved from the caller identity.
type CommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// CommentHandler handles HTTP requests for comment operations
type CommentHandler struct {
	commentService service.CommentService
	logger         *zap.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentService service.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		logger:         logger,
	}
}

// RegisterRoutes registers all comment routes
func (h *CommentHandler) RegisterRoutes(r chi.Router, authMiddleware, optionalAuth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/api/products/{id}/comments", h.ListByProduct)
		r.Get("/api/comments/{id}", h.Get)
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/api/products/{id}/comments", h.Create)
		r.Put("/api/comments/{id}", h.Update)
		r.Delete("/api/comments/{id}", h.Delete)
	})
}

// Create adds a comment to a product
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req CommentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Comment creation validation failed", zap.Error(err))
		respondDecodeError(w, err)
		return
	}

	comment, err := h.commentService.Create(r.Context(), middleware.GetCaller(r.Context()), productID, req.Content)
	if err != nil {
		h.logger.Debug("Comment creation failed", zap.Error(err))
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Comment created successfully", zap.String("comment_id", comment.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, comment)
}

// Get returns a single comment
func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	comment, err := h.commentService.Get(r.Context(), middleware.GetCaller(r.Context()), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, comment)
}

// ListByProduct returns a page of comments for a product
func (h *CommentHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	page, pageSize := parsePagination(r)

	comments, total, err := h.commentService.ListByProduct(r.Context(), middleware.GetCaller(r.Context()), productID, page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CollectionResponse{
		Items: comments,
		Total: total,
		Page:  page,
	})
}

// Update rewrites a comment's content
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	var req CommentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Comment update validation failed", zap.Error(err))
		respondDecodeError(w, err)
		return
	}

	comment, err := h.commentService.Update(r.Context(), middleware.GetCaller(r.Context()), id, req.Content)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Comment updated successfully", zap.String("comment_id", comment.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, comment)
}

// Delete removes a comment
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	if err := h.commentService.Delete(r.Context(), middleware.GetCaller(r.Context()), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Comment deleted successfully", zap.String("comment_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
