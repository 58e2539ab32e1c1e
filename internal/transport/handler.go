package transport

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"storefront/internal/middleware"
	"storefront/internal/mutation"
	"storefront/internal/policy"
	"storefront/internal/repository"
	"storefront/internal/service"
)

const (
	defaultPageSize = 30
	maxPageSize     = 100
)

// CollectionResponse wraps a paginated list with its total count.
type CollectionResponse struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
}

// respondServiceError maps service and repository errors to HTTP responses.
// Authorization denials map uniformly to 403 regardless of the operation.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: validationErr.Field, Message: validationErr.Message},
		})
		return
	}

	switch {
	case errors.Is(err, policy.ErrForbidden):
		middleware.RespondWithError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, mutation.ErrNoCaller),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		middleware.RespondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCategoryNotFound),
		errors.Is(err, repository.ErrCommentNotFound),
		errors.Is(err, repository.ErrOrderNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrUserAlreadyExists),
		errors.Is(err, repository.ErrCategoryAlreadyExists),
		errors.Is(err, repository.ErrSlugTaken):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnknownCategory):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("Unexpected service error", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// respondDecodeError distinguishes field validation failures from malformed
// request bodies.
func respondDecodeError(w http.ResponseWriter, err error) {
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

// parsePagination reads page and pageSize query parameters with sane bounds.
func parsePagination(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = defaultPageSize

	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil && v > 0 {
		pageSize = v
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}
	}

	return page, pageSize
}
