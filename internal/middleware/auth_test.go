package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"storefront/internal/policy"
)

type stubValidator struct {
	caller *policy.Caller
	err    error
	seen   string
}

func (s *stubValidator) ValidateToken(ctx context.Context, tokenString string) (*policy.Caller, error) {
	s.seen = tokenString
	if s.err != nil {
		return nil, s.err
	}
	return s.caller, nil
}

func TestProperty_RequestsWithoutTokenAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("requests without authorization header are rejected", prop.ForAll(
		func(pathSuffix string, method string) bool {
			logger, _ := zap.NewDevelopment()
			mw := AuthMiddleware(&stubValidator{}, logger)

			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			path := "/" + pathSuffix
			if path == "/" {
				path = "/test"
			}

			req := httptest.NewRequest(method, path, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
		gen.OneConstOf("GET", "POST", "PUT", "DELETE"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mw := AuthMiddleware(&stubValidator{}, logger)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, header := range []string{"Bearer", "Basic abc123", "Bearer one two"} {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q should be rejected", header)
	}
}

func TestAuthMiddleware_RejectedToken(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mw := AuthMiddleware(&stubValidator{err: errors.New("token revoked")}, logger)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer stale-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ValidTokenPutsCallerInContext(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	caller := &policy.Caller{ID: uuid.New(), Roles: []string{"ROLE_USER"}}
	validator := &stubValidator{caller: caller}
	mw := AuthMiddleware(validator, logger)

	handlerCalled := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		got := GetCaller(r.Context())
		if got == nil || got.ID != caller.ID {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "good-token", validator.seen)
}

func TestOptionalAuthMiddleware_AnonymousPassesThrough(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mw := OptionalAuthMiddleware(&stubValidator{err: errors.New("should not be called")}, logger)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, GetCaller(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/products", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuthMiddleware_InvalidTokenIsIgnored(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mw := OptionalAuthMiddleware(&stubValidator{err: errors.New("bad token")}, logger)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, GetCaller(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/products", nil)
	req.Header.Set("Authorization", "Bearer junk")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuthMiddleware_ValidTokenResolvesCaller(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	caller := &policy.Caller{ID: uuid.New(), Roles: []string{"ROLE_USER"}}
	mw := OptionalAuthMiddleware(&stubValidator{caller: caller}, logger)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := GetCaller(r.Context())
		assert.NotNil(t, got)
		assert.Equal(t, caller.ID, got.ID)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/products", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
