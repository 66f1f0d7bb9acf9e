package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelink/chat-server-go/internal/util"
)

type mockTokenResolver struct {
	resolveFunc func(ctx context.Context, tokenHash string) (string, error)
}

func (m *mockTokenResolver) ResolveToken(ctx context.Context, tokenHash string) (string, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, tokenHash)
	}
	return "", nil
}

func TestAuthMiddleware(t *testing.T) {
	validToken := "valid-token"
	validTokenHash := util.HashToken(validToken)

	t.Run("allows request with bearer token", func(t *testing.T) {
		tokens := &mockTokenResolver{
			resolveFunc: func(ctx context.Context, tokenHash string) (string, error) {
				if tokenHash == validTokenHash {
					return "user-123", nil
				}
				return "", nil
			},
		}

		middleware := NewAuthMiddleware(tokens)
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			require.Equal(t, "user-123", userID)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+validToken)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("allows request with query token", func(t *testing.T) {
		tokens := &mockTokenResolver{
			resolveFunc: func(ctx context.Context, tokenHash string) (string, error) {
				if tokenHash == validTokenHash {
					return "user-123", nil
				}
				return "", nil
			},
		}

		middleware := NewAuthMiddleware(tokens)
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/test?token="+validToken, nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects request without token", func(t *testing.T) {
		middleware := NewAuthMiddleware(&mockTokenResolver{})
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("GET", "/test", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects request with invalid token", func(t *testing.T) {
		middleware := NewAuthMiddleware(&mockTokenResolver{})
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("returns 500 on lookup error", func(t *testing.T) {
		tokens := &mockTokenResolver{
			resolveFunc: func(ctx context.Context, tokenHash string) (string, error) {
				return "", errors.New("connection refused")
			},
		}

		middleware := NewAuthMiddleware(tokens)
		handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+validToken)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestGetUserID(t *testing.T) {
	t.Run("returns user id from context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), UserIDContextKey, "user-1")
		assert.Equal(t, "user-1", GetUserID(ctx))
	})

	t.Run("returns empty when not set", func(t *testing.T) {
		assert.Empty(t, GetUserID(context.Background()))
	})
}
