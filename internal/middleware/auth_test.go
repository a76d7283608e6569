package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"kriya-gateway/internal/model"
	"kriya-gateway/pkg/apierror"
)

type fakeResolver struct {
	user  model.User
	token string
}

func (f *fakeResolver) Resolve(_ context.Context, tokenString string) (model.User, error) {
	if tokenString != f.token {
		return model.User{}, apierror.Unauthorized("invalid or expired token")
	}
	return f.user, nil
}

func TestAuthMiddleware_RequireUser(t *testing.T) {
	t.Parallel()

	user := model.User{ID: "u-1", PhoneNumber: "+15550001111"}
	mw := NewAuthMiddleware(&fakeResolver{user: user, token: "good-token"})

	var captured model.User
	handler := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("accepts Authorization bearer header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/plane/workspaces", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, user.ID, captured.ID)
	})

	t.Run("accepts raw Authorization header without bearer prefix", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/plane/workspaces", nil)
		req.Header.Set("Authorization", "good-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("accepts X-Kriya-Token header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/plane/workspaces", nil)
		req.Header.Set("X-Kriya-Token", "good-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/plane/workspaces", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects unknown token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/plane/workspaces", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
