package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"kriya-gateway/internal/model"
)

type tokenResolver interface {
	Resolve(ctx context.Context, tokenString string) (model.User, error)
}

type contextKey string

const userContextKey contextKey = "auth_user"

const kriyaTokenHeader = "X-Kriya-Token"

type AuthMiddleware struct {
	resolver tokenResolver
}

func NewAuthMiddleware(resolver tokenResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// RequireUser authenticates the request with a Kriya bearer token taken
// from the Authorization header or, as a fallback, X-Kriya-Token.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			writeUnauthorized(w, "authentication required: provide Authorization: Bearer <token> or X-Kriya-Token header")
			return
		}

		user, err := m.resolver.Resolve(r.Context(), token)
		if err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken extracts the raw bearer token from a request without
// validating it.
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		if strings.HasPrefix(strings.ToLower(header), "bearer ") {
			return strings.TrimSpace(header[7:])
		}
		return header
	}

	return strings.TrimSpace(r.Header.Get(kriyaTokenHeader))
}

func UserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userContextKey).(model.User)
	return user, ok
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "UNAUTHORIZED",
			Message: message,
		},
	})
}
