package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"kriya-gateway/internal/middleware"
	"kriya-gateway/internal/model"
	"kriya-gateway/internal/service"
	"kriya-gateway/pkg/apierror"
)

const serviceKeyHeader = "X-API-Key"

type AuthHandler struct {
	auth          *service.AuthService
	tokens        *service.TokenService
	sessions      *service.SessionService
	serviceAPIKey string
	secureCookies bool
}

func NewAuthHandler(auth *service.AuthService, tokens *service.TokenService, sessions *service.SessionService, serviceAPIKey string, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		auth:          auth,
		tokens:        tokens,
		sessions:      sessions,
		serviceAPIKey: serviceAPIKey,
		secureCookies: secureCookies,
	}
}

// Register creates or updates a user keyed by phone number, mints a fresh
// bearer token, and wraps it in a cookie session for browser clients.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	result, err := h.auth.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	if sessionID, err := h.sessions.Create(result.User.ID); err == nil {
		setSessionCookie(w, sessionID, h.secureCookies)
	}

	message := "Login successful"
	status := http.StatusOK
	if result.Created {
		message = "Registration successful"
		status = http.StatusCreated
	}

	writeSuccess(w, status, model.RegisterResponse{
		Message:    message,
		Token:      result.Token,
		ExpiresAt:  result.ExpiresAt.Format(timeFormat),
		User:       result.User.Profile(),
		PlaneReady: result.PlaneReady,
	})
}

// ValidateToken is the server-to-server introspection endpoint; it
// requires the shared service key.
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.ValidateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	apiKey := strings.TrimSpace(r.Header.Get(serviceKeyHeader))
	if apiKey == "" {
		apiKey = strings.TrimSpace(payload.APIKey)
	}
	if subtle.ConstantTimeCompare([]byte(apiKey), []byte(h.serviceAPIKey)) != 1 {
		writeError(w, apierror.New("FORBIDDEN", "invalid api key", "", http.StatusForbidden))
		return
	}

	user, err := h.tokens.Resolve(r.Context(), payload.Token)
	if err != nil {
		writeSuccess(w, http.StatusOK, model.ValidateTokenResponse{
			Valid:   false,
			Message: "Invalid or expired token",
		})
		return
	}

	profile := user.Profile()
	writeSuccess(w, http.StatusOK, model.ValidateTokenResponse{
		Valid:   true,
		User:    &profile,
		Message: "Token is valid",
	})
}

// GetUser returns the profile behind a bearer token passed as the `token`
// query parameter.
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.tokens.Resolve(r.Context(), strings.TrimSpace(r.URL.Query().Get("token")))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user.Profile())
}

// Logout revokes every outstanding bearer token for the user by bumping
// the revocation counter.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		token = middleware.BearerToken(r)
	}

	user, err := h.tokens.Resolve(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.tokens.RevokeAll(r.Context(), user.ID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"message": "Logged out successfully"})
}
