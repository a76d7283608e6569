package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"kriya-gateway/internal/model"
	"kriya-gateway/internal/service"
	"kriya-gateway/pkg/apierror"
)

const (
	sessionCookieName = "kriya_session"
	sessionMaxAge     = 7 * 24 * time.Hour
	timeFormat        = time.RFC3339
)

type SessionHandler struct {
	sessions      *service.SessionService
	tokens        *service.TokenService
	secureCookies bool
}

func NewSessionHandler(sessions *service.SessionService, tokens *service.TokenService, secureCookies bool) *SessionHandler {
	return &SessionHandler{sessions: sessions, tokens: tokens, secureCookies: secureCookies}
}

// Login exchanges a valid bearer token for a cookie session so browser
// clients never have to hold the token itself.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		var payload model.SessionLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			token = strings.TrimSpace(payload.Token)
		}
	}
	if token == "" {
		writeError(w, apierror.BadRequest("token is required", "token"))
		return
	}

	user, err := h.tokens.Resolve(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	sessionID, err := h.sessions.Create(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	setSessionCookie(w, sessionID, h.secureCookies)
	writeSuccess(w, http.StatusOK, model.SessionResponse{
		Message: "Session created",
		User:    user.Profile(),
	})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	_, sessionID, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	h.sessions.Destroy(sessionID)
	clearSessionCookie(w, h.secureCookies)
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Logged out successfully"})
}

func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user.Profile())
}

func (h *SessionHandler) currentUser(r *http.Request) (model.User, string, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return model.User{}, "", apierror.Unauthorized("not authenticated")
	}

	user, err := h.sessions.Resolve(r.Context(), cookie.Value)
	if err != nil {
		return model.User{}, "", err
	}

	return user, cookie.Value, nil
}

func setSessionCookie(w http.ResponseWriter, sessionID string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
