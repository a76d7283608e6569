package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"

	"kriya-gateway/internal/model"
	"kriya-gateway/pkg/apierror"
)

// SessionService maps opaque session identifiers to user IDs for
// cookie-based clients. State lives in process memory only; a deployment
// that runs multiple instances must swap the backing map for an external
// store behind this same interface.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]string
	users    UserStore
}

func NewSessionService(users UserStore) *SessionService {
	return &SessionService{
		sessions: map[string]string{},
		users:    users,
	}
}

// Create issues a new session for the user and returns its identifier:
// 32 random bytes, URL-safe base64.
func (s *SessionService) Create(userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}

	sessionID := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	s.sessions[sessionID] = userID
	s.mu.Unlock()

	return sessionID, nil
}

// Resolve re-fetches the live user record so profile and revocation state
// are never served stale from the session map.
func (s *SessionService) Resolve(ctx context.Context, sessionID string) (model.User, error) {
	s.mu.RLock()
	userID, exists := s.sessions[sessionID]
	s.mu.RUnlock()

	if !exists {
		return model.User{}, apierror.Unauthorized("not authenticated")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.User{}, apierror.Unauthorized("not authenticated")
	}

	return user, nil
}

// Destroy removes the session. Destroying an absent session is a no-op.
func (s *SessionService) Destroy(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}
