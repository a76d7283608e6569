package service

import (
	"context"
	"sync"
	"time"

	"kriya-gateway/internal/model"
	"kriya-gateway/pkg/apierror"
)

// memStore is an in-memory UserStore for tests.
type memStore struct {
	mu      sync.Mutex
	byID    map[string]model.User
	byPhone map[string]string
}

func newMemStore(users ...model.User) *memStore {
	s := &memStore{
		byID:    map[string]model.User{},
		byPhone: map[string]string{},
	}
	for _, u := range users {
		s.byID[u.ID] = u
		s.byPhone[u.PhoneNumber] = u.ID
	}
	return s
}

func (s *memStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.byID[id]
	if !exists {
		return model.User{}, apierror.NotFound("user not found", id)
	}
	return u, nil
}

func (s *memStore) FindByPhone(_ context.Context, phoneNumber string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.byPhone[phoneNumber]
	if !exists {
		return model.User{}, apierror.NotFound("user not found", phoneNumber)
	}
	return s.byID[id], nil
}

func (s *memStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[u.ID] = u
	s.byPhone[u.PhoneNumber] = u.ID
	return nil
}

func (s *memStore) UpdateProfile(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.byID[u.ID]
	if !exists {
		return apierror.NotFound("user not found", u.ID)
	}

	existing.FirstName = u.FirstName
	existing.LastName = u.LastName
	existing.Email = u.Email
	existing.UpdatedAt = time.Now().UTC()
	s.byID[u.ID] = existing
	return nil
}

func (s *memStore) IncrementTokenVersion(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.byID[userID]
	if !exists {
		return 0, apierror.NotFound("user not found", userID)
	}

	u.TokenVersion++
	s.byID[userID] = u
	return u.TokenVersion, nil
}

func (s *memStore) SavePlaneCredential(_ context.Context, userID string, cred model.PlaneCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.byID[userID]
	if !exists {
		return apierror.NotFound("user not found", userID)
	}

	u.Plane = cred
	s.byID[userID] = u
	return nil
}
