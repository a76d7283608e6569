package service

import (
	"context"

	"kriya-gateway/internal/model"
)

// UserStore is the persistence boundary for user records. Implemented by
// repository.UserRepository in production and by in-memory fakes in tests.
type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByPhone(ctx context.Context, phoneNumber string) (model.User, error)
	Create(ctx context.Context, u model.User) error
	UpdateProfile(ctx context.Context, u model.User) error
	IncrementTokenVersion(ctx context.Context, userID string) (int64, error)
	SavePlaneCredential(ctx context.Context, userID string, cred model.PlaneCredential) error
}
