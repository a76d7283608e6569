package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"kriya-gateway/internal/model"
	"kriya-gateway/internal/util"
)

// AuthService owns the register-or-login flow: user creation and profile
// updates keyed by phone number, token minting, and the best-effort Plane
// provisioning that rides along with registration.
type AuthService struct {
	users       UserStore
	tokens      *TokenService
	credentials *CredentialService
}

func NewAuthService(users UserStore, tokens *TokenService, credentials *CredentialService) *AuthService {
	return &AuthService{users: users, tokens: tokens, credentials: credentials}
}

type RegisterResult struct {
	User       model.User
	Token      string
	ExpiresAt  time.Time
	Created    bool
	PlaneReady bool
}

// Register creates the user on first contact and updates the profile on
// re-registration; either way it mints a fresh bearer token. Plane
// provisioning failures never fail registration; they are retried lazily
// by the next call that needs the credential.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (RegisterResult, error) {
	phone, err := util.NormalizePhone(req.PhoneNumber)
	if err != nil {
		return RegisterResult{}, err
	}

	email, err := util.ValidateEmail(req.Email)
	if err != nil {
		return RegisterResult{}, err
	}

	if req.FirstName == "" {
		return RegisterResult{}, model.ErrInvalidInput
	}

	result := RegisterResult{}

	user, err := s.users.FindByPhone(ctx, phone)
	if err == nil {
		user.FirstName = req.FirstName
		user.LastName = req.LastName
		user.Email = email
		if err := s.users.UpdateProfile(ctx, user); err != nil {
			return RegisterResult{}, err
		}
	} else {
		now := time.Now().UTC()
		user = model.User{
			ID:           uuid.NewString(),
			PhoneNumber:  phone,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Email:        email,
			TokenVersion: 1,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return RegisterResult{}, err
		}
		result.Created = true
	}

	token, expiresAt, err := s.tokens.Mint(user)
	if err != nil {
		return RegisterResult{}, err
	}

	result.User = user
	result.Token = token
	result.ExpiresAt = expiresAt

	if _, err := s.credentials.GetOrCreate(ctx, user); err != nil {
		slog.Warn("plane provisioning deferred", "user_id", user.ID, "error", err)
	} else {
		result.PlaneReady = true
	}

	return result, nil
}

type OnboardResult struct {
	User          model.User
	AlreadyExists bool
}

// Onboard captures name and phone for a new user; an existing phone just
// reports back the user it belongs to.
func (s *AuthService) Onboard(ctx context.Context, req model.OnboardingRequest) (OnboardResult, error) {
	phone, err := util.NormalizePhone(req.PhoneNumber)
	if err != nil {
		return OnboardResult{}, err
	}

	if user, err := s.users.FindByPhone(ctx, phone); err == nil {
		return OnboardResult{User: user, AlreadyExists: true}, nil
	}

	first, last := util.SplitName(req.Name)
	if first == "" {
		return OnboardResult{}, model.ErrInvalidInput
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		PhoneNumber:  phone,
		FirstName:    first,
		LastName:     last,
		TokenVersion: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return OnboardResult{}, err
	}

	if _, err := s.credentials.GetOrCreate(ctx, user); err != nil {
		slog.Warn("plane provisioning deferred", "user_id", user.ID, "error", err)
	}

	return OnboardResult{User: user}, nil
}
