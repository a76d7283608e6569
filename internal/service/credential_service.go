package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"kriya-gateway/internal/model"
	"kriya-gateway/internal/plane"
)

// CredentialService ensures each user holds a valid Plane API credential,
// acquiring one through the server-to-server handshake when the cache is
// empty or stale. Acquisition is deduplicated per user so concurrent
// requests cannot create duplicate downstream accounts or tokens.
type CredentialService struct {
	users            UserStore
	tokens           *TokenService
	plane            *plane.Client
	defaultWorkspace string
	defaultProject   string

	group singleflight.Group
}

func NewCredentialService(users UserStore, tokens *TokenService, planeClient *plane.Client, defaultWorkspace string, defaultProject string) *CredentialService {
	return &CredentialService{
		users:            users,
		tokens:           tokens,
		plane:            planeClient,
		defaultWorkspace: defaultWorkspace,
		defaultProject:   defaultProject,
	}
}

// GetOrCreate returns the user's Plane credential bundle. A cached bundle
// that survives the cheap probe is returned without any handshake.
func (s *CredentialService) GetOrCreate(ctx context.Context, user model.User) (model.PlaneCredential, error) {
	if user.Plane.HasToken() && s.plane.ValidateAPIToken(ctx, user.Plane.APIToken) {
		return user.Plane, nil
	}

	// The flight must outlive the first caller: waiters would otherwise
	// inherit its cancellation.
	flightCtx := context.WithoutCancel(ctx)
	result, err, _ := s.group.Do(user.ID, func() (any, error) {
		return s.acquire(flightCtx, user.ID)
	})
	if err != nil {
		return model.PlaneCredential{}, err
	}

	return result.(model.PlaneCredential), nil
}

func (s *CredentialService) acquire(ctx context.Context, userID string) (model.PlaneCredential, error) {
	// Re-fetch: a flight that completed between the caller's check and
	// this one may already have cached a fresh credential.
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.PlaneCredential{}, err
	}

	if user.Plane.HasToken() && s.plane.ValidateAPIToken(ctx, user.Plane.APIToken) {
		return user.Plane, nil
	}

	// Internal-use token, never returned to the client.
	kriyaToken, _, err := s.tokens.Mint(user)
	if err != nil {
		return model.PlaneCredential{}, fmt.Errorf("mint exchange token: %w", err)
	}

	session, err := s.plane.ExchangeToken(ctx, kriyaToken)
	if err != nil {
		return model.PlaneCredential{}, err
	}

	// Identity fetch is best-effort; the bundle still works without it.
	identity, err := session.Identity(ctx)
	if err != nil {
		slog.Warn("could not fetch plane identity", "user_id", userID, "error", err)
		identity = plane.Identity{}
	}

	apiToken, err := session.CreateAPIToken(ctx,
		"Kriya-"+user.PhoneNumber,
		"API token for Kriya user "+user.PhoneNumber)
	if err != nil {
		return model.PlaneCredential{}, err
	}

	cred := model.PlaneCredential{
		UserID:        identity.ID,
		APIToken:      apiToken,
		Email:         identity.Email,
		WorkspaceSlug: user.Plane.WorkspaceSlug,
		ProjectID:     user.Plane.ProjectID,
	}
	if cred.Email == "" {
		cred.Email = strings.TrimPrefix(user.PhoneNumber, "+") + "@kriya.local"
	}
	if cred.WorkspaceSlug == "" {
		cred.WorkspaceSlug = s.defaultWorkspace
	}
	if cred.ProjectID == "" {
		cred.ProjectID = s.defaultProject
	}

	if err := s.users.SavePlaneCredential(ctx, userID, cred); err != nil {
		return model.PlaneCredential{}, err
	}

	slog.Info("plane credential acquired", "user_id", userID, "plane_user_id", cred.UserID)
	return cred, nil
}

// SetManual injects a credential bundle directly, bypassing the handshake.
// Fields left empty keep the user's current value, then fall back to the
// configured defaults.
func (s *CredentialService) SetManual(ctx context.Context, phoneNumber string, req model.SetPlaneTokenRequest) (model.User, error) {
	user, err := s.users.FindByPhone(ctx, phoneNumber)
	if err != nil {
		return model.User{}, err
	}

	cred := user.Plane
	cred.APIToken = req.PlaneAPIToken
	if req.PlaneUserID != "" {
		cred.UserID = req.PlaneUserID
	}
	if req.PlaneEmail != "" {
		cred.Email = req.PlaneEmail
	}
	if req.PlaneWorkspaceSlug != "" {
		cred.WorkspaceSlug = req.PlaneWorkspaceSlug
	}
	if req.PlaneProjectID != "" {
		cred.ProjectID = req.PlaneProjectID
	}
	if cred.WorkspaceSlug == "" {
		cred.WorkspaceSlug = s.defaultWorkspace
	}
	if cred.ProjectID == "" {
		cred.ProjectID = s.defaultProject
	}

	if err := s.users.SavePlaneCredential(ctx, user.ID, cred); err != nil {
		return model.User{}, err
	}

	user.Plane = cred
	return user, nil
}
