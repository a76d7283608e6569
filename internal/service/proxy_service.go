package service

import (
	"context"
	"net/url"
	"strings"

	"kriya-gateway/internal/model"
	"kriya-gateway/internal/plane"
)

// ProxyService relays arbitrary Plane API calls with the user's cached
// downstream credential. It never interprets downstream payloads.
type ProxyService struct {
	credentials *CredentialService
	plane       *plane.Client
}

func NewProxyService(credentials *CredentialService, planeClient *plane.Client) *ProxyService {
	return &ProxyService{credentials: credentials, plane: planeClient}
}

// Forward resolves the user's credential and relays the call. The returned
// result carries the downstream status and body verbatim; an error means
// the gateway itself failed (credential acquisition or transport).
func (s *ProxyService) Forward(ctx context.Context, user model.User, method string, path string, query url.Values, body []byte) (*plane.ForwardResult, error) {
	cred, err := s.credentials.GetOrCreate(ctx, user)
	if err != nil {
		return nil, err
	}

	return s.plane.Forward(ctx, cred.APIToken, method, normalizePath(path), query, body)
}

// normalizePath anchors the forwarded path under Plane's /api prefix.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		return path
	}
	return "/api" + path
}
