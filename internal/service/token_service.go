package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kriya-gateway/internal/model"
	"kriya-gateway/pkg/apierror"
)

// TokenService mints and verifies Kriya bearer tokens and resolves them to
// live users. A token is valid only while its embedded token_version
// matches the user's current revocation counter.
type TokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
	users  UserStore

	// now is swapped in tests to control expiry.
	now func() time.Time
}

func NewTokenService(secret string, expiry time.Duration, issuer string, users UserStore) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		users:  users,
		now:    time.Now,
	}
}

func (s *TokenService) Mint(user model.User) (string, time.Time, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.expiry)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":           user.ID,
		"phone_number":  user.PhoneNumber,
		"token_version": user.TokenVersion,
		"iat":           now.Unix(),
		"exp":           expiresAt.Unix(),
		"iss":           s.issuer,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Verify checks signature and expiry. Malformed input, a bad signature,
// and an elapsed expiry all yield the same unauthorized error so callers
// cannot tell which check failed.
func (s *TokenService) Verify(tokenString string) (*model.TokenClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errUnauthorized()
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !parsed.Valid {
		return nil, errUnauthorized()
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errUnauthorized()
	}

	claims := &model.TokenClaims{}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.PhoneNumber, _ = claimsMap["phone_number"].(string)
	if version, exists := claimsMap["token_version"].(float64); exists {
		claims.TokenVersion = int64(version)
	}

	if claims.UserID == "" {
		return nil, errUnauthorized()
	}

	return claims, nil
}

// Resolve turns a bearer token into the live user it belongs to. An absent
// user and a stale token_version both surface as the same unauthorized
// error as a bad token.
func (s *TokenService) Resolve(ctx context.Context, tokenString string) (model.User, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return model.User{}, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return model.User{}, errUnauthorized()
	}

	if claims.TokenVersion != user.TokenVersion {
		return model.User{}, errUnauthorized()
	}

	return user, nil
}

// RevokeAll invalidates every outstanding token for the user by bumping
// the revocation counter.
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	_, err := s.users.IncrementTokenVersion(ctx, userID)
	return err
}

func errUnauthorized() error {
	return apierror.Unauthorized("invalid or expired token")
}
