package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kriya-gateway/internal/model"
	"kriya-gateway/internal/plane"
	"kriya-gateway/internal/service"
	"kriya-gateway/pkg/apierror"
)

const (
	testSecret     = "handler-test-secret-at-least-32-chars!"
	testServiceKey = "service-api-key"
)

// stubStore is an in-memory service.UserStore for handler tests.
type stubStore struct {
	mu      sync.Mutex
	byID    map[string]model.User
	byPhone map[string]string
}

func newStubStore() *stubStore {
	return &stubStore{byID: map[string]model.User{}, byPhone: map[string]string{}}
}

func (s *stubStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.byID[id]
	if !exists {
		return model.User{}, apierror.NotFound("user not found", id)
	}
	return u, nil
}

func (s *stubStore) FindByPhone(_ context.Context, phoneNumber string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.byPhone[phoneNumber]
	if !exists {
		return model.User{}, apierror.NotFound("user not found", phoneNumber)
	}
	return s.byID[id], nil
}

func (s *stubStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[u.ID] = u
	s.byPhone[u.PhoneNumber] = u.ID
	return nil
}

func (s *stubStore) UpdateProfile(_ context.Context, u model.User) error {
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

func (s *stubStore) IncrementTokenVersion(_ context.Context, userID string) (int64, error) {
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

func (s *stubStore) SavePlaneCredential(_ context.Context, userID string, cred model.PlaneCredential) error {
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

// stubPlane is a minimal Plane backend that serves the credential
// handshake and counts exchanges so tests can assert caching behavior.
type stubPlane struct {
	mu          sync.Mutex
	validTokens map[string]bool
	exchanges   atomic.Int32
	server      *httptest.Server

	// last proxied request, captured by the catch-all handler.
	lastMethod string
	lastPath   string
	lastQuery  string
	lastAPIKey string
	lastBody   []byte
}

func newStubPlane(t *testing.T) *stubPlane {
	t.Helper()

	f := &stubPlane{validTokens: map[string]bool{}}
	mux := http.NewServeMux()

	// Everything else behaves like an arbitrary Plane endpoint.
	fallback := func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.lastMethod = r.Method
		f.lastPath = r.URL.Path
		f.lastQuery = r.URL.RawQuery
		f.lastAPIKey = r.Header.Get("X-Api-Key")
		f.lastBody = body
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"detail":"teapot"}`))
	}

	mux.HandleFunc("/api/auth/kriya/token/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			fallback(w, r)
			return
		}
		f.exchanges.Add(1)
		http.SetCookie(w, &http.Cookie{Name: "plane_session", Value: "session-cookie"})
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/api/users/me/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			fallback(w, r)
			return
		}
		if apiKey := r.Header.Get("X-Api-Key"); apiKey != "" {
			f.mu.Lock()
			valid := f.validTokens[apiKey]
			f.mu.Unlock()
			if !valid {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
		}
		_ = json.NewEncoder(w).Encode(plane.Identity{ID: "plane-user-1", Email: "ada@plane.dev"})
	})

	mux.HandleFunc("/api/users/me/api-tokens/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			fallback(w, r)
			return
		}
		token := "plane-api-token"
		f.mu.Lock()
		f.validTokens[token] = true
		f.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
	})

	issuesPath := regexp.MustCompile(`^/api/workspaces/[^/]+/projects/[^/]+/issues/`)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && issuesPath.MatchString(r.URL.Path) {
			var payload map[string]any
			_ = json.NewDecoder(r.Body).Decode(&payload)
			payload["id"] = "issue-1"

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(payload)
			return
		}
		fallback(w, r)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

type authFixture struct {
	handler  *AuthHandler
	store    *stubStore
	plane    *stubPlane
	tokens   *service.TokenService
	sessions *service.SessionService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	store := newStubStore()
	fake := newStubPlane(t)
	client := plane.NewClient(fake.server.URL, 5*time.Second, time.Second)
	tokens := service.NewTokenService(testSecret, time.Hour, "kriya-backend", store)
	sessions := service.NewSessionService(store)
	credentials := service.NewCredentialService(store, tokens, client, "default-ws", "default-project")
	auth := service.NewAuthService(store, tokens, credentials)

	return &authFixture{
		handler:  NewAuthHandler(auth, tokens, sessions, testServiceKey, false),
		store:    store,
		plane:    fake,
		tokens:   tokens,
		sessions: sessions,
	}
}

func (f *authFixture) register(t *testing.T, payload model.RegisterRequest) (*httptest.ResponseRecorder, model.APIResponse) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.Register(rec, req)

	var envelope model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func registerData(t *testing.T, envelope model.APIResponse) model.RegisterResponse {
	t.Helper()

	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)

	var data model.RegisterResponse
	require.NoError(t, json.Unmarshal(raw, &data))
	return data
}

func TestAuthHandler_RegisterNewUser(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)

	rec, envelope := f.register(t, model.RegisterRequest{
		PhoneNumber: "+1 234-567-8901",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "ada@example.com",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, envelope.Success)

	data := registerData(t, envelope)
	require.Equal(t, "Registration successful", data.Message)
	require.NotEmpty(t, data.Token)
	require.True(t, data.PlaneReady)
	require.Equal(t, "+12345678901", data.User.PhoneNumber)
	require.Equal(t, "Ada", data.User.FirstName)

	// The bearer token resolves back to the same user.
	user, err := f.tokens.Resolve(context.Background(), data.Token)
	require.NoError(t, err)
	require.Equal(t, data.User.ID, user.ID)

	// A browser session cookie rides along with registration.
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "kriya_session", cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)

	sessionUser, err := f.sessions.Resolve(context.Background(), cookies[0].Value)
	require.NoError(t, err)
	require.Equal(t, user.ID, sessionUser.ID)
}

func TestAuthHandler_ReRegisterUpdatesProfile(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)

	_, first := f.register(t, model.RegisterRequest{
		PhoneNumber: "+12345678901",
		FirstName:   "Ada",
		LastName:    "Lovelace",
	})
	firstData := registerData(t, first)

	rec, second := f.register(t, model.RegisterRequest{
		PhoneNumber: "+12345678901",
		FirstName:   "Ada",
		LastName:    "King",
		Email:       "ada@example.com",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	secondData := registerData(t, second)
	require.Equal(t, "Login successful", secondData.Message)
	require.Equal(t, firstData.User.ID, secondData.User.ID)
	require.Equal(t, "King", secondData.User.LastName)
	require.Equal(t, "ada@example.com", secondData.User.Email)

	// The cached Plane credential is reused; no second handshake.
	require.EqualValues(t, 1, f.plane.exchanges.Load())
}

func TestAuthHandler_RegisterRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)

	t.Run("bad phone number", func(t *testing.T) {
		rec, envelope := f.register(t, model.RegisterRequest{PhoneNumber: "12345", FirstName: "Ada"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.False(t, envelope.Success)
		require.Equal(t, "BAD_REQUEST", envelope.Error.Code)
	})

	t.Run("missing first name", func(t *testing.T) {
		rec, _ := f.register(t, model.RegisterRequest{PhoneNumber: "+12345678901"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		f.handler.Register(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandler_ValidateToken(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	_, envelope := f.register(t, model.RegisterRequest{
		PhoneNumber: "+12345678901",
		FirstName:   "Ada",
	})
	token := registerData(t, envelope).Token

	validate := func(t *testing.T, payload model.ValidateTokenRequest, headerKey string) (*httptest.ResponseRecorder, model.APIResponse) {
		t.Helper()

		body, err := json.Marshal(payload)
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/api/auth/validate-token", bytes.NewReader(body))
		if headerKey != "" {
			req.Header.Set("X-API-Key", headerKey)
		}
		rec := httptest.NewRecorder()
		f.handler.ValidateToken(rec, req)

		var out model.APIResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return rec, out
	}

	t.Run("valid token with header key", func(t *testing.T) {
		rec, out := validate(t, model.ValidateTokenRequest{Token: token}, testServiceKey)
		require.Equal(t, http.StatusOK, rec.Code)

		raw, _ := json.Marshal(out.Data)
		var data model.ValidateTokenResponse
		require.NoError(t, json.Unmarshal(raw, &data))
		require.True(t, data.Valid)
		require.NotNil(t, data.User)
		require.Equal(t, "+12345678901", data.User.PhoneNumber)
	})

	t.Run("valid token with body key", func(t *testing.T) {
		rec, _ := validate(t, model.ValidateTokenRequest{Token: token, APIKey: testServiceKey}, "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong service key is forbidden", func(t *testing.T) {
		rec, out := validate(t, model.ValidateTokenRequest{Token: token}, "wrong-key")
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.False(t, out.Success)
	})

	t.Run("garbage token reports invalid without erroring", func(t *testing.T) {
		rec, out := validate(t, model.ValidateTokenRequest{Token: "not-a-jwt"}, testServiceKey)
		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, out.Success)

		raw, _ := json.Marshal(out.Data)
		var data model.ValidateTokenResponse
		require.NoError(t, json.Unmarshal(raw, &data))
		require.False(t, data.Valid)
	})
}

func TestAuthHandler_LogoutRevokesAllTokens(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	_, envelope := f.register(t, model.RegisterRequest{
		PhoneNumber: "+12345678901",
		FirstName:   "Ada",
	})
	token := registerData(t, envelope).Token

	req := httptest.NewRequest("POST", "/api/auth/logout?token="+token, nil)
	rec := httptest.NewRecorder()
	f.handler.Logout(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// The revocation counter bump invalidates the old token.
	_, err := f.tokens.Resolve(context.Background(), token)
	require.Error(t, err)

	getReq := httptest.NewRequest("GET", "/api/auth/user?token="+token, nil)
	getRec := httptest.NewRecorder()
	f.handler.GetUser(getRec, getReq)
	require.Equal(t, http.StatusUnauthorized, getRec.Code)
}
