package plane

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"kriya-gateway/internal/util"
	"kriya-gateway/pkg/apierror"
)

const apiKeyHeader = "X-Api-Key"

// Client talks to the Plane backend on behalf of Kriya users. The probe
// client carries a short timeout of its own because the cached-credential
// probe gates the broker's fast path.
type Client struct {
	baseURL string
	http    *http.Client
	probe   *http.Client
}

// Identity is the downstream user as Plane reports it.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ForwardResult carries a downstream response back verbatim.
type ForwardResult struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

func NewClient(baseURL string, timeout time.Duration, probeTimeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		probe:   &http.Client{Timeout: probeTimeout},
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session is an authenticated browsing session with Plane, established by
// exchanging a Kriya bearer token. Authentication rides on cookies.
type Session struct {
	client  *Client
	browser *http.Client
}

// ExchangeToken authenticates with Plane using a Kriya bearer token,
// creating the Plane account if it does not exist yet.
func (c *Client) ExchangeToken(ctx context.Context, kriyaToken string) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	browser := &http.Client{Timeout: c.http.Timeout, Jar: jar}

	payload, err := json.Marshal(map[string]string{"token": kriyaToken})
	if err != nil {
		return nil, fmt.Errorf("marshal token exchange payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/auth/kriya/token/", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build token exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := browser.Do(req)
	if err != nil {
		return nil, gatewayError("token exchange with plane failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, planeError("token exchange with plane failed", resp)
	}

	return &Session{client: c, browser: browser}, nil
}

// Identity fetches the downstream user behind the session.
func (s *Session) Identity(ctx context.Context) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.client.baseURL+"/api/users/me/", nil)
	if err != nil {
		return Identity{}, fmt.Errorf("build identity request: %w", err)
	}

	resp, err := s.browser.Do(req)
	if err != nil {
		return Identity{}, gatewayError("fetch plane identity failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Identity{}, planeError("fetch plane identity failed", resp)
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return Identity{}, fmt.Errorf("decode plane identity: %w", err)
	}

	return identity, nil
}

// CreateAPIToken mints a long-lived Plane API token for the session's user.
func (s *Session) CreateAPIToken(ctx context.Context, label string, description string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"label":       label,
		"description": description,
	})
	if err != nil {
		return "", fmt.Errorf("marshal api token payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.client.baseURL+"/api/users/me/api-tokens/", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build api token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.browser.Do(req)
	if err != nil {
		return "", gatewayError("create plane api token failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", planeError("create plane api token failed", resp)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode api token response: %w", err)
	}

	if body.Token == "" {
		return "", apierror.BadGateway("plane did not return an api token", "")
	}

	return body.Token, nil
}

// ValidateAPIToken probes a cached API token with a cheap authenticated
// read. Any failure, including timeouts, reads as invalid.
func (c *Client) ValidateAPIToken(ctx context.Context, apiToken string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/users/me/", nil)
	if err != nil {
		return false
	}
	req.Header.Set(apiKeyHeader, apiToken)

	resp, err := c.probe.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// Forward relays a request to Plane with the user's API token and returns
// the downstream status and body untouched. Only transport failures become
// errors; downstream application errors are part of the result.
func (c *Client) Forward(ctx context.Context, apiToken string, method string, path string, query url.Values, body []byte) (*ForwardResult, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build forward request: %w", err)
	}
	req.Header.Set(apiKeyHeader, apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, gatewayError("forward request to plane failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gatewayError("read plane response failed", err)
	}

	return &ForwardResult{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        respBody,
	}, nil
}

// CreateIssue creates an issue in the given workspace/project and returns
// the decoded downstream payload.
func (c *Client) CreateIssue(ctx context.Context, apiToken string, workspaceSlug string, projectID string, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal issue payload: %w", err)
	}

	path := fmt.Sprintf("/api/workspaces/%s/projects/%s/issues/", workspaceSlug, projectID)
	result, err := c.Forward(ctx, apiToken, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, err
	}

	if result.StatusCode != http.StatusOK && result.StatusCode != http.StatusCreated {
		detail := util.SanitizeASCII(string(result.Body))
		return nil, apierror.BadGateway("plane rejected issue creation", detail)
	}

	var issue map[string]any
	if err := json.Unmarshal(result.Body, &issue); err != nil {
		return nil, fmt.Errorf("decode issue response: %w", err)
	}

	return issue, nil
}

func gatewayError(message string, err error) error {
	return apierror.BadGateway(message, util.SanitizeASCII(err.Error()))
}

func planeError(message string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := fmt.Sprintf("status %d", resp.StatusCode)
	if sanitized := util.SanitizeASCII(string(body)); sanitized != "" {
		detail += ": " + sanitized
	}
	return apierror.BadGateway(message, detail)
}
