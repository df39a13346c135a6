package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Johannes-Berggren/CommitQuery/internal/models"
	"github.com/google/uuid"
)

const (
	tokenPath     = "/api/token"
	commitsPath   = "/api/commits"
	textPath      = "/api/commits/text"
	checkAuthPath = "/api/check-auth"

	defaultRetryDelay = 500 * time.Millisecond
)

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token() (string, bool)
}

// Client talks to the commit query server.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpCli    *http.Client
	retries    int
	retryDelay time.Duration
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	Timeout time.Duration
	Retries int
}

func NewClient(baseURL string, tokens TokenSource, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpCli:    &http.Client{Timeout: timeout},
		retries:    opts.Retries,
		retryDelay: defaultRetryDelay,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token. It is never retried.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("username", username); err != nil {
		return "", fmt.Errorf("building login form: %w", err)
	}
	if err := w.WriteField("password", password); err != nil {
		return "", fmt.Errorf("building login form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("building login form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Request-Id", uuid.NewString())

	status, data, err := c.do(req)
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		err := responseError(status, data, "登录失败")
		// Bad credentials come back as a 401 too; for login that's an
		// ordinary failure, not an expired session.
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return "", &Error{Status: status, Detail: authErr.Detail}
		}
		return "", err
	}

	var tr tokenResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("server returned no access token")
	}
	return tr.AccessToken, nil
}

// ListCommits fetches one page of commits for q.
func (c *Client) ListCommits(ctx context.Context, q models.Query) (models.CommitPage, error) {
	var page models.CommitPage
	if err := c.postJSON(ctx, commitsPath, q, &page, "获取提交信息失败"); err != nil {
		return models.CommitPage{}, err
	}
	if page.Page < 1 || page.PageSize < 1 || page.TotalPages < 1 || page.Total < 0 {
		return models.CommitPage{}, fmt.Errorf("invalid pagination in response: %+v", page.Pagination)
	}
	if page.Items == nil {
		page.Items = []models.Commit{}
	}
	return page, nil
}

// ExportText fetches the plain-text rendering of every commit matching q.
// An empty string is returned as is; callers decide what empty means.
func (c *Client) ExportText(ctx context.Context, q models.ExportQuery) (string, error) {
	var export models.TextExport
	if err := c.postJSON(ctx, textPath, q, &export, "导出文本格式失败"); err != nil {
		return "", err
	}
	return export.Content, nil
}

// AuthStatus is the server's view of the current token.
type AuthStatus struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
}

// CheckAuth asks the server whether the stored token is still accepted.
func (c *Client) CheckAuth(ctx context.Context) (AuthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+checkAuthPath, nil)
	if err != nil {
		return AuthStatus{}, fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)

	status, data, err := c.do(req)
	if err != nil {
		return AuthStatus{}, err
	}
	if status < 200 || status > 299 {
		return AuthStatus{}, responseError(status, data, "检查登录状态失败")
	}

	var as AuthStatus
	if err := json.Unmarshal(data, &as); err != nil {
		return AuthStatus{}, fmt.Errorf("parsing response: %w", err)
	}
	return as, nil
}

// authorize attaches the bearer token and the JSON content type.
func (c *Client) authorize(req *http.Request) {
	token, _ := c.tokens.Token()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
}

// postJSON sends payload and decodes a 2xx body into out. Transport failures
// and gateway errors are retried up to c.retries times.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any, fallback string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	var status int
	var data []byte
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		c.authorize(req)

		status, data, err = c.do(req)
		if attempt >= c.retries || !retryable(ctx, status, err) {
			if err != nil {
				return err
			}
			break
		}
		log.Printf("api: %s attempt %d failed (status %d, err %v), retrying", path, attempt+1, status, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}

	if status < 200 || status > 299 {
		return responseError(status, data, fallback)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	log.Printf("api: %s %s (%s)", req.Method, req.URL.Path, req.Header.Get("X-Request-Id"))
	resp, err := c.httpCli.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	log.Printf("api: %s %s -> %d", req.Method, req.URL.Path, resp.StatusCode)
	return resp.StatusCode, data, nil
}

func retryable(ctx context.Context, status int, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		return true
	}
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
