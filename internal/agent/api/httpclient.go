package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/capsync/internal/common"
	"github.com/dmitrijs2005/capsync/internal/logging"
)

// HTTPClient implements Client against the capsync backend HTTP API.
//
// Error policy: transport failures and non-200 statuses are logged with
// full detail (status, response body) but surfaced to callers only as the
// stable common.ErrRemoteAPI, so backend internals never leak into
// persisted uploadError messages.
type HTTPClient struct {
	baseURL string
	tokens  TokenProvider
	client  *http.Client
	logger  logging.Logger
}

func NewHTTPClient(baseURL string, tokens TokenProvider, logger logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With("component", "api"),
	}
}

type sessionURIRequest struct {
	FolderName string `json:"folderName"`
}

type sessionURIResponse struct {
	SessionURIs map[string]string `json:"sessionUris"`
}

func (c *HTTPClient) FetchSessionURIs(ctx context.Context, folderName string) (map[string]string, error) {
	body, err := json.Marshal(sessionURIRequest{FolderName: folderName})
	if err != nil {
		return nil, fmt.Errorf("marshal session uri request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/session-uri", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build session uri request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error(ctx, "session uri request transport failure", "folder", folderName, "error", err.Error())
		return nil, fmt.Errorf("%s: %w", folderName, common.ErrRemoteAPI)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error(ctx, "session uri request rejected",
			"folder", folderName, "status", resp.StatusCode, "body", string(b))
		return nil, fmt.Errorf("%s: %w", folderName, common.ErrRemoteAPI)
	}

	var out sessionURIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logger.Error(ctx, "session uri response unreadable", "folder", folderName, "error", err.Error())
		return nil, fmt.Errorf("%s: %w", folderName, common.ErrRemoteAPI)
	}
	if len(out.SessionURIs) == 0 {
		c.logger.Error(ctx, "session uri response empty", "folder", folderName)
		return nil, fmt.Errorf("%s: %w", folderName, common.ErrRemoteAPI)
	}

	return out.SessionURIs, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/token", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", common.ErrorUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("login response missing token")
	}
	return out.AccessToken, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthz returned %d", resp.StatusCode)
	}
	return nil
}
