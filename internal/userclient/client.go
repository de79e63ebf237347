// Package userclient is the identity service's HTTP client for the
// user-record service. Every request carries the shared bypass secret,
// so it passes the record service's session gate without a cookie.
//
// Error contract: 4xx/5xx responses are decoded into *httperr.Error
// carrying the exact status and body the record service produced, so
// the identity handlers can relay them verbatim. Transport failures
// (connection refused, timeout) surface as plain errors.
package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/quizdeck/backend/internal/httperr"
	"github.com/quizdeck/backend/types"
)

// BypassHeader is the inter-service trust header name.
const BypassHeader = "bypass"

// Client talks to the user-record service.
type Client struct {
	baseURL      string
	bypassSecret string
	http         *http.Client
}

func New(baseURL, bypassSecret string) *Client {
	return &Client{
		baseURL:      baseURL,
		bypassSecret: bypassSecret,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) GetByID(ctx context.Context, id string) (types.User, error) {
	return c.userRequest(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, http.StatusOK)
}

func (c *Client) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return c.userRequest(ctx, http.MethodGet, "/users/by-email/"+url.PathEscape(email), nil, http.StatusOK)
}

func (c *Client) Create(ctx context.Context, user types.User) (types.User, error) {
	return c.userRequest(ctx, http.MethodPost, "/users", user, http.StatusCreated)
}

func (c *Client) Update(ctx context.Context, user types.User) (types.User, error) {
	return c.userRequest(ctx, http.MethodPut, "/users/"+url.PathEscape(user.ID), user, http.StatusOK)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return decodeError(resp)
	}
	return nil
}

// Health probes the record service's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("user service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) userRequest(ctx context.Context, method, path string, body any, wantStatus int) (types.User, error) {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return types.User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return types.User{}, decodeError(resp)
	}

	var user types.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return types.User{}, fmt.Errorf("decode user response: %w", err)
	}
	return user, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set(BypassHeader, c.bypassSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Code    string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err != nil || payload.Message == "" {
		return &httperr.Error{
			Status:  resp.StatusCode,
			Code:    httperr.CodeForStatus(resp.StatusCode),
			Message: http.StatusText(resp.StatusCode),
		}
	}
	return &httperr.Error{Status: resp.StatusCode, Code: payload.Code, Message: payload.Message}
}
