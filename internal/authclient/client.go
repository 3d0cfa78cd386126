// Package authclient calls the auth service's refresh endpoint.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"scriptura/pkg/domain"
)

// Client calls the auth service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents an auth service error response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs an auth service client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Exchange trades the long-lived refresh token for a fresh token pair.
// Any non-success response is an error; the coordinator decides what a
// failed exchange means for stored credentials.
func (c *Client) Exchange(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return domain.TokenPair{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return domain.TokenPair{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.TokenPair{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if msg == "" {
			msg = resp.Status
		}
		return domain.TokenPair{}, &APIError{Status: resp.StatusCode, Message: msg}
	}
	var pair domain.TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return domain.TokenPair{}, err
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return domain.TokenPair{}, errors.New("auth service returned incomplete token pair")
	}
	return pair, nil
}
