// Package contentclient calls the remote content service over HTTP.
package contentclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"

	"scriptura/pkg/domain"
)

// Client calls the remote content service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a content service error response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs a content service client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// TopicsByCategory fetches topics for one category. Transport failures and
// 5xx responses are retried a bounded number of times; 4xx responses are
// not. Callers treat any returned error as "remote has no data".
func (c *Client) TopicsByCategory(ctx context.Context, category domain.Category) ([]domain.Topic, error) {
	var topics []domain.Topic
	err := retry.Do(
		func() error {
			fetched, err := c.fetch(ctx, category)
			if err != nil {
				return err
			}
			topics = fetched
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status >= http.StatusInternalServerError
			}
			return true
		}),
	)
	if err != nil {
		return nil, err
	}
	return topics, nil
}

func (c *Client) fetch(ctx context.Context, category domain.Category) ([]domain.Topic, error) {
	endpoint := c.baseURL + "/topics?category=" + url.QueryEscape(string(category))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
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
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	var payload struct {
		Topics []domain.Topic `json:"topics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Topics, nil
}
