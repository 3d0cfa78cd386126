package contentclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"scriptura/pkg/domain"
)

func TestTopicsByCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("category"); got != "PARABLE" {
			t.Errorf("unexpected category query: %q", got)
		}
		fmt.Fprint(w, `{"topics":[
			{"topicId":"t1","name":"The Sower","category":"PARABLE","sortOrder":1,"description":"A parable"},
			{"topicId":"t2","name":"The Lost Sheep","category":"PARABLE","sortOrder":2,"description":null}
		]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	topics, err := c.TopicsByCategory(context.Background(), domain.CategoryParable)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(topics))
	}
	if topics[0].Description == nil || *topics[0].Description != "A parable" {
		t.Fatalf("remote description should survive decoding: %+v", topics[0])
	}
	if topics[1].Description != nil {
		t.Fatalf("null description should decode to nil")
	}
}

func TestTopicsByCategoryRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"topics":[{"topicId":"t1","name":"Creation","category":"EVENT","sortOrder":1}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	topics, err := c.TopicsByCategory(context.Background(), domain.CategoryEvent)
	if err != nil {
		t.Fatalf("fetch after retries: %v", err)
	}
	if len(topics) != 1 {
		t.Fatalf("expected 1 topic, got %d", len(topics))
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestTopicsByCategoryDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"unknown category"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.TopicsByCategory(context.Background(), domain.CategoryTheme)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
	if apiErr.Message != "unknown category" {
		t.Fatalf("unexpected message: %q", apiErr.Message)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", got)
	}
}
