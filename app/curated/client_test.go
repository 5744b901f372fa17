package curated

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const curatedPayload = `[
  {"id": "c1", "title": "Breaking development", "region": "ukraine", "tag": "breaking", "published_at": "2026-08-17T10:00:00Z"},
  {"id": "c2", "title": "Pinned explainer", "region": "taiwan", "tag": "pinned", "published_at": "2026-08-16T09:00:00Z"},
  {"id": "c3", "title": "Global context", "region": "", "tag": "context", "published_at": "2026-08-15T08:00:00Z"}
]`

func curatedServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(curatedPayload))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_FetchAllRegions(t *testing.T) {
	var hits atomic.Int32
	server := curatedServer(t, &hits)
	client := NewClient(server.Client(), server.URL, "newswatch-test")

	posts := client.Fetch(context.Background(), "all")
	if len(posts) != 3 {
		t.Fatalf("Expected 3 curated posts, got %d", len(posts))
	}
	if posts[0].ID != "c1" {
		t.Errorf("Unexpected first post: %s", posts[0].ID)
	}
}

func TestClient_FetchFiltersRegion(t *testing.T) {
	var hits atomic.Int32
	server := curatedServer(t, &hits)
	client := NewClient(server.Client(), server.URL, "newswatch-test")

	posts := client.Fetch(context.Background(), "ukraine")

	// Region-scoped fetch keeps matching posts plus region-less ones
	if len(posts) != 2 {
		t.Fatalf("Expected 2 posts for ukraine, got %d", len(posts))
	}
	for _, post := range posts {
		if post.Region != "ukraine" && post.Region != "" {
			t.Errorf("Post %s has unexpected region %s", post.ID, post.Region)
		}
	}
}

func TestClient_MemoizesAcrossRequests(t *testing.T) {
	var hits atomic.Int32
	server := curatedServer(t, &hits)
	client := NewClient(server.Client(), server.URL, "newswatch-test")

	client.Fetch(context.Background(), "all")
	client.Fetch(context.Background(), "ukraine")
	client.Fetch(context.Background(), "taiwan")

	if got := hits.Load(); got != 1 {
		t.Errorf("Expected 1 upstream request under memoization, got %d", got)
	}
}

func TestClient_MemoizesEmptyFeed(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("null"))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "newswatch-test")

	client.Fetch(context.Background(), "all")
	client.Fetch(context.Background(), "all")

	if got := hits.Load(); got != 1 {
		t.Errorf("Empty feed must be memoized like any other, got %d upstream requests", got)
	}
}

func TestClient_FailureYieldsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "newswatch-test")
	if posts := client.Fetch(context.Background(), "all"); posts != nil {
		t.Errorf("Expected nil on upstream failure, got %d posts", len(posts))
	}
}

func TestClient_NoURLConfigured(t *testing.T) {
	client := NewClient(http.DefaultClient, "", "newswatch-test")
	if posts := client.Fetch(context.Background(), "all"); posts != nil {
		t.Errorf("Expected nil when no curation endpoint is configured")
	}
}
