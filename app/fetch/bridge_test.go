package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newswatch/newswatch/app/sources"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Monitored Channel</title>
    <item>
      <guid>post-1</guid>
      <title>Convoy movement reported</title>
      <link>https://example.org/post-1</link>
      <description>Large convoy spotted near the border crossing.</description>
      <pubDate>Mon, 17 Aug 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <guid>post-2</guid>
      <title>Statement published</title>
      <link>https://example.org/post-2</link>
      <description>Official statement on the situation.</description>
      <pubDate>Mon, 17 Aug 2026 12:00:00 GMT</pubDate>
    </item>
    <item>
      <title>No timestamp, should be skipped</title>
      <link>https://example.org/post-3</link>
    </item>
  </channel>
</rss>`

func TestBridgeFetcher_ParsesAndNormalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	fetcher := NewBridgeFetcher(server.Client(), "newswatch-test")
	src := sources.Source{ID: "ch-1", Platform: sources.PlatformBridge, Handle: server.URL, Region: "ukraine"}

	posts, err := fetcher.FetchSource(context.Background(), src)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("Expected 2 posts (item without timestamp skipped), got %d", len(posts))
	}

	first := posts[0]
	if first.Title != "Convoy movement reported" {
		t.Errorf("Unexpected title: %s", first.Title)
	}
	if first.Region != "ukraine" {
		t.Errorf("Post must carry the source region, got %s", first.Region)
	}
	if first.Platform != sources.PlatformBridge {
		t.Errorf("Post must carry the platform, got %s", first.Platform)
	}
	if first.SourceID != "ch-1" {
		t.Errorf("Post must carry the source ID, got %s", first.SourceID)
	}
	if first.PublishedAt.IsZero() {
		t.Errorf("Post must have a parsed timestamp")
	}
}

func TestBridgeFetcher_StableIDsAcrossSources(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	fetcher := NewBridgeFetcher(server.Client(), "newswatch-test")

	srcA := sources.Source{ID: "src-a", Handle: server.URL, Region: "ukraine"}
	srcB := sources.Source{ID: "src-b", Handle: server.URL, Region: "ukraine"}

	postsA, err := fetcher.FetchSource(context.Background(), srcA)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	postsB, err := fetcher.FetchSource(context.Background(), srcB)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// The same underlying post seen through two overlapping sources
	// must produce the same dedup key
	if postsA[0].ID != postsB[0].ID {
		t.Errorf("Expected stable IDs across sources: %s vs %s", postsA[0].ID, postsB[0].ID)
	}
}

func TestBridgeFetcher_HTTPErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	fetcher := NewBridgeFetcher(server.Client(), "newswatch-test")
	src := sources.Source{ID: "ch-1", Handle: server.URL, Region: "ukraine"}

	if _, err := fetcher.FetchSource(context.Background(), src); err == nil {
		t.Fatalf("Expected error on HTTP 502")
	}
}

func TestBridgeFetcher_MalformedPayloadSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a feed"))
	}))
	defer server.Close()

	fetcher := NewBridgeFetcher(server.Client(), "newswatch-test")
	src := sources.Source{ID: "ch-1", Handle: server.URL, Region: "ukraine"}

	if _, err := fetcher.FetchSource(context.Background(), src); err == nil {
		t.Fatalf("Expected error on malformed payload")
	}
}
