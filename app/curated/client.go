package curated

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/newswatch/newswatch/app/feed"
)

const memoTTL = 60 * time.Second

// Client fetches the externally curated priority post feed on demand.
// Failures degrade to an empty set; the curated layer is additive and
// must never fail a news request. Responses are memoized briefly so a
// burst of requests does not hammer the curation service.
type Client struct {
	httpClient *http.Client
	url        string
	userAgent  string

	mu        sync.Mutex
	memo      []feed.PriorityPost
	fetchedAt time.Time
}

func NewClient(httpClient *http.Client, url, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		url:        url,
		userAgent:  userAgent,
	}
}

// Fetch returns the current curated posts, optionally filtered to one
// target region. A missing or failing curation endpoint yields nil.
func (c *Client) Fetch(ctx context.Context, region string) []feed.PriorityPost {
	if c.url == "" {
		return nil
	}

	posts, err := c.fetchAll(ctx)
	if err != nil {
		slog.Warn("Curated feed fetch failed", "error", err)
		return nil
	}

	if region == "" || region == "all" {
		return posts
	}

	filtered := make([]feed.PriorityPost, 0, len(posts))
	for _, post := range posts {
		if post.Region == region || post.Region == "" {
			filtered = append(filtered, post)
		}
	}
	return filtered
}

func (c *Client) fetchAll(ctx context.Context) ([]feed.PriorityPost, error) {
	c.mu.Lock()
	// fetchedAt, not the memo itself, decides freshness: an empty
	// curated feed is a valid result and must be memoized too.
	if !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < memoTTL {
		posts := c.memo
		c.mu.Unlock()
		return posts, nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, "GET", c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch curated feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var posts []feed.PriorityPost
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, fmt.Errorf("failed to parse curated feed: %w", err)
	}

	c.mu.Lock()
	c.memo = posts
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return posts, nil
}
