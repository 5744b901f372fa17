package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/newswatch/newswatch/app/feed"
	"github.com/newswatch/newswatch/app/sources"
)

const blueskyEndpoint = "https://public.api.bsky.app/xrpc/app.bsky.feed.getAuthorFeed"

// BlueskyFetcher reads an author feed through the public AT Protocol
// XRPC endpoint. The source handle is the actor handle
// (e.g. "osintreports.bsky.social").
type BlueskyFetcher struct {
	httpClient *http.Client
	userAgent  string
}

var _ Fetcher = (*BlueskyFetcher)(nil)

func NewBlueskyFetcher(httpClient *http.Client, userAgent string) *BlueskyFetcher {
	return &BlueskyFetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (f *BlueskyFetcher) Platform() string {
	return sources.PlatformBluesky
}

type blueskyFeedResponse struct {
	Feed []struct {
		Post struct {
			URI    string `json:"uri"`
			Author struct {
				Handle string `json:"handle"`
			} `json:"author"`
			Record struct {
				Text      string    `json:"text"`
				CreatedAt time.Time `json:"createdAt"`
			} `json:"record"`
		} `json:"post"`
	} `json:"feed"`
}

func (f *BlueskyFetcher) FetchSource(ctx context.Context, src sources.Source) ([]feed.Post, error) {
	endpoint := fmt.Sprintf("%s?actor=%s&limit=50&filter=posts_no_replies",
		blueskyEndpoint, url.QueryEscape(src.Handle))

	data, err := fetchURL(ctx, f.httpClient, endpoint, f.userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bluesky feed: %w", err)
	}

	var response blueskyFeedResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse bluesky feed: %w", err)
	}

	posts := make([]feed.Post, 0, len(response.Feed))
	for _, entry := range response.Feed {
		post := entry.Post
		if post.URI == "" || post.Record.CreatedAt.IsZero() {
			continue
		}

		posts = append(posts, feed.Post{
			ID:          postID(sources.PlatformBluesky, post.URI),
			Title:       excerpt(post.Record.Text, 120),
			Body:        post.Record.Text,
			SourceID:    src.ID,
			Region:      src.Region,
			Platform:    sources.PlatformBluesky,
			URL:         postURL(post.Author.Handle, post.URI),
			PublishedAt: post.Record.CreatedAt.UTC(),
		})
	}

	return posts, nil
}

// postURL maps an AT URI to the public web URL for the post.
func postURL(handle, uri string) string {
	rkey := uri
	if idx := strings.LastIndex(uri, "/"); idx >= 0 {
		rkey = uri[idx+1:]
	}
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", handle, rkey)
}
