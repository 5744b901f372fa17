package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/newswatch/newswatch/app/feed"
	"github.com/newswatch/newswatch/app/sources"
)

// MastodonFetcher reads federated-network accounts through the public
// statuses endpoint. The source handle is "<instance>/<account-id>".
type MastodonFetcher struct {
	httpClient *http.Client
	userAgent  string
}

var _ Fetcher = (*MastodonFetcher)(nil)

func NewMastodonFetcher(httpClient *http.Client, userAgent string) *MastodonFetcher {
	return &MastodonFetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (f *MastodonFetcher) Platform() string {
	return sources.PlatformMastodon
}

type mastodonStatus struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Content   string    `json:"content"`
	URL       string    `json:"url"`
	URI       string    `json:"uri"`
}

func (f *MastodonFetcher) FetchSource(ctx context.Context, src sources.Source) ([]feed.Post, error) {
	instance, accountID, ok := strings.Cut(src.Handle, "/")
	if !ok {
		return nil, fmt.Errorf("invalid mastodon handle '%s': expected <instance>/<account-id>", src.Handle)
	}

	url := fmt.Sprintf("https://%s/api/v1/accounts/%s/statuses?limit=40&exclude_replies=true&exclude_reblogs=true",
		instance, accountID)

	data, err := fetchURL(ctx, f.httpClient, url, f.userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch mastodon statuses: %w", err)
	}

	var statuses []mastodonStatus
	if err := json.Unmarshal(data, &statuses); err != nil {
		return nil, fmt.Errorf("failed to parse mastodon statuses: %w", err)
	}

	posts := make([]feed.Post, 0, len(statuses))
	for _, status := range statuses {
		if status.ID == "" || status.CreatedAt.IsZero() {
			continue
		}

		body := stripHTML(status.Content)
		posts = append(posts, feed.Post{
			ID:          postID(sources.PlatformMastodon, instance+"/"+status.ID),
			Title:       excerpt(body, 120),
			Body:        body,
			SourceID:    src.ID,
			Region:      src.Region,
			Platform:    sources.PlatformMastodon,
			URL:         status.URL,
			PublishedAt: status.CreatedAt.UTC(),
		})
	}

	return posts, nil
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	breakPattern = regexp.MustCompile(`(?i)<br\s*/?>|</p>`)
)

// stripHTML flattens a status content fragment to plain text, keeping
// paragraph breaks as newlines.
func stripHTML(content string) string {
	content = breakPattern.ReplaceAllString(content, "\n")
	content = tagPattern.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "&amp;", "&")
	content = strings.ReplaceAll(content, "&lt;", "<")
	content = strings.ReplaceAll(content, "&gt;", ">")
	content = strings.ReplaceAll(content, "&quot;", "\"")
	content = strings.ReplaceAll(content, "&#39;", "'")
	return strings.TrimSpace(content)
}

// excerpt truncates text to a title-sized first line.
func excerpt(text string, max int) string {
	if line, _, ok := strings.Cut(text, "\n"); ok {
		text = line
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
