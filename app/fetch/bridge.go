package fetch

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mmcdole/gofeed"

	"github.com/newswatch/newswatch/app/feed"
	"github.com/newswatch/newswatch/app/sources"
)

// BridgeFetcher reads scrape-based channel feeds exposed as RSS/Atom by
// bridge instances. The source handle is the full feed URL.
type BridgeFetcher struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	extractor  *feed.Extractor
	userAgent  string
}

var _ Fetcher = (*BridgeFetcher)(nil)

func NewBridgeFetcher(httpClient *http.Client, userAgent string) *BridgeFetcher {
	return &BridgeFetcher{
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		extractor:  feed.NewExtractor(),
		userAgent:  userAgent,
	}
}

func (f *BridgeFetcher) Platform() string {
	return sources.PlatformBridge
}

func (f *BridgeFetcher) FetchSource(ctx context.Context, src sources.Source) ([]feed.Post, error) {
	data, err := fetchURL(ctx, f.httpClient, src.Handle, f.userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bridge feed: %w", err)
	}

	parsed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bridge feed: %w", err)
	}

	posts := make([]feed.Post, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}

		publishedAt := item.PublishedParsed
		if publishedAt == nil {
			publishedAt = item.UpdatedParsed
		}
		if publishedAt == nil {
			slog.Debug("Skipping bridge item without timestamp", "source", src.ID, "link", item.Link)
			continue
		}

		body := cmp.Or(item.Content, item.Description)
		if feed.IsDocument([]byte(body)) {
			if extracted, err := f.extractor.Run([]byte(body)); err == nil {
				body = extracted
			}
		}

		guid := cmp.Or(item.GUID, item.Link)
		posts = append(posts, feed.Post{
			ID:          postID(sources.PlatformBridge, guid),
			Title:       item.Title,
			Body:        body,
			SourceID:    src.ID,
			Region:      src.Region,
			Platform:    sources.PlatformBridge,
			URL:         item.Link,
			PublishedAt: publishedAt.UTC(),
		})
	}

	return posts, nil
}
