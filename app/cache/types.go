package cache

import (
	"context"
	"time"

	"github.com/newswatch/newswatch/app/feed"
)

// KeyAll is the canonical cache key. Live fetches always produce the
// full post set; region entries are derived views of it.
const KeyAll = "all"

// FetchFunc performs one live aggregation cycle across all sources.
type FetchFunc func(ctx context.Context) ([]feed.Post, error)

// Entry is one process-local cache entry: an ordered post sequence and
// the time it was fetched. Replaced wholesale per cycle.
type Entry struct {
	Posts     []feed.Post
	FetchedAt time.Time
}

// FeedView is what the request path receives: the posts plus cache
// provenance. Stale is set only on the degraded error-fallback path.
type FeedView struct {
	Posts     []feed.Post
	FetchedAt time.Time
	FromCache bool
	Stale     bool
}

// EntryInfo is cache metadata exposed on the admin API.
type EntryInfo struct {
	Key       string    `json:"key"`
	PostCount int       `json:"post_count"`
	FetchedAt time.Time `json:"fetched_at"`
	Fresh     bool      `json:"fresh"`
}
