package fetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/newswatch/newswatch/app/feed"
	"github.com/newswatch/newswatch/app/sources"
)

// Fetcher is a per-platform client returning normalized posts for one
// source. Implementations isolate platform-specific failure modes.
type Fetcher interface {
	Platform() string
	FetchSource(ctx context.Context, src sources.Source) ([]feed.Post, error)
}

// Result is the tagged outcome of one source fetch. Failures are
// carried explicitly and discarded at the aggregation boundary.
type Result struct {
	Source sources.Source
	Posts  []feed.Post
	Err    error
}

// BatchPolicy is the per-platform rate-limit tuning knob: how many
// sources fetch concurrently and how long to pause between batches.
type BatchPolicy struct {
	BatchSize int
	Delay     time.Duration
}

const sourceTimeout = 15 * time.Second

// DefaultPolicies reflects the observed tolerance of each platform.
func DefaultPolicies() map[string]BatchPolicy {
	return map[string]BatchPolicy{
		sources.PlatformBridge:   {BatchSize: 4, Delay: 500 * time.Millisecond},
		sources.PlatformMastodon: {BatchSize: 6, Delay: 250 * time.Millisecond},
		sources.PlatformBluesky:  {BatchSize: 8, Delay: 200 * time.Millisecond},
	}
}

// postID derives a stable, platform-scoped dedup key so the same post
// seen through overlapping source queries collapses to one ID.
func postID(platform, key string) string {
	hash := sha256.Sum256([]byte(platform + "|" + key))
	return fmt.Sprintf("%s:%x", platform, hash[:12])
}
