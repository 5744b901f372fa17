package database

import (
	"time"

	"github.com/newswatch/newswatch/app/feed"
)

// Snapshot is one durable cache entry: the full post set for a key at a
// point in time. Replaced wholesale on every write; last writer wins.
type Snapshot struct {
	Key       string
	Posts     []feed.Post
	PostCount int
	FetchedAt time.Time
	UpdatedAt time.Time
}
