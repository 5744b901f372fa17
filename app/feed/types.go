package feed

import (
	"time"
)

// Post is a normalized item fetched from one of the monitored platforms.
// Immutable once produced by a fetcher; aged out by the cache window.
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	SourceID    string    `json:"source_id"`
	Region      string    `json:"region"`
	Platform    string    `json:"platform"`
	URL         string    `json:"url"`
	Tag         string    `json:"tag,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Priority post tags, assigned by the external curation feed.
type PriorityTag string

const (
	TagBreaking PriorityTag = "breaking"
	TagPinned   PriorityTag = "pinned"
	TagContext  PriorityTag = "context"
	TagEvent    PriorityTag = "event"
)

// PriorityPost is an externally curated item layered on top of the
// regular feed by the composer.
type PriorityPost struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	Region      string      `json:"region"`
	URL         string      `json:"url"`
	Tag         PriorityTag `json:"tag"`
	PublishedAt time.Time   `json:"published_at"`
}

// Post builds the feed representation of a curated post, carrying the
// tag so clients can render the prefix sections distinctly.
func (p PriorityPost) Post() Post {
	return Post{
		ID:          p.ID,
		Title:       p.Title,
		Body:        p.Body,
		Region:      p.Region,
		Platform:    "curated",
		URL:         p.URL,
		Tag:         string(p.Tag),
		PublishedAt: p.PublishedAt,
	}
}
