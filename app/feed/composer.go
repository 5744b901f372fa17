package feed

import (
	"sort"
	"time"
)

// Composer layers curated priority posts over the chronologically
// sorted regular feed and applies the window/since/limit filters.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

// ComposeResult carries the final feed along with the full-window
// snapshot used for activity calculation. The snapshot is taken before
// the since filter so incremental requests never skew the anomaly
// signal.
type ComposeResult struct {
	Items         []Post
	WindowPosts   []Post
	TotalItems    int
	IsIncremental bool
}

// Run composes the final feed: breaking posts first, pinned posts next,
// then context/event posts merged into the regular feed by timestamp.
// The regular feed is windowed before the merge; since applies after
// windowing and only to the regular feed.
func (c *Composer) Run(regular []Post, priority []PriorityPost, windowHours int, since *time.Time, limit int) ComposeResult {
	windowed := Window(regular, windowHours)

	var breaking, pinned, timeline []Post
	for _, pp := range priority {
		switch pp.Tag {
		case TagBreaking:
			breaking = append(breaking, pp.Post())
		case TagPinned:
			pinned = append(pinned, pp.Post())
		default:
			timeline = append(timeline, pp.Post())
		}
	}
	sortByTimestampDesc(breaking)
	sortByTimestampDesc(pinned)
	sortByTimestampDesc(timeline)

	totalItems := len(breaking) + len(pinned) + len(timeline) + len(windowed)

	current := windowed
	isIncremental := false
	if since != nil {
		isIncremental = true
		filtered := make([]Post, 0, len(current))
		for _, post := range current {
			if post.PublishedAt.After(*since) {
				filtered = append(filtered, post)
			}
		}
		current = filtered
	}

	merged := mergeByTimestamp(timeline, current)

	items := make([]Post, 0, len(breaking)+len(pinned)+len(merged))
	items = append(items, breaking...)
	items = append(items, pinned...)
	items = append(items, merged...)

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	return ComposeResult{
		Items:         items,
		WindowPosts:   windowed,
		TotalItems:    totalItems,
		IsIncremental: isIncremental,
	}
}

// Window keeps the posts published within the last windowHours.
func Window(posts []Post, windowHours int) []Post {
	cutoff := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)

	windowed := make([]Post, 0, len(posts))
	for _, post := range posts {
		if post.PublishedAt.After(cutoff) {
			windowed = append(windowed, post)
		}
	}
	return windowed
}

// mergeByTimestamp merges two descending-sorted slices with a
// two-pointer walk, preserving global descending order.
func mergeByTimestamp(a, b []Post) []Post {
	merged := make([]Post, 0, len(a)+len(b))
	i, j := 0, 0

	for i < len(a) && j < len(b) {
		if a[i].PublishedAt.After(b[j].PublishedAt) {
			merged = append(merged, a[i])
			i++
		} else {
			merged = append(merged, b[j])
			j++
		}
	}
	merged = append(merged, a[i:]...)
	merged = append(merged, b[j:]...)

	return merged
}

func sortByTimestampDesc(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})
}
