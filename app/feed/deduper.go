package feed

import (
	"sort"
)

// Deduper removes exact-ID duplicates and establishes the descending
// chronological order every downstream windowing step depends on.
type Deduper struct{}

func NewDeduper() *Deduper {
	return &Deduper{}
}

// Run deduplicates strictly by post ID (first-seen wins, preserving the
// original fetch order among duplicates) and sorts the result by
// published timestamp, newest first. Ties keep fetch order.
func (d *Deduper) Run(posts []Post) []Post {
	seen := make(map[string]struct{}, len(posts))
	result := make([]Post, 0, len(posts))

	for _, post := range posts {
		if _, ok := seen[post.ID]; ok {
			continue
		}
		seen[post.ID] = struct{}{}
		result = append(result, post)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PublishedAt.After(result[j].PublishedAt)
	})

	return result
}
