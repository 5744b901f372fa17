package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/newswatch/newswatch/app/feed"
	"github.com/newswatch/newswatch/app/sources"
)

// Aggregator runs one fetch cycle across all enabled sources and folds
// the tagged per-source results into a deduplicated, sorted post set.
// Per-source failures are logged and dropped here, at the aggregation
// boundary; only a cycle where every source failed is an error.
type Aggregator struct {
	scheduler *Scheduler
	registry  *sources.Registry
	deduper   *feed.Deduper
}

func NewAggregator(scheduler *Scheduler, registry *sources.Registry) *Aggregator {
	return &Aggregator{
		scheduler: scheduler,
		registry:  registry,
		deduper:   feed.NewDeduper(),
	}
}

func (a *Aggregator) FetchAll(ctx context.Context) ([]feed.Post, error) {
	srcs := a.registry.EnabledSources()
	if len(srcs) == 0 {
		slog.Warn("No enabled sources in registry")
		return []feed.Post{}, nil
	}

	results := a.scheduler.Run(ctx, srcs)

	var raw []feed.Post
	succeeded, failed := 0, 0
	for _, result := range results {
		if result.Err != nil {
			failed++
			slog.Warn("Source fetch failed",
				"source", result.Source.ID,
				"platform", result.Source.Platform,
				"error", result.Err)
			continue
		}
		succeeded++
		raw = append(raw, result.Posts...)
	}

	if succeeded == 0 && failed > 0 {
		return nil, fmt.Errorf("all %d sources failed in this cycle", failed)
	}

	posts := a.deduper.Run(raw)

	slog.Info("Fetch cycle completed",
		"sources", len(srcs),
		"succeeded", succeeded,
		"failed", failed,
		"raw_posts", len(raw),
		"posts", len(posts))

	return posts, nil
}
