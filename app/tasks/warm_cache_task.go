package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/newswatch/newswatch/app/cache"
)

// WarmCacheTask refreshes the canonical cache entry so request paths
// mostly hit fresh L1, including right after a restart.
type WarmCacheTask struct {
	Task
	cacheService *cache.Service
}

func NewWarmCacheTask(cacheService *cache.Service) *WarmCacheTask {
	return &WarmCacheTask{
		Task:         NewTask(TaskTypeWarmCache),
		cacheService: cacheService,
	}
}

func (t *WarmCacheTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if t.cacheService.IsFresh(cache.KeyAll) {
		slog.Debug("Cache still fresh, skipping warm cycle")
		return nil
	}

	if err := t.cacheService.Refresh(); err != nil {
		return fmt.Errorf("failed to warm cache: %w", err)
	}

	slog.Info("Task completed",
		"type", "WarmCache",
		"duration", t.GetDuration())

	return nil
}
