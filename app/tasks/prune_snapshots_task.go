package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/newswatch/newswatch/app/database"
)

// PruneSnapshotsTask deletes durable snapshots past the retention
// window so the store does not grow without bound.
type PruneSnapshotsTask struct {
	Task
	snapshots database.SnapshotRepository
	retention time.Duration
}

func NewPruneSnapshotsTask(snapshots database.SnapshotRepository, retention time.Duration) *PruneSnapshotsTask {
	return &PruneSnapshotsTask{
		Task:      NewTask(TaskTypePruneSnapshots),
		snapshots: snapshots,
		retention: retention,
	}
}

func (t *PruneSnapshotsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cutoff := time.Now().UTC().Add(-t.retention)
	deleted, err := t.snapshots.DeleteSnapshotsOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}

	if deleted > 0 {
		slog.Info("Task completed",
			"type", "PruneSnapshots",
			"duration", t.GetDuration(),
			"deleted", deleted)
	}

	return nil
}
