package database

import (
	"context"
	"time"

	"github.com/newswatch/newswatch/app/feed"
)

type SnapshotRepository interface {
	GetSnapshot(ctx context.Context, key string) (*Snapshot, error)
	UpsertSnapshot(ctx context.Context, key string, posts []feed.Post, fetchedAt time.Time) error
	DeleteSnapshotsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeSnapshots(ctx context.Context) error
	GetSnapshotCount(ctx context.Context) (int, error)
}
