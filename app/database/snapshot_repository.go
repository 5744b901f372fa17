package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/newswatch/newswatch/app/feed"
)

// SQLSnapshotRepository persists feed snapshots in SQLite. Posts are
// stored as one JSON document per key so a write is always atomic and
// wholesale.
type SQLSnapshotRepository struct {
	db *DB
}

var _ SnapshotRepository = (*SQLSnapshotRepository)(nil)

func NewSnapshotRepository(db *DB) *SQLSnapshotRepository {
	return &SQLSnapshotRepository{db: db}
}

func (r *SQLSnapshotRepository) GetSnapshot(ctx context.Context, key string) (*Snapshot, error) {
	var snapshot Snapshot
	var postsJSON string
	var fetchedAt, updatedAt string

	err := r.db.QueryRowContext(ctx, `
		SELECT key, posts, post_count, fetched_at, updated_at
		FROM snapshots
		WHERE key = $1
	`, key).Scan(&snapshot.Key, &postsJSON, &snapshot.PostCount, &fetchedAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(postsJSON), &snapshot.Posts); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot posts: %w", err)
	}

	if snapshot.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot fetched_at: %w", err)
	}
	if snapshot.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot updated_at: %w", err)
	}

	return &snapshot, nil
}

func (r *SQLSnapshotRepository) UpsertSnapshot(ctx context.Context, key string, posts []feed.Post, fetchedAt time.Time) error {
	postsJSON, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot posts: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, posts, post_count, fetched_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET
			posts = EXCLUDED.posts,
			post_count = EXCLUDED.post_count,
			fetched_at = EXCLUDED.fetched_at,
			updated_at = EXCLUDED.updated_at
	`, key, string(postsJSON), len(posts),
		fetchedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	return nil
}

func (r *SQLSnapshotRepository) DeleteSnapshotsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE updated_at < $1
	`, cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale snapshots: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted snapshots: %w", err)
	}

	return deleted, nil
}

func (r *SQLSnapshotRepository) PurgeSnapshots(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM snapshots"); err != nil {
		return fmt.Errorf("failed to purge snapshots: %w", err)
	}
	return nil
}

func (r *SQLSnapshotRepository) GetSnapshotCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get snapshot count: %w", err)
	}
	return count, nil
}
