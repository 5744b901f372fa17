package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/newswatch/newswatch/app/activity"
	"github.com/newswatch/newswatch/app/cache"
	"github.com/newswatch/newswatch/app/cfg"
	"github.com/newswatch/newswatch/app/database"
	"github.com/newswatch/newswatch/app/feed"
)

func TestTask_RetryMachinery(t *testing.T) {
	task := NewTask(TaskTypeWarmCache)

	if task.GetID() == "" {
		t.Errorf("Task must get an ID")
	}
	if task.GetType() != TaskTypeWarmCache {
		t.Errorf("Unexpected task type %s", task.GetType())
	}
	if task.GetMaxRetries() != DefaultMaxRetries {
		t.Errorf("Expected max retries %d, got %d", DefaultMaxRetries, task.GetMaxRetries())
	}

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i)
		}
		task.IncrementRetryCount()
	}
	if task.CanRetry() {
		t.Errorf("Retries must be exhausted after %d attempts", DefaultMaxRetries)
	}

	other := NewTask(TaskTypeWarmCache)
	if task.GetID() == other.GetID() {
		t.Errorf("Task IDs must be unique")
	}
}

func TestTask_Duration(t *testing.T) {
	task := NewTask(TaskTypePruneSnapshots)

	if task.GetDuration() != 0 {
		t.Errorf("Unstarted task must report zero duration")
	}

	task.Start()
	time.Sleep(5 * time.Millisecond)
	if task.GetDuration() <= 0 {
		t.Errorf("Started task must report elapsed duration")
	}
}

// pruneRecorder records the cutoff it was asked to prune against.
type pruneRecorder struct {
	cutoff  time.Time
	deleted int64
}

var _ database.SnapshotRepository = (*pruneRecorder)(nil)

func (p *pruneRecorder) GetSnapshot(ctx context.Context, key string) (*database.Snapshot, error) {
	return nil, nil
}

func (p *pruneRecorder) UpsertSnapshot(ctx context.Context, key string, posts []feed.Post, fetchedAt time.Time) error {
	return nil
}

func (p *pruneRecorder) DeleteSnapshotsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	p.cutoff = cutoff
	return p.deleted, nil
}

func (p *pruneRecorder) PurgeSnapshots(ctx context.Context) error {
	return nil
}

func (p *pruneRecorder) GetSnapshotCount(ctx context.Context) (int, error) {
	return 0, nil
}

func TestPruneSnapshotsTask(t *testing.T) {
	repo := &pruneRecorder{deleted: 4}
	task := NewPruneSnapshotsTask(repo, 48*time.Hour)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	age := time.Since(repo.cutoff)
	if age < 47*time.Hour || age > 49*time.Hour {
		t.Errorf("Expected cutoff around 48h ago, got %v", age)
	}
}

func TestPruneSnapshotsTask_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := NewPruneSnapshotsTask(&pruneRecorder{}, 48*time.Hour)
	if err := task.Execute(ctx); err == nil {
		t.Fatalf("Expected error for cancelled context")
	}
}

func TestReloadBaselinesTask(t *testing.T) {
	file := filepath.Join(t.TempDir(), "baselines.yml")
	content := `
window_hours: 6
baselines:
  ukraine: 80
  taiwan: 25
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write baselines file: %v", err)
	}

	engine := activity.NewEngine([]string{"ukraine", "taiwan"}, nil)
	task := NewReloadBaselinesTask(engine, file)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if engine.BaselineCount() != 2 {
		t.Errorf("Expected 2 baselines after reload, got %d", engine.BaselineCount())
	}
}

func TestReloadBaselinesTask_MissingFile(t *testing.T) {
	engine := activity.NewEngine([]string{"ukraine"}, nil)
	task := NewReloadBaselinesTask(engine, filepath.Join(t.TempDir(), "absent.yml"))

	if err := task.Execute(context.Background()); err == nil {
		t.Fatalf("Expected error for missing baselines file")
	}
}

func TestWarmCacheTask_SkipsFreshCache(t *testing.T) {
	var fetches atomic.Int32
	fetch := func(ctx context.Context) ([]feed.Post, error) {
		fetches.Add(1)
		return []feed.Post{}, nil
	}

	cacheService := cache.NewService(&pruneRecorder{}, fetch, 5*time.Minute, 30*time.Minute)
	cacheService.Set(cache.KeyAll, []feed.Post{{ID: "p1"}}, time.Now().UTC())

	task := NewWarmCacheTask(cacheService)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := fetches.Load(); got != 0 {
		t.Errorf("Fresh cache must not trigger a fetch, got %d", got)
	}
}

// failingTask always errors, driving the scheduler's retry path.
type failingTask struct {
	Task
}

func (f *failingTask) Execute(ctx context.Context) error {
	return errTaskFailed
}

var errTaskFailed = errors.New("simulated task failure")

func TestScheduler_StopDuringPendingRetry(t *testing.T) {
	baselinesFile := filepath.Join(t.TempDir(), "baselines.yml")
	if err := os.WriteFile(baselinesFile, []byte("baselines:\n  ukraine: 10\n"), 0o644); err != nil {
		t.Fatalf("Failed to write baselines file: %v", err)
	}

	cfg.SetForTesting(&cfg.Cfg{
		WorkerCount:       2,
		WarmInterval:      3600,
		SnapshotRetention: 172800,
		BaselinesFile:     baselinesFile,
	})

	fetch := func(ctx context.Context) ([]feed.Post, error) { return []feed.Post{}, nil }
	cacheService := cache.NewService(&pruneRecorder{}, fetch, 5*time.Minute, 30*time.Minute)
	cacheService.Set(cache.KeyAll, []feed.Post{{ID: "p1"}}, time.Now().UTC())

	engine := activity.NewEngine([]string{"ukraine"}, nil)
	scheduler := NewScheduler(cacheService, &pruneRecorder{}, engine)

	scheduler.Start()

	// A failing task leaves a retry goroutine sleeping; Stop must wait
	// it out instead of closing the queue under it
	if err := scheduler.EnqueueTask(&failingTask{Task: NewTask(TaskTypeWarmCache)}); err != nil {
		t.Fatalf("Failed to enqueue task: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Stop did not return with a retry pending")
	}
}

func TestWarmCacheTask_RefreshesStaleCache(t *testing.T) {
	var fetches atomic.Int32
	fetch := func(ctx context.Context) ([]feed.Post, error) {
		fetches.Add(1)
		return []feed.Post{{ID: "fresh"}}, nil
	}

	cacheService := cache.NewService(&pruneRecorder{}, fetch, 5*time.Minute, 30*time.Minute)
	cacheService.Set(cache.KeyAll, []feed.Post{{ID: "old"}}, time.Now().UTC().Add(-10*time.Minute))

	task := NewWarmCacheTask(cacheService)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("Stale cache must trigger exactly one fetch, got %d", got)
	}
}
