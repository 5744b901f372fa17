package fetch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/newswatch/newswatch/app/sources"
)

// Scheduler partitions sources by platform and fetches each partition
// in fixed-size concurrent batches, with the platform's inter-batch
// delay between them. Platform partitions run concurrently with each
// other.
type Scheduler struct {
	fetchers map[string]Fetcher
	policies map[string]BatchPolicy
}

func NewScheduler(fetchers []Fetcher, policies map[string]BatchPolicy) *Scheduler {
	byPlatform := make(map[string]Fetcher, len(fetchers))
	for _, f := range fetchers {
		byPlatform[f.Platform()] = f
	}
	return &Scheduler{
		fetchers: byPlatform,
		policies: policies,
	}
}

// Run fetches every source once and returns one tagged result per
// source. A single source's failure never aborts its batch; the error
// is carried in the result and discarded by the caller.
func (s *Scheduler) Run(ctx context.Context, srcs []sources.Source) []Result {
	partitions := make(map[string][]sources.Source)
	for _, src := range srcs {
		partitions[src.Platform] = append(partitions[src.Platform], src)
	}

	var mu sync.Mutex
	results := make([]Result, 0, len(srcs))

	var wg sync.WaitGroup
	for platform, partition := range partitions {
		fetcher, ok := s.fetchers[platform]
		if !ok {
			slog.Warn("No fetcher registered for platform, skipping partition",
				"platform", platform, "sources", len(partition))
			continue
		}

		wg.Add(1)
		go func(platform string, fetcher Fetcher, partition []sources.Source) {
			defer wg.Done()

			partial := s.runPartition(ctx, fetcher, partition)

			mu.Lock()
			results = append(results, partial...)
			mu.Unlock()
		}(platform, fetcher, partition)
	}
	wg.Wait()

	return results
}

func (s *Scheduler) runPartition(ctx context.Context, fetcher Fetcher, partition []sources.Source) []Result {
	policy, ok := s.policies[fetcher.Platform()]
	if !ok || policy.BatchSize <= 0 {
		policy = BatchPolicy{BatchSize: 1}
	}

	results := make([]Result, 0, len(partition))

	for start := 0; start < len(partition); start += policy.BatchSize {
		end := min(start+policy.BatchSize, len(partition))
		batch := partition[start:end]

		batchResults := make([]Result, len(batch))
		var wg sync.WaitGroup
		for i, src := range batch {
			wg.Add(1)
			go func(i int, src sources.Source) {
				defer wg.Done()
				posts, err := fetcher.FetchSource(ctx, src)
				batchResults[i] = Result{Source: src, Posts: posts, Err: err}
			}(i, src)
		}
		wg.Wait()
		results = append(results, batchResults...)

		if end < len(partition) && policy.Delay > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(policy.Delay):
			}
		}
	}

	return results
}
