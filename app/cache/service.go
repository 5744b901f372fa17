package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/newswatch/newswatch/app/database"
	"github.com/newswatch/newswatch/app/feed"
)

// Timeouts for work detached from the request path. Live fetches run on
// their own context so a caller that gives up does not cancel the cycle
// that will populate the cache for the next caller.
const (
	liveFetchTimeout     = 90 * time.Second
	snapshotWriteTimeout = 10 * time.Second
)

// Service is the two-tier cache in front of the aggregation pipeline.
// L1 is a process-local TTL map served stale-while-revalidate; L2 is
// the durable snapshot store, written fire-and-forget for the canonical
// key and consulted on L1 miss against its own looser threshold.
type Service struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	ttl               time.Duration
	snapshotThreshold time.Duration

	snapshots database.SnapshotRepository
	fetch     FetchFunc
	sf        singleflight.Group
}

func NewService(snapshots database.SnapshotRepository, fetch FetchFunc, ttl, snapshotThreshold time.Duration) *Service {
	return &Service{
		entries:           make(map[string]*Entry),
		ttl:               ttl,
		snapshotThreshold: snapshotThreshold,
		snapshots:         snapshots,
		fetch:             fetch,
	}
}

// GetFeed returns the post set for one region ("all" for the full
// feed). Lookup order: derive from a fresh canonical entry, then L1,
// then the durable snapshot, then a live fetch; concurrent requests for
// the cold key coalesce into one fetch. With refresh set, both tiers
// are bypassed and a live cycle runs unconditionally.
func (s *Service) GetFeed(ctx context.Context, region string, refresh bool) (*FeedView, error) {
	if refresh {
		entry, err := s.refreshCanonical()
		if err != nil {
			return s.degradedView(ctx, region, err)
		}
		return s.viewFor(entry, region, false), nil
	}

	// Fresh canonical entry: every region is a cheap in-memory filter.
	if entry, fresh := s.lookup(KeyAll); entry != nil && fresh {
		return s.viewFor(entry, region, true), nil
	}

	// Stale-but-present canonical entry: serve it now, refresh behind
	// the request. Two near-simultaneous requests may both reach this
	// branch; the single-flight group collapses their refreshes.
	if entry, _ := s.lookup(KeyAll); entry != nil {
		go func() {
			if _, err := s.refreshCanonical(); err != nil {
				slog.Warn("Background cache refresh failed", "error", err)
			}
		}()
		return s.viewFor(entry, region, true), nil
	}

	// Cold L1: consult the snapshot store, then fetch live. Coalesced
	// so one underlying load serves every waiter. The load carries its
	// origin: a snapshot hydrate is a cache hit, a live fetch is not.
	result, err, _ := s.sf.Do(KeyAll, func() (interface{}, error) {
		if entry := s.hydrateFromSnapshot(ctx); entry != nil {
			return coldLoad{entry: entry, fromCache: true}, nil
		}
		entry, err := s.liveFetch()
		if err != nil {
			return coldLoad{}, err
		}
		return coldLoad{entry: entry}, nil
	})
	if err != nil {
		return s.degradedView(ctx, region, err)
	}

	load := result.(coldLoad)
	return s.viewFor(load.entry, region, load.fromCache), nil
}

// coldLoad is the outcome of a cold-path load, tagged with whether it
// was served from the durable tier.
type coldLoad struct {
	entry     *Entry
	fromCache bool
}

// Set replaces the entry for a key wholesale. Canonical writes are
// propagated to the snapshot store asynchronously; the request path
// never waits on the durable tier.
func (s *Service) Set(key string, posts []feed.Post, fetchedAt time.Time) {
	entry := &Entry{Posts: posts, FetchedAt: fetchedAt}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()

	if key == KeyAll {
		go s.writeSnapshot(posts, fetchedAt)
	}
}

// IsFresh reports whether the key holds an entry within the L1 TTL.
func (s *Service) IsFresh(key string) bool {
	_, fresh := s.lookup(key)
	return fresh
}

// Refresh runs one live cycle and repopulates the canonical entry. Used
// by the background warm task; concurrent refreshes coalesce.
func (s *Service) Refresh() error {
	_, err := s.refreshCanonical()
	return err
}

// Purge drops every L1 entry and all durable snapshots.
func (s *Service) Purge(ctx context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]*Entry)
	s.mu.Unlock()

	if err := s.snapshots.PurgeSnapshots(ctx); err != nil {
		return fmt.Errorf("failed to purge snapshot store: %w", err)
	}
	return nil
}

// Entries returns metadata for every L1 entry, stable by key.
func (s *Service) Entries() []EntryInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]EntryInfo, 0, len(s.entries))
	for key, entry := range s.entries {
		infos = append(infos, EntryInfo{
			Key:       key,
			PostCount: len(entry.Posts),
			FetchedAt: entry.FetchedAt,
			Fresh:     time.Since(entry.FetchedAt) < s.ttl,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}

func (s *Service) lookup(key string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return entry, time.Since(entry.FetchedAt) < s.ttl
}

// refreshCanonical performs one coalesced live fetch of the canonical
// key. Deliberately detached from any request context.
func (s *Service) refreshCanonical() (*Entry, error) {
	result, err, _ := s.sf.Do("refresh:"+KeyAll, func() (interface{}, error) {
		return s.liveFetch()
	})
	if err != nil {
		return nil, err
	}
	return result.(*Entry), nil
}

func (s *Service) liveFetch() (*Entry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), liveFetchTimeout)
	defer cancel()

	posts, err := s.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("live fetch failed: %w", err)
	}

	fetchedAt := time.Now().UTC()
	entry := &Entry{Posts: posts, FetchedAt: fetchedAt}

	s.mu.Lock()
	// Region views derived from the previous canonical entry are now
	// outdated; drop everything and keep only the new canonical set.
	s.entries = map[string]*Entry{KeyAll: entry}
	s.mu.Unlock()

	go s.writeSnapshot(posts, fetchedAt)

	return entry, nil
}

// hydrateFromSnapshot loads the canonical entry from the durable store
// if one exists within the snapshot freshness threshold. Read errors
// are treated as a miss.
func (s *Service) hydrateFromSnapshot(ctx context.Context) *Entry {
	snapshot, err := s.snapshots.GetSnapshot(ctx, KeyAll)
	if err != nil {
		slog.Warn("Snapshot read failed, treating as miss", "error", err)
		return nil
	}
	if snapshot == nil || time.Since(snapshot.FetchedAt) >= s.snapshotThreshold {
		return nil
	}

	entry := &Entry{Posts: snapshot.Posts, FetchedAt: snapshot.FetchedAt}

	s.mu.Lock()
	s.entries[KeyAll] = entry
	s.mu.Unlock()

	slog.Info("Cache hydrated from snapshot store",
		"posts", len(snapshot.Posts),
		"age", time.Since(snapshot.FetchedAt).Round(time.Second).String())

	return entry
}

// degradedView serves the best cached entry of any staleness when a
// live fetch fails. Only a totally cold system surfaces the error.
func (s *Service) degradedView(ctx context.Context, region string, cause error) (*FeedView, error) {
	if entry, _ := s.lookup(KeyAll); entry != nil {
		slog.Warn("Serving stale cache after fetch failure", "error", cause)
		view := s.viewFor(entry, region, true)
		view.Stale = true
		return view, nil
	}

	snapshot, err := s.snapshots.GetSnapshot(ctx, KeyAll)
	if err == nil && snapshot != nil {
		slog.Warn("Serving stale snapshot after fetch failure", "error", cause)
		entry := &Entry{Posts: snapshot.Posts, FetchedAt: snapshot.FetchedAt}
		view := s.viewFor(entry, region, true)
		view.Stale = true
		return view, nil
	}

	return nil, cause
}

// viewFor derives the region view of an entry, populating the region's
// own L1 slot so repeated requests skip the filter.
func (s *Service) viewFor(entry *Entry, region string, fromCache bool) *FeedView {
	posts := entry.Posts

	if region != "" && region != KeyAll {
		posts = filterByRegion(entry.Posts, region)

		s.mu.Lock()
		s.entries[region] = &Entry{Posts: posts, FetchedAt: entry.FetchedAt}
		s.mu.Unlock()
	}

	return &FeedView{
		Posts:     posts,
		FetchedAt: entry.FetchedAt,
		FromCache: fromCache,
	}
}

func (s *Service) writeSnapshot(posts []feed.Post, fetchedAt time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotWriteTimeout)
	defer cancel()

	if err := s.snapshots.UpsertSnapshot(ctx, KeyAll, posts, fetchedAt); err != nil {
		// The snapshot store is a cache, not a system of record; a lost
		// write costs one hydration opportunity, not correctness.
		slog.Warn("Snapshot write failed", "error", err)
	}
}

func filterByRegion(posts []feed.Post, region string) []feed.Post {
	filtered := make([]feed.Post, 0, len(posts))
	for _, post := range posts {
		if post.Region == region {
			filtered = append(filtered, post)
		}
	}
	return filtered
}
