package sources

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry holds the monitored source list and the tracked region
// enumeration. Loaded once per process lifetime; accessors are safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sources  []Source
	regions  []string
	excluded map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		excluded: make(map[string]struct{}),
	}
}

func (r *Registry) Load(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read sources file: %w", err)
	}

	var raw registryFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse sources YAML: %w", err)
	}

	if err := validate(&raw); err != nil {
		return fmt.Errorf("invalid sources file %s: %w", file, err)
	}

	excluded := make(map[string]struct{}, len(raw.ExcludedRegions))
	for _, region := range raw.ExcludedRegions {
		excluded[region] = struct{}{}
	}

	r.mu.Lock()
	r.sources = raw.Sources
	r.regions = raw.Regions
	r.excluded = excluded
	r.mu.Unlock()

	slog.Info("Source registry loaded",
		"sources", len(raw.Sources),
		"regions", len(raw.Regions),
		"excluded_regions", len(raw.ExcludedRegions))

	return nil
}

// EnabledSources returns the enabled sources in registry order.
func (r *Registry) EnabledSources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	enabled := make([]Source, 0, len(r.sources))
	for _, src := range r.sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}
	return enabled
}

func (r *Registry) AllSources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

func (r *Registry) SourceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// Regions returns the tracked region enumeration.
func (r *Registry) Regions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.regions))
	copy(out, r.regions)
	return out
}

// IsTrackedRegion reports whether region belongs to the enumerated set.
func (r *Registry) IsTrackedRegion(region string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, known := range r.regions {
		if known == region {
			return true
		}
	}
	return false
}

// ExcludedRegions returns the regions permanently pinned to normal
// activity because their source coverage is too sparse to alert on.
func (r *Registry) ExcludedRegions() map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]struct{}, len(r.excluded))
	for region := range r.excluded {
		out[region] = struct{}{}
	}
	return out
}

func validate(raw *registryFile) error {
	if len(raw.Regions) == 0 {
		return fmt.Errorf("at least one tracked region is required")
	}

	known := make(map[string]struct{}, len(raw.Regions))
	for _, region := range raw.Regions {
		if region == "" {
			return fmt.Errorf("empty region name")
		}
		known[region] = struct{}{}
	}

	for _, region := range raw.ExcludedRegions {
		if _, ok := known[region]; !ok {
			return fmt.Errorf("excluded region '%s' is not in the tracked set", region)
		}
	}

	seen := make(map[string]struct{}, len(raw.Sources))
	for i, src := range raw.Sources {
		if src.ID == "" {
			return fmt.Errorf("source at index %d has no id", i)
		}
		if _, ok := seen[src.ID]; ok {
			return fmt.Errorf("duplicate source id '%s'", src.ID)
		}
		seen[src.ID] = struct{}{}

		switch src.Platform {
		case PlatformBridge, PlatformMastodon, PlatformBluesky:
		default:
			return fmt.Errorf("source '%s' has unknown platform '%s'", src.ID, src.Platform)
		}

		if src.Handle == "" {
			return fmt.Errorf("source '%s' has no handle", src.ID)
		}
		if _, ok := known[src.Region]; !ok {
			return fmt.Errorf("source '%s' references unknown region '%s'", src.ID, src.Region)
		}
	}

	return nil
}
