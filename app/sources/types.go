package sources

// Platform identifiers for the monitored source kinds.
const (
	PlatformBridge   = "bridge"
	PlatformMastodon = "mastodon"
	PlatformBluesky  = "bluesky"
)

// Source is one monitored account or channel. Long-lived, read-only
// configuration owned by the registry file.
type Source struct {
	ID          string `yaml:"id"`
	Platform    string `yaml:"platform"`
	Handle      string `yaml:"handle"`
	Region      string `yaml:"region"`
	Tier        int    `yaml:"tier"`
	PostsPerDay int    `yaml:"posts_per_day"`
	Enabled     bool   `yaml:"enabled"`
}

// registryFile is the on-disk shape of the source registry.
type registryFile struct {
	Regions         []string `yaml:"regions"`
	ExcludedRegions []string `yaml:"excluded_regions"`
	Sources         []Source `yaml:"sources"`
}

// baselinesFile is the on-disk shape of the activity baseline table,
// produced by the out-of-process measurement job.
type baselinesFile struct {
	WindowHours int                `yaml:"window_hours"`
	Baselines   map[string]float64 `yaml:"baselines"`
}
