package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./newswatch.db" description:"Path to the SQLite snapshot database"`

	// Application configuration
	SourcesFile   string `long:"sources-file" env:"SOURCES_FILE" default:"./sources.yml" description:"YAML file with the monitored source registry"`
	BaselinesFile string `long:"baselines-file" env:"BASELINES_FILE" default:"./baselines.yml" description:"YAML file with per-region activity baselines"`
	CuratedURL    string `long:"curated-url" env:"CURATED_URL" description:"URL of the curated priority post feed (optional)"`
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount   int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background task workers"`
	WarmInterval  int    `long:"warm-interval" env:"WARM_INTERVAL" default:"120" description:"Background cache warm interval in seconds"`
	APIAccessKey  string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for admin endpoints (optional)"`

	// Cache tuning
	CacheTTL          int `long:"cache-ttl" env:"CACHE_TTL" default:"300" description:"L1 cache freshness TTL in seconds"`
	SnapshotThreshold int `long:"snapshot-threshold" env:"SNAPSHOT_THRESHOLD" default:"1800" description:"Durable snapshot freshness threshold in seconds"`
	SnapshotRetention int `long:"snapshot-retention" env:"SNAPSHOT_RETENTION" default:"172800" description:"Durable snapshot retention in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Newswatch/1.0" description:"User agent string for outbound HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Kyiv)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		SourcesFile:       raw.SourcesFile,
		BaselinesFile:     raw.BaselinesFile,
		CuratedURL:        raw.CuratedURL,
		Port:              raw.Port,
		WorkerCount:       raw.WorkerCount,
		WarmInterval:      raw.WarmInterval,
		APIAccessKey:      raw.APIAccessKey,
		CacheTTL:          raw.CacheTTL,
		SnapshotThreshold: raw.SnapshotThreshold,
		SnapshotRetention: raw.SnapshotRetention,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// SetForTesting installs a configuration without going through flag parsing.
func SetForTesting(cfg *Cfg) {
	globalCfg = cfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
