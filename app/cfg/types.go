package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	SourcesFile   string
	BaselinesFile string
	CuratedURL    string
	Port          string
	WorkerCount   int
	WarmInterval  int
	APIAccessKey  string

	// Cache tuning (seconds)
	CacheTTL          int
	SnapshotThreshold int
	SnapshotRetention int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
