// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers a YAML file and PELOTON_* environment variables on top.
// - Errors returned by Load wrap ErrLoadConfig or ErrInvalidConfig.
package config

// Config contains process configuration shared by the server and the CLI.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataFile is the scraped fantasy JSON document.
	DataFile string `koanf:"data_file"`

	// StartlistFile optionally maps fantasy names onto results-site slugs by
	// fuzzy matching. Empty derives slugs from the names.
	StartlistFile string `koanf:"startlist_file"`

	// WatchDataFile reloads the population when DataFile changes on disk.
	WatchDataFile bool `koanf:"watch_data_file"`

	// CachePath is the SQLite file holding cached race results.
	CachePath string `koanf:"cache_path"`

	// CacheTTLDays marks cache entries stale after this many days.
	CacheTTLDays int `koanf:"cache_ttl_days"`

	// FetchBaseURL points at the race-result service. Empty disables fetching.
	FetchBaseURL string `koanf:"fetch_base_url"`

	// FetchTimeoutMS bounds a single race-result fetch.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// FetchDelayMS spaces out consecutive fetches.
	FetchDelayMS int `koanf:"fetch_delay_ms"`

	// RacePrefix selects which season results count towards the performance metric.
	RacePrefix string `koanf:"race_prefix"`

	// ResultsLimit keeps only the most recent results per rider.
	ResultsLimit int `koanf:"results_limit"`

	// MaxRidersLimit caps GET /riders?limit.
	MaxRidersLimit int `koanf:"max_riders_limit"`

	// ReloadQueueSize bounds pending reload requests.
	ReloadQueueSize int `koanf:"reload_queue_size"`

	// MetricsURL is scraped by `ridertool metrics`.
	MetricsURL string `koanf:"metrics_url"`

	// Scoring holds the tier and outlier cut points.
	Scoring Scoring `koanf:"scoring"`
}

// Scoring configures the z-score cut points of the scoring engine.
type Scoring struct {
	EliteZ         float64 `koanf:"elite_z"`
	StrongZ        float64 `koanf:"strong_z"`
	AverageZ       float64 `koanf:"average_z"`
	OutlierZ       float64 `koanf:"outlier_z"`
	ValueMinPoints float64 `koanf:"value_min_points"`
	ValueMaxStars  float64 `koanf:"value_max_stars"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		DataFile:        "fantasy-data.json",
		WatchDataFile:   true,
		CachePath:       "race_cache.db",
		CacheTTLDays:    7,
		FetchBaseURL:    "",
		FetchTimeoutMS:  10_000,
		FetchDelayMS:    500,
		RacePrefix:      "race/tour-de-france-femmes/2025/",
		ResultsLimit:    10,
		MaxRidersLimit:  500,
		ReloadQueueSize: 4,
		MetricsURL:      "http://localhost:9080/healthz",
		Scoring: Scoring{
			EliteZ:         1.0,
			StrongZ:        0.0,
			AverageZ:       -1.0,
			OutlierZ:       1.5,
			ValueMinPoints: 10,
			ValueMaxStars:  4,
		},
	}
}
