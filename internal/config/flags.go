package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagBaseURL  = flag.String("base-url", "", "Planetoid server base URL")
	flagCacheDir = flag.String("cache-dir", "", "Filesystem cache directory")
	flagCache    = flag.String("cache", "", "Cache backend: none, memory, fs, sqlite")
	flagMetrics  = flag.String("metrics", "", "Prometheus listen address (enables metrics)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagBaseURL != "" {
		cfg.Network.BaseURL = *flagBaseURL
	}
	if *flagCache != "" {
		cfg.Cache.Backend = *flagCache
	}
	if *flagCacheDir != "" {
		cfg.Cache.Dir = *flagCacheDir
		if cfg.Cache.Backend == "" || cfg.Cache.Backend == "none" {
			cfg.Cache.Backend = "fs"
		}
	}
	if *flagMetrics != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = *flagMetrics
	}
}
