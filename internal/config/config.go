// Package config handles client configuration loading and management.
package config

import "time"

// Config holds all client settings.
type Config struct {
	Network   NetworkConfig   `yaml:"network"`
	Cache     CacheConfig     `yaml:"cache"`
	Streaming StreamingConfig `yaml:"streaming"`
	Camera    CameraConfig    `yaml:"camera"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// NetworkConfig holds upstream server settings.
type NetworkConfig struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// CacheConfig selects and sizes the payload cache backend.
type CacheConfig struct {
	Backend    string `yaml:"backend"` // none, memory, fs, sqlite
	Dir        string `yaml:"dir"`
	Path       string `yaml:"path"`      // sqlite database file
	MaxBytes   int64  `yaml:"max_bytes"` // memory backend budget
	Compressed bool   `yaml:"compressed"`
}

// StreamingConfig tunes the level-of-detail engine.
type StreamingConfig struct {
	MaxNodeFetches int     `yaml:"max_node_fetches"`
	MaxBulkFetches int     `yaml:"max_bulk_fetches"`
	MaxDepth       int     `yaml:"max_depth"`
	PhysicsOffset  int     `yaml:"physics_offset"`
	PhysicsRadius  float64 `yaml:"physics_radius"`
}

// CameraConfig holds the view parameters the refinement test depends on.
type CameraConfig struct {
	FovYDegrees  float64 `yaml:"fov_y_degrees"`
	ScreenHeight float64 `yaml:"screen_height"`
	ScriptPath   string  `yaml:"script_path"` // optional camera path file
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			BaseURL:        "https://kh.google.com/rt/earth/",
			RequestTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			MaxBytes:   256 << 20,
			Compressed: true,
		},
		Streaming: StreamingConfig{
			MaxNodeFetches: 20,
			MaxBulkFetches: 10,
			MaxDepth:       21,
			PhysicsOffset:  2,
			PhysicsRadius:  500,
		},
		Camera: CameraConfig{
			FovYDegrees:  60,
			ScreenHeight: 1080,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
