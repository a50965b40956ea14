// Package config holds the service configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config defines the service configuration. Zero values are filled in by
// ApplyDefaults; Validate rejects nonsense before anything is opened.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`

	// DBPath is the SQLite database file path.
	DBPath string `yaml:"db_path"`

	// StaticDir is the directory served under /static/ and written to by the
	// chart renderer.
	StaticDir string `yaml:"static_dir"`

	// WindowDays is the default trailing window for retrieval and charts.
	WindowDays int `yaml:"window_days"`

	// ChartWidth and ChartHeight are the generated image dimensions in pixels.
	ChartWidth  int `yaml:"chart_width"`
	ChartHeight int `yaml:"chart_height"`
}

// Default returns the configuration used when no file is given. HTTP_ADDR
// and ENERGYTRACK_DB act as environment fallbacks so the binary runs in a
// container without a config file.
func Default() Config {
	return Config{
		Addr:        envOr("HTTP_ADDR", ":8080"),
		DBPath:      envOr("ENERGYTRACK_DB", "energy.db"),
		StaticDir:   "static",
		WindowDays:  7,
		ChartWidth:  1000,
		ChartHeight: 600,
	}
}

// Load reads and validates a YAML config file. Fields omitted from the file
// keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}
	return Parse(data)
}

// Parse parses YAML config bytes.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid YAML: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	if c.StaticDir == "" {
		c.StaticDir = d.StaticDir
	}
	if c.WindowDays == 0 {
		c.WindowDays = d.WindowDays
	}
	if c.ChartWidth == 0 {
		c.ChartWidth = d.ChartWidth
	}
	if c.ChartHeight == 0 {
		c.ChartHeight = d.ChartHeight
	}
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if c.WindowDays < 0 {
		return fmt.Errorf("window_days must be positive, got %d", c.WindowDays)
	}
	if c.ChartWidth < 0 || c.ChartHeight < 0 {
		return fmt.Errorf("chart dimensions must be positive, got %dx%d", c.ChartWidth, c.ChartHeight)
	}
	return nil
}

func envOr(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}
