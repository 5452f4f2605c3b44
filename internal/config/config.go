// Package config defines the badgeboard configuration and how it is loaded.
//
// Values are layered: defaults from New, then an optional YAML file named by
// BADGEBOARD_CONFIG, then BADGEBOARD_* environment variables.
package config

import (
	"path/filepath"
)

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataFile is the badge record log. Empty selects ExampleFile (demo mode).
	DataFile string `koanf:"data_file"`

	// ExampleFile is the bundled demo dataset.
	ExampleFile string `koanf:"example_file"`

	// AdminToken guards POST /badges. Empty disables writes over HTTP.
	AdminToken string `koanf:"admin_token"`

	// AppendRatePerMinute and AppendBurst bound POST /badges.
	AppendRatePerMinute int `koanf:"append_rate_per_minute"`
	AppendBurst         int `koanf:"append_burst"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// IconURLTemplate turns a deck icon id into a URL; {name} is replaced.
	IconURLTemplate string `koanf:"icon_url_template"`

	// ImageMapFile optionally maps entity names to image URLs for exports.
	ImageMapFile string `koanf:"image_map_file"`

	// TierWeights overrides tier point weights (lower-case tier -> points).
	TierWeights map[string]int `koanf:"tier_weights"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           LogFormatText,
		Addr:                ":8080",
		ExampleFile:         "example.jsonl",
		AppendRatePerMinute: 30,
		AppendBurst:         5,
		MaxLeaderboardLimit: 500,
		IconURLTemplate:     "https://r2.limitlesstcg.net/pokemon/gen9/{name}.png",
	}
}

// DataPath returns the record log in use: DataFile, or ExampleFile when unset.
func (c *Config) DataPath() string {
	if c.DataFile != "" {
		return c.DataFile
	}
	return c.ExampleFile
}

// Demo reports whether the bundled example dataset is active.
func (c *Config) Demo() bool {
	return c.DataFile == "" || filepath.Clean(c.DataFile) == filepath.Clean(c.ExampleFile)
}
