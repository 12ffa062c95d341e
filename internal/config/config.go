package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/ledgerkeeper/internal/logging"
)

// DefaultDirName is the data directory created under the user's home.
const DefaultDirName = ".ledgerkeeper"

// Config holds runtime settings for the ledger shell.
//
// Fields:
//   - DataDir: directory that holds the saves/ and temp/ subdirectories.
//   - LogLevel: minimum level written to stderr (debug, info, warn, error).
type Config struct {
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
}

// LoadDefaults populates c with sensible defaults. DataDir falls back to a
// directory relative to the working directory when the home directory is
// unknown.
func (c *Config) LoadDefaults() {
	c.DataDir = DefaultDirName
	if home, err := os.UserHomeDir(); err == nil {
		c.DataDir = filepath.Join(home, DefaultDirName)
	}
	c.LogLevel = "info"
}

// SlogLevel returns LogLevel as a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	return logging.ParseLevel(c.LogLevel)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
