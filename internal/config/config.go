// Package config provides configuration management for silencecut.
// Configuration is loaded from SILENCECUT_* environment variables with
// sensible defaults.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/silencecut/silencecut/internal/logging"
)

// PlanDBFilename is the name of the sqlite plan cache inside DataDir.
const PlanDBFilename = "plans.db"

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port int `env:"SILENCECUT_PORT, default=8775" json:"port"`

	// Tool paths; empty means PATH lookup.
	FFmpegPath  string `env:"SILENCECUT_FFMPEG" json:"ffmpeg_path,omitempty"`
	FFprobePath string `env:"SILENCECUT_FFPROBE" json:"ffprobe_path,omitempty"`

	// Detection settings
	DetectTimeoutSec int `env:"SILENCECUT_DETECT_TIMEOUT_SEC, default=600" json:"detect_timeout_sec"`
	ProxySampleRate  int `env:"SILENCECUT_PROXY_SAMPLE_RATE, default=48000" json:"proxy_sample_rate"`

	// Data directory for the plan cache. Empty = ~/.silencecut
	DataDir string `env:"SILENCECUT_DATA_DIR" json:"data_dir"`

	// Logging settings
	LogLevel  string `env:"SILENCECUT_LOG_LEVEL, default=info" json:"log_level"`
	LogFormat string `env:"SILENCECUT_LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	return cfg, nil
}

// Validate checks value ranges the env tags cannot express.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: port must be between 1 and 65535, got %d", c.Port)
	}
	if c.DetectTimeoutSec < 0 {
		return fmt.Errorf("config: detect timeout must be >= 0, got %d", c.DetectTimeoutSec)
	}
	if c.ProxySampleRate <= 0 {
		return fmt.Errorf("config: proxy sample rate must be > 0, got %d", c.ProxySampleRate)
	}
	return nil
}

// DBPath returns the full path of the sqlite plan cache.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, PlanDBFilename)
}

// DetectTimeout returns the silencedetect timeout as a duration.
func (c *Config) DetectTimeout() time.Duration {
	return time.Duration(c.DetectTimeoutSec) * time.Second
}

// NewLogger creates the logger described by the configuration.
func (c *Config) NewLogger() *slog.Logger {
	return logging.NewLogger(c.LogLevel, c.LogFormat)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return ".silencecut"
	}
	return filepath.Join(home, ".silencecut")
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
