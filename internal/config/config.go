// Package config provides runtime configuration for the monitor.
// It uses Viper to load settings from a config file and environment
// variables, with sensible defaults for a stock HWiNFO64 install.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SensorRoles maps display roles to stable reading IDs from the producer.
// Zero means "not assigned"; the display formatter degrades per role. These
// are what sensor selection persists so the monitor survives restarts
// without re-prompting.
type SensorRoles struct {
	CPUTemp   uint32 `mapstructure:"cpu_temp"`
	CPULoad   uint32 `mapstructure:"cpu_load"`
	GPUTemp   uint32 `mapstructure:"gpu_temp"`
	GPULoad   uint32 `mapstructure:"gpu_load"`
	GPUMemory uint32 `mapstructure:"gpu_memory"`
	RAMTemp   uint32 `mapstructure:"ram_temp"`
	RAMUsage  uint32 `mapstructure:"ram_usage"`
	MBTemp    uint32 `mapstructure:"mb_temp"`
	NVMeTemp  uint32 `mapstructure:"nvme_temp"`
}

// IDs returns all assigned reading IDs, deduplicated.
func (r SensorRoles) IDs() []uint32 {
	seen := make(map[uint32]bool)
	var out []uint32
	for _, id := range []uint32{
		r.CPUTemp, r.CPULoad, r.GPUTemp, r.GPULoad, r.GPUMemory,
		r.RAMTemp, r.RAMUsage, r.MBTemp, r.NVMeTemp,
	} {
		if id != 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Config holds all runtime configuration.
type Config struct {
	// ── Segment / polling ────────────────────────────────────────────────────
	// SegmentName overrides the producer's well-known segment name.
	SegmentName      string `mapstructure:"segment_name"`
	PollIntervalMS   int    `mapstructure:"poll_interval_ms"`
	ReconnectBackoff int    `mapstructure:"reconnect_backoff_seconds"`

	// ── Sensor selection ─────────────────────────────────────────────────────
	Sensors SensorRoles `mapstructure:"sensors"`
	// AllowList restricts published readings to these IDs; empty publishes
	// everything decoded.
	AllowList []uint32 `mapstructure:"allow_list"`

	// ── Display push (SteelSeries GameSense) ─────────────────────────────────
	// GameSenseURL skips discovery when set, e.g. "http://127.0.0.1:50647".
	GameSenseURL string `mapstructure:"gamesense_url"`
	GameName     string `mapstructure:"game_name"`
	// DisplayInterval is the OLED frame cadence in seconds; layouts cycle
	// one mode per frame.
	DisplayInterval int `mapstructure:"display_interval_seconds"`
	// HeartbeatEvery sends a GameSense keepalive every N frames.
	HeartbeatEvery int `mapstructure:"heartbeat_every"`

	// ── History ──────────────────────────────────────────────────────────────
	HistoryPath     string `mapstructure:"history_path"`
	HistoryEveryS   int    `mapstructure:"history_sample_seconds"`
	RetentionHours  int    `mapstructure:"history_retention_hours"`
	HistoryDisabled bool   `mapstructure:"history_disabled"`

	// ── Status API ───────────────────────────────────────────────────────────
	// APIListen enables the local status API when non-empty, e.g.
	// "127.0.0.1:8790".
	APIListen string `mapstructure:"api_listen"`

	// ── Logging ──────────────────────────────────────────────────────────────
	LogJSON  bool   `mapstructure:"log_json"`
	LogLevel string `mapstructure:"log_level"`
}

// PollInterval returns the decode tick period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Backoff returns the disconnected-state retry delay.
func (c *Config) Backoff() time.Duration {
	return time.Duration(c.ReconnectBackoff) * time.Second
}

// Load reads config from file (./config.yaml or ~/.hwinfo-monitor/config.yaml)
// and falls back to defaults. Environment variables with prefix HWMON_
// override file values.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.hwinfo-monitor")
	if err := v.ReadInConfig(); err != nil {
		// config file is optional; ignore "not found" errors
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("HWMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("segment_name", "")
	v.SetDefault("poll_interval_ms", 500)
	v.SetDefault("reconnect_backoff_seconds", 3)

	v.SetDefault("gamesense_url", "")
	v.SetDefault("game_name", "HWINFO-SYSTEM-MONITOR")
	v.SetDefault("display_interval_seconds", 3)
	v.SetDefault("heartbeat_every", 10)

	v.SetDefault("history_path", "hwinfo-history.db")
	v.SetDefault("history_sample_seconds", 10)
	v.SetDefault("history_retention_hours", 72)
	v.SetDefault("history_disabled", false)

	v.SetDefault("api_listen", "")

	v.SetDefault("log_json", false)
	v.SetDefault("log_level", "info")
}
