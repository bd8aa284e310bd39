// Package config holds the process-level configuration for the prompt
// queue engine's CLI host (data directory, tracing, sound, debug logging)
// and the YAML (de)serialization of the Profile/GlobalSettings records
// ConfigStore persists.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/log"
)

// TracingConfig holds distributed tracing configuration, unchanged in
// shape from the teacher's own orchestration tracing config.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Exporter     string  `mapstructure:"exporter"`
	FilePath     string  `mapstructure:"file_path"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

// SoundEventConfig configures a single pre-dispatch or finish audio cue.
type SoundEventConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	OverrideSounds []string `mapstructure:"override_sounds"`
}

// SoundConfig holds audio feedback configuration for queue automation
// (spec §4.5's beep/finish-beep side effects).
type SoundConfig struct {
	Events map[string]SoundEventConfig `mapstructure:"events"`
}

// AppConfig is the top-level, viper-bound process configuration: where the
// key-value store lives, whether debug logging is on, and the ambient
// tracing/sound settings. Profile and GlobalSettings live inside the store,
// not here.
type AppConfig struct {
	DataDir string        `mapstructure:"data_dir"`
	Debug   bool          `mapstructure:"debug"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Sound   SoundConfig   `mapstructure:"sound"`
}

// DefaultDataDir returns ~/.config/promptqueue, mirroring the teacher's
// XDG-style resolution for its own on-disk state.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "promptqueue")
}

// Defaults returns an AppConfig with sensible default values.
func Defaults() AppConfig {
	return AppConfig{
		DataDir: DefaultDataDir(),
		Debug:   false,
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Sound: SoundConfig{
			Events: map[string]SoundEventConfig{
				"queue_dispatch": {Enabled: true},
				"queue_finish":   {Enabled: true},
			},
		},
	}
}

// DefaultConfigTemplate returns the default process config as a commented
// YAML document, written by WriteDefaultConfig on first run.
func DefaultConfigTemplate() string {
	return `# Prompt Queue Engine configuration

# Directory holding the sqlite-backed profile/settings store.
# data_dir: ~/.config/promptqueue

# Verbose debug logging (also controlled by PROMPTQUEUE_DEBUG).
debug: false

# Distributed tracing for the queue/scheduler/estimator pipeline.
tracing:
  enabled: false
  exporter: file        # none, file, stdout, otlp
  # file_path: ~/.config/promptqueue/traces/traces.jsonl
  # otlp_endpoint: localhost:4317
  sample_rate: 1.0

# Pre-dispatch and finish audio cues (spec: QueueAutomation).
sound:
  events:
    queue_dispatch:
      enabled: true
    queue_finish:
      enabled: true
`
}

// WriteDefaultConfig creates a config file at path with default settings
// and comments, creating the parent directory if needed.
func WriteDefaultConfig(path string) error {
	log.Debug(log.CatConfig, "writing default app config", "path", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "failed to create config directory", err, "dir", dir)
		return fmt.Errorf("config: create directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "failed to write config file", err, "path", path)
		return fmt.Errorf("config: write file: %w", err)
	}

	log.Info(log.CatConfig, "created default app config", "path", path)
	return nil
}
