// Package cmd implements the prompt queue engine's CLI surface: an
// interactive TUI (run), headless profile management (profile), scripted
// queue dispatch (queue), and one-shot token estimation (estimate).
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	viperlib "github.com/spf13/viper"

	"github.com/MaxITService/OneClickPrompts-sub000/internal/broadcastbus"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/config"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/configstore"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/infrastructure/kvstore"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/log"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/orchestration/tracing"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE any
	// Bubble Tea program starts, so the terminal's OSC 11 response can't
	// race with Bubble Tea's input loop and appear as garbage input.
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	cfg       config.AppConfig
	debugFlag bool

	viper = viperlib.New()

	tracingProvider *tracing.Provider
)

var rootCmd = &cobra.Command{
	Use:     "promptqueue",
	Short:   "A terminal queue-and-dispatch engine for AI chat sites",
	Long:    `An interactive prompt queue: buffer prompts and dispatch them one at a time, on a jittered timer, to a simulated chat site.`,
	Version: version,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initTracing()
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return shutdownTracing()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/promptqueue/config.yaml)")
	rootCmd.PersistentFlags().StringP("data-dir", "", "",
		"directory holding the sqlite-backed profile store")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"enable debug mode with logging (also: PROMPTQUEUE_DEBUG=1)")

	_ = viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("data_dir", defaults.DataDir)
	viper.SetDefault("debug", defaults.Debug)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		viper.AddConfigPath(filepath.Join(home, ".config", "promptqueue"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viperlib.ConfigFileNotFoundError
		if errors.As(err, &configNotFound) {
			defaultPath := filepath.Join(defaults.DataDir, "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func maybeInitLogging() func() {
	debug := os.Getenv("PROMPTQUEUE_DEBUG") != "" || debugFlag || cfg.Debug
	if !debug {
		return func() {}
	}
	logPath := os.Getenv("PROMPTQUEUE_LOG")
	if logPath == "" {
		logPath = filepath.Join(cfg.DataDir, "debug.log")
	}
	cleanup, err := log.InitWithTeaLog(logPath, "promptqueue")
	if err != nil {
		return func() {}
	}
	log.Info(log.CatConfig, "prompt queue engine starting", "version", version, "logPath", logPath)
	return cleanup
}

// initTracing bootstraps the global OpenTelemetry tracer provider from
// cfg.Tracing. A provider init failure (e.g. an unreachable OTLP collector)
// disables tracing for the run rather than aborting it: dispatchOnce,
// EstimatorWorker.process, and ConfigStore.SaveConfig all ask
// tracing.Tracer() for a span unconditionally, and otel's global tracer
// falls back to a no-op provider when none has been set.
func initTracing() {
	tcfg := tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     cfg.Tracing.FilePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
		ServiceName:  tracing.ServiceName,
	}
	if tcfg.Exporter == "file" && tcfg.FilePath == "" {
		tcfg.FilePath = filepath.Join(cfg.DataDir, "traces", "traces.jsonl")
	}
	p, err := tracing.NewProvider(tcfg)
	if err != nil {
		log.Warn(log.CatConfig, "tracing disabled: provider init failed", "error", err.Error())
		return
	}
	tracingProvider = p
	if p.Enabled() {
		log.Info(log.CatConfig, "tracing enabled", "exporter", tcfg.Exporter)
	}
}

// shutdownTracing flushes any pending spans. Called from
// PersistentPostRunE so every subcommand shuts the provider down on exit.
func shutdownTracing() error {
	if tracingProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return tracingProvider.Shutdown(ctx)
}

// openStore opens the sqlite-backed configstore at cfg.DataDir, returning
// the store, bus, and a close function releasing both the bus and the
// underlying database connection.
func openStore() (*configstore.Store, *broadcastbus.Bus, func() error, error) {
	dbPath := filepath.Join(cfg.DataDir, "promptqueue.db")
	db, err := kvstore.NewDB(dbPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}
	bus := broadcastbus.New()
	store := configstore.New(db.Repository(), bus, func() int64 { return time.Now().Unix() })

	stopWatch, err := store.WatchExternal(dbPath)
	if err != nil {
		log.Warn(log.CatConfig, "external config watch unavailable, continuing without it", "error", err.Error())
		stopWatch = func() error { return nil }
	}

	closeFn := func() error {
		_ = stopWatch()
		bus.Close()
		return db.Close()
	}
	return store, bus, closeFn, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
