package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"outreach-engine/internal/config"
	"outreach-engine/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Turn scraped profile exports into outreach rows",
	Long: `outreach reads a profile export (CSV file or mailed attachment), keeps the
engineering leaders, writes each one a short note, looks up an email address
and appends the result to a Google Sheet.

Credentials live in the OS keychain (see "outreach secrets") or in
HUNTER_API_KEY / GITHUB_TOKEN.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "info"
		format := "console"
		if cfg, err := peekConfig(); err == nil {
			level, format = cfg.Logging.Level, cfg.Logging.Format
		}
		if verbose {
			level = "debug"
		}
		l, err := logging.New(level, format)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default <data dir>/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(runCmd, watchCmd, configCmd, secretsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// dataDir is OUTREACH_DATA_DIR, else the working directory.
func dataDir() string {
	if d := strings.TrimSpace(os.Getenv("OUTREACH_DATA_DIR")); d != "" {
		return d
	}
	return "."
}

// resolveConfigPath returns the --config path, or the data-dir config,
// writing defaults there first when it does not exist yet.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	dir := dataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path, created, err := config.EnsureUserConfig(dir)
	if err != nil {
		return "", fmt.Errorf("config bootstrap failed: %w", err)
	}
	if created && logger != nil {
		logger.Info("wrote default config", zap.String("path", path))
	}
	return path, nil
}

// loadConfig loads and normalizes the active config. Warnings are logged;
// validation errors are returned.
func loadConfig() (config.Config, string, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return config.Config{}, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, path, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, res := config.NormalizeAndValidate(cfg)
	for _, w := range res.Warnings {
		logger.Warn("config", zap.String("warning", w))
	}
	if !res.OK() {
		return cfg, path, errors.New(strings.Join(res.Errors, "\n"))
	}
	return cfg, path, nil
}

// peekConfig reads the logging section without bootstrapping anything.
func peekConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(dataDir(), "config.yml")
	}
	return config.Load(path)
}
