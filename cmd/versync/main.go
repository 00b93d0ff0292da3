package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/schaermu/versync/internal/config"
	"github.com/schaermu/versync/internal/git"
	"github.com/schaermu/versync/internal/report"
	"github.com/schaermu/versync/internal/sync"
	"github.com/spf13/cobra"
)

var (
	// Set by goreleaser
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile   string
	rootDir   string
	logLevel  string
	logFormat string
	colorMode string

	// Sync command flags
	dryRun bool
	stage  bool
)

var (
	errTargetsFailed = errors.New("one or more targets failed")
	errDrift         = errors.New("one or more targets are out of sync")
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "versync",
	Short: "Keep a project's version consistent across its manifests",
	Long: `versync reads the version from a canonical manifest (package.json by default)
and writes it into every dependent manifest, such as tauri.conf.json and
Cargo.toml, touching nothing but the version value itself.

Without a subcommand it behaves like "versync sync".`,
	SilenceUsage: true,
	RunE:         runSync,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Propagate the canonical version to all target files",
	Long: `Sync reads the version from the canonical manifest once and updates every
configured target in order. A target that fails does not stop the others;
the command exits non-zero if any target failed.

Each file is replaced atomically, so an interrupted run never leaves a
half-written manifest behind.`,
	RunE: runSync,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that all target files carry the canonical version",
	Long: `Check performs a dry run and prints the change each out-of-sync target would
receive. It exits non-zero if any target is out of sync or cannot be read,
which makes it suitable as a CI gate.`,
	RunE: runCheck,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("versync %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+config.FileName+" in the project root, falling back to the built-in Tauri layout)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "project root used when no config file is given")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", string(report.ColorAuto), "colorize the report (auto, always, never)")

	// Sync command flags
	for _, cmd := range []*cobra.Command{rootCmd, syncCmd} {
		cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be done without making changes")
		cmd.Flags().BoolVar(&stage, "stage", false, "stage updated files with git add (overrides git.stage)")
	}

	// Add commands
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	logger := setupLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("stage") {
		cfg.Git.Stage = stage
	}

	engine := sync.NewEngine(cfg, git.NewShellClient(), logger, dryRun)
	results, runErr := engine.Run(ctx)
	if results == nil && runErr != nil {
		return runErr
	}

	w := newReportWriter(cmd, cfg)
	w.ShowDiff = dryRun
	if err := w.Write(results); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}
	if report.HasFailures(results) {
		return errTargetsFailed
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	logger := setupLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	results, err := sync.NewEngine(cfg, nil, logger, true).Run(ctx)
	if err != nil {
		return err
	}

	w := newReportWriter(cmd, cfg)
	w.ShowDiff = true
	if err := w.Write(results); err != nil {
		return err
	}

	if report.HasFailures(results) {
		return errTargetsFailed
	}
	if report.HasDrift(results) {
		return errDrift
	}
	return nil
}

func newReportWriter(cmd *cobra.Command, cfg *config.Config) *report.Writer {
	w := report.NewWriter(cmd.OutOrStdout(), report.ColorMode(colorMode))
	w.PathFunc = cfg.Rel
	return w
}

func setupLogger() *slog.Logger {
	// Parse log level
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// Create handler based on format. Stdout carries the report.
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

func loadConfig(logger *slog.Logger) (*config.Config, error) {
	configPath := cfgFile
	if configPath == "" {
		candidate := filepath.Join(rootDir, config.FileName)
		if _, err := os.Stat(candidate); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to stat %s: %w", candidate, err)
			}
			logger.Info("no config file found, using built-in targets", "root", rootDir)
			return config.Default(rootDir), nil
		}
		configPath = candidate
	}

	logger.Info("loading configuration", "path", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded",
		"source", cfg.Source.Path,
		"targets", len(cfg.Targets),
		"git_stage", cfg.Git.Stage)

	return cfg, nil
}

func setupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}
