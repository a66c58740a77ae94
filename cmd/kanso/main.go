// Package main provides the kanso binary entry point.
// Kanso turns a free-text project goal into a time-boxed, dependency-ordered
// task plan through a multi-stage LLM pipeline.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	// Register LLM providers via init()
	_ "github.com/c360studio/kanso/llm/providers"

	"github.com/c360studio/kanso/config"
	"github.com/c360studio/kanso/model"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "kanso"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "kanso",
		Short: "LLM-driven project planner",
		Long: `Kanso turns a free-text project goal into a time-boxed,
dependency-ordered task plan.

A staged pipeline of LLM agents analyzes the request, decomposes it into
phased tasks, estimates durations with risk buffers, and schedules the
result deterministically. Plans can be refined conversationally and
exported as calendar files.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(planCommand())
	cmd.AddCommand(chatCommand())
	cmd.AddCommand(exportCommand())
	cmd.AddCommand(serveCommand())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func setupLogging(logLevel string) {
	level := slog.LevelWarn
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadAppConfig loads the layered user/project configuration.
func loadAppConfig() (*config.Config, error) {
	return config.NewLoader(slog.Default()).Load()
}

// buildModelRegistry loads the model registry from the configured path,
// falling back to the built-in defaults.
func buildModelRegistry(cfg *config.Config) (*model.Registry, error) {
	if cfg.Model.RegistryPath == "" {
		return model.NewDefaultRegistry(), nil
	}

	registry, err := model.LoadFromFile(cfg.Model.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("load model registry %s: %w", cfg.Model.RegistryPath, err)
	}
	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model registry: %w", err)
	}
	return registry, nil
}
