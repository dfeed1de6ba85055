// # cmd/scriptbridge/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scriptbridge/internal/app"
	"scriptbridge/internal/config"
	"scriptbridge/internal/observability"
	"scriptbridge/internal/watcher"
)

var (
	configPath = flag.String("config", "./scriptbridge.toml", "Path to config file")
	once       = flag.Bool("once", false, "Run a single generation pass and exit")
	ui         = flag.Bool("ui", false, "Enable terminal UI mode (implies watch)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("scriptbridge v%s\n", VERSION)
		os.Exit(0)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stdout
	if *ui {
		// In UI mode, avoid stdout logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
				if err == nil {
					output = f
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load config; any failure falls back to the defaults.
	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath == "./scriptbridge.toml" {
			if example, exErr := config.Load("./scriptbridge.example.toml"); exErr == nil {
				cfg = example
			} else {
				slog.Debug("no config file found, using defaults", "error", err)
			}
		} else {
			slog.Warn("failed to load config, using defaults", "path", *configPath, "error", err)
		}
	}

	if flag.NArg() > 0 {
		cfg.ScriptPaths = flag.Args()
	}

	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, "scriptbridge")
	if err != nil {
		slog.Warn("failed to set up tracing", "error", err)
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				slog.Warn("failed to shut down tracing", "error", err)
			}
		}()
	}

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	summary, err := a.Run(ctx)
	if err != nil {
		slog.Error("generation failed", "error", err)
		os.Exit(1)
	}

	if !*ui {
		printSummary(summary)
	}

	if *once {
		if hasErrors(summary) {
			os.Exit(2)
		}
		os.Exit(0)
	}

	// Watch mode
	if cfg.MetricsAddr != "" {
		srv := observability.NewServer(cfg.MetricsAddr, a.Health)
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			os.Exit(1)
		}
		defer srv.Stop(context.Background())
	}

	w, err := watcher.NewWatcher(
		cfg.Watch.Debounce,
		cfg.Exclude.Dirs,
		cfg.Exclude.Files,
		a.HandleChanges,
	)
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}
	defer w.Close()

	if err := w.Watch(cfg.ScriptPaths); err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	if *ui {
		if err := runUI(a, summary); err != nil {
			slog.Error("failed to run UI", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("watching for script changes", "paths", cfg.ScriptPaths)
		a.SetUpdateHandler(func(s app.Summary) { printSummary(s) })
		select {}
	}
}

func hasErrors(s app.Summary) bool {
	return len(s.Diagnostics) > 0
}

func printSummary(s app.Summary) {
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Generated: %d bridges, %d proxies from %d classes in %v\n",
		s.Bridges, s.Proxies, s.Classes, s.Duration.Round(0))
	fmt.Printf("Files: %d written, %d up to date\n", s.Written, s.Skipped)

	if len(s.Diagnostics) > 0 {
		fmt.Printf("⚠️  %d DIAGNOSTICS:\n", len(s.Diagnostics))
		for _, d := range s.Diagnostics {
			fmt.Printf("   [%s] %s: %s\n", d.Code, d.Class, d.Detail)
		}
	} else {
		fmt.Println("✅ All classes resolved.")
	}
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "scriptbridge", "scriptbridge.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "scriptbridge", "scriptbridge.log")
	}

	return "scriptbridge.log"
}
