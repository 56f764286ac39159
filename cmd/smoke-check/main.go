package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/3000Studios/vite-react/internal/app"
	"github.com/3000Studios/vite-react/internal/common"
	"github.com/3000Studios/vite-react/internal/config"
	"github.com/3000Studios/vite-react/internal/scenario"
)

// multiFlag is a custom flag type that allows a flag to be repeated.
type multiFlag []string

func (m *multiFlag) String() string {
	return fmt.Sprintf("%v", *m)
}

func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}

var (
	configFiles   multiFlag
	scenarioNames multiFlag
	baseURL       = flag.String("url", "", "Base URL of the site under test (overrides config)")
	listOnly      = flag.Bool("list", false, "List available scenarios and exit")
	showVersion   = flag.Bool("version", false, "Print version information")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
	flag.Var(&scenarioNames, "scenario", "Scenario to run (can be specified multiple times; default all)")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion {
		fmt.Printf("smoke-check version %s\n", config.GetFullVersion())
		return 0
	}

	if len(configFiles) == 0 {
		for _, path := range configSearchPaths() {
			if _, err := os.Stat(path); err == nil {
				configFiles = append(configFiles, path)
				break
			}
		}
	}

	cfg, err := config.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	config.ApplyFlagOverrides(cfg, *baseURL, scenarioNames)

	if issues := cfg.Validate(); len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Configuration error:")
		fmt.Fprintln(os.Stderr, "")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "  - %s\n", issue)
		}
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Values can be set via TOML file, SMOKE_* environment variables, or CLI flags.")
		fmt.Fprintln(os.Stderr, "")
		return 1
	}

	logger := setupLogger(cfg)

	logger.Info().
		Str("base_url", cfg.BaseURL()).
		Str("config_files", fmt.Sprintf("%v", configFiles)).
		Str("artifacts_dir", cfg.Artifacts.Dir).
		Bool("strict", cfg.Run.Strict).
		Msg("configuration loaded")

	application, err := app.New(cfg, logger, os.Stdout)
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to initialize application")
		return 1
	}

	if *listOnly {
		for _, name := range application.Catalog.Names() {
			sc, _ := application.Catalog.Get(name)
			fmt.Printf("%-16s %s\n", name, sc.Description)
		}
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcomes, err := application.Run(ctx, cfg.Run.Scenarios, "")
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("smoke check failed")
		return 1
	}

	code := scenario.ExitCode(outcomes, cfg.Run.Strict)
	if code == 0 {
		fmt.Println("Verification passed!")
	} else {
		fmt.Println("Verification failed.")
	}
	return code
}

// configSearchPaths returns TOML files to auto-discover (first match wins).
// Binary-relative paths are tried first, then the working directory.
func configSearchPaths() []string {
	candidates := []string{
		"smoke-check.toml",
		"config/smoke-check.toml",
	}

	exe, err := os.Executable()
	if err != nil {
		return candidates
	}
	binDir := filepath.Dir(exe)

	paths := []string{
		filepath.Join(binDir, "smoke-check.toml"),
		filepath.Join(binDir, "config", "smoke-check.toml"),
	}
	paths = append(paths, candidates...)

	seen := make(map[string]bool, len(paths))
	deduped := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		deduped = append(deduped, p)
	}
	return deduped
}

// setupLogger creates an arbor logger based on config.
func setupLogger(cfg *config.Config) *common.Logger {
	return common.NewLoggerFromConfig(cfg.Logging)
}
