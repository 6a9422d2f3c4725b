package main

import (
	"context"
	"fmt"
	"os"

	"hangar/internal/catalog"
	"hangar/internal/core"
	"hangar/internal/events"
	"hangar/internal/logging"
	"hangar/internal/storage/config"

	"github.com/spf13/cobra"
)

var (
	version = "0.3.0"

	// Global flags
	configDir  string
	gameDir    string
	catalogURL string
	linkMethod string
	parallel   int
	verbosity  int
	noProgress bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hangar",
	Short: "hangar - mod manager for flight sim mods",
	Long: `hangar installs, updates, and manages game mods from a shared catalog.

Mods are stored privately and activated in the game directory via symlinks
(or copies on filesystems without symlink support), so disabling a mod never
deletes its files.

Use subcommands for operations. Run 'hangar --help' for available commands.`,
	Version:       version,
	SilenceUsage:  true, // Runtime errors should not print usage
	SilenceErrors: true, // We handle error output in Execute()
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbosity)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default: ~/.config/hangar)")
	rootCmd.PersistentFlags().StringVar(&gameDir, "game-dir", "", "game installation directory")
	rootCmd.PersistentFlags().StringVar(&catalogURL, "catalog", "", "catalog URL override")
	rootCmd.PersistentFlags().StringVar(&linkMethod, "link", "", "activation method: symlink or copy (default: auto-detect)")
	rootCmd.PersistentFlags().IntVar(&parallel, "parallel", 0, "max concurrent downloads")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v, -vv)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable the download progress display")
}

// Execute runs the root command. Exit codes: 0 = success, 1 = error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	dir := configDir
	if dir == "" {
		dir = config.DefaultConfigDir()
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	if gameDir != "" {
		cfg.GameDir = gameDir
	}
	if catalogURL != "" {
		cfg.CatalogURL = catalogURL
	}
	if linkMethod != "" {
		cfg.LinkMethod = linkMethod
	}
	if parallel > 0 {
		cfg.MaxParallel = parallel
	}
	return cfg, nil
}

// initService loads the config, fetches the catalog, and opens the core
// service. The caller must Close the returned service.
func initService(ctx context.Context) (*core.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.CatalogURL == "" {
		return nil, fmt.Errorf("no catalog configured; set catalog_url in the config file or pass --catalog")
	}

	cat, err := catalog.NewClient(logging.Component("catalog")).Fetch(ctx, cfg.CatalogURL)
	if err != nil {
		return nil, err
	}

	return core.New(cfg, cat, eventSink())
}

// initServiceOffline opens the service without fetching the catalog, for
// commands that only touch local state.
func initServiceOffline() (*core.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cat, err := catalog.NewCatalog(nil)
	if err != nil {
		return nil, err
	}
	return core.New(cfg, cat, eventSink())
}

func eventSink() events.Sink {
	if verbosity > 0 {
		return events.LogSink{Log: logging.Component("events")}
	}
	return nil
}
