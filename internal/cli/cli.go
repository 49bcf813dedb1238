// Package cli implements the svgsprite command-line interface.
//
// # Commands
//
//   - build: compile the icon tree into sprite bundles once
//   - watch: rebuild whenever an icon under the input tree changes
//   - serve: serve the latest bundles and ES module over HTTP
//   - inspect: browse bundles and their symbol ids interactively
//   - cache: manage the fragment cache
//
// Options are read from svgsprite.toml or svgsprite.yaml in the working
// directory (or --config) and overridden by flags.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/svgsprite/pkg/buildinfo"
	"github.com/matzehuels/svgsprite/pkg/cache"
	"github.com/matzehuels/svgsprite/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "svgsprite"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "svgsprite compiles a directory of SVG icons into sprite bundles",
		Long: `svgsprite compiles a tree of SVG icons into one <symbol> sprite document per
directory. Each icon becomes a namespace-safe symbol whose id is its path
relative to the input root, so <use href="#nav-home"/> works from any page.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the cache cfg selects.
func (c *CLI) newRunner(ctx context.Context, noCache bool, cfg cacheConfig) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, noCache, cfg)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if cfg.Scope != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Scope)
	}
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

// newCache opens Redis when configured and falls back to the file cache
// if it cannot be reached.
func (c *CLI) newCache(ctx context.Context, noCache bool, cfg cacheConfig) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err == nil {
			c.Logger.Debug("using redis cache")
			return rc, nil
		}
		c.Logger.Warn("redis cache unavailable, using file cache", "err", err)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/svgsprite/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
