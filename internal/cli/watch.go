package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/svgsprite/pkg/errors"
	"github.com/matzehuels/svgsprite/pkg/pipeline"
	"github.com/matzehuels/svgsprite/pkg/sprite"
)

// defaultDebounce is how long the tree must be quiet before a rebuild.
const defaultDebounce = 150 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		flags    compileFlags
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild sprite bundles whenever an icon changes",
		Long: `Compile the icon tree, then watch it and recompile after every burst of
changes to .svg files. New subdirectories are picked up automatically.

Rebuilds never overlap: changes made during a rebuild trigger one more
rebuild after it finishes. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cacheCfg, err := flags.resolve(cmd, c.Logger)
			if err != nil {
				return err
			}
			return c.runWatch(cmd.Context(), opts, flags.noCache, cacheCfg, debounce)
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "quiet period before a rebuild")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, opts pipeline.Options, noCache bool, cacheCfg cacheConfig, debounce time.Duration) error {
	runner, err := c.newRunner(ctx, noCache, cacheCfg)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if _, err := runner.Execute(ctx, opts); err != nil {
		return err
	}

	w, err := newWatcher(opts.Input, debounce, c.Logger)
	if err != nil {
		return err
	}
	printInfo("Watching %s %s", StyleHighlight.Render(opts.Input), StyleDim.Render("(Ctrl+C to stop)"))

	return w.run(ctx, func(ctx context.Context) {
		c.rebuild(ctx, runner, opts, nil)
	})
}

// rebuild compiles once for watch mode and hands the result to publish.
// Errors are logged; the watch loop keeps running.
func (c *CLI) rebuild(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, publish func(*pipeline.Result)) {
	p := newProgress(c.Logger)
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		if ctx.Err() == nil {
			c.Logger.Error("rebuild failed", "err", err)
		}
		return
	}
	if publish != nil {
		publish(result)
	}
	p.done("rebuilt",
		"bundles", result.Stats.Bundles,
		"symbols", result.Stats.Symbols,
		"failures", result.Stats.Failures,
		"cache_hits", result.CacheInfo.Hits)
}

// =============================================================================
// Watcher
// =============================================================================

// watcher calls a build function after each burst of icon changes under
// a directory tree. The goroutine in run owns everything below, so builds
// are serialized without locks.
type watcher struct {
	fs       *fsnotify.Watcher
	root     string
	debounce time.Duration
	logger   *log.Logger

	// dirs are the watched directories.
	dirs map[string]bool
}

// newWatcher watches root and every directory below it.
func newWatcher(root string, debounce time.Duration, logger *log.Logger) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &watcher{
		fs:       fw,
		root:     root,
		debounce: debounce,
		logger:   logger,
		dirs:     make(map[string]bool),
	}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "watch %s", root)
	}
	return w, nil
}

// addTree watches dir and its subdirectories. Unreadable subdirectories
// are skipped.
func (w *watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.logger.Warn("not watching directory", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() || w.dirs[path] {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			if path == dir {
				return err
			}
			w.logger.Warn("not watching directory", "path", path, "err", err)
			return filepath.SkipDir
		}
		w.dirs[path] = true
		w.logger.Debug("watching", "dir", path)
		return nil
	})
}

// relevant reports whether ev can change the compiled output, and starts
// watching directories that were just created.
func (w *watcher) relevant(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("not watching directory", "path", ev.Name, "err", err)
			}
			return true
		}
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		if w.dirs[ev.Name] {
			delete(w.dirs, ev.Name)
			return true
		}
	}
	if filepath.Ext(ev.Name) != sprite.Ext {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

// run blocks until ctx is done or the watcher fails. build runs on this
// goroutine once the tree has been quiet for the debounce period.
func (w *watcher) run(ctx context.Context, build func(context.Context)) error {
	defer w.fs.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("change", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)

		case <-timer.C:
			build(ctx)
		}
	}
}
