package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/svgsprite/pkg/cache"
	"github.com/matzehuels/svgsprite/pkg/observability"
	"github.com/matzehuels/svgsprite/pkg/sprite"
	"github.com/matzehuels/svgsprite/pkg/svg"
)

// cacheKeyType labels fragment entries in cache hooks.
const cacheKeyType = "fragment"

// Runner encapsulates pipeline execution with caching.
// The build, watch and serve commands all compile through a Runner.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute compiles the icon tree described by opts, writes the bundles and,
// if requested, the ES module.
//
// Icons and bundles that fail are reported in Result.Failures and do not
// fail the run. Errors are returned for invalid options, a broken optimizer
// configuration, cancellation and a module that cannot be written.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	processor, err := r.newProcessor(opts)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString()}
	logger := opts.Logger.With("run", result.RunID[:8])
	start := time.Now()

	assembler := &sprite.Assembler{
		Input:         opts.Input,
		Output:        opts.Output,
		DefaultBundle: opts.DefaultSprite,
		BatchSize:     opts.BatchSize,
		Processor:     processor,
		Logger:        logger,
	}
	compiled, err := assembler.Assemble(ctx)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}

	result.Bundles = compiled.Bundles
	result.Content = compiled.Content
	result.Failures = compiled.Failures
	result.Stats = Stats{
		Icons:    compiled.Icons,
		Bundles:  len(compiled.Bundles),
		Symbols:  compiled.Symbols(),
		Failures: len(compiled.Failures),
	}
	result.CacheInfo = CacheInfo{
		Hits:   int(processor.hits.Load()),
		Misses: int(processor.misses.Load()),
	}

	if opts.Module != "" {
		if err := sprite.WriteModule(opts.Module, compiled.Content, opts.ModuleOptions()); err != nil {
			return nil, fmt.Errorf("module: %w", err)
		}
		result.ModulePath = opts.Module
		logger.Debug("wrote module", "path", opts.Module)
	}

	result.Stats.Duration = time.Since(start)
	if result.Stats.Icons == 0 {
		logger.Warn("no icons found", "input", opts.Input)
	}
	logger.Info("compiled sprites",
		"bundles", result.Stats.Bundles,
		"symbols", result.Stats.Symbols,
		"failures", result.Stats.Failures,
		"cache_hits", result.CacheInfo.Hits,
		"duration", result.Stats.Duration)

	return result, nil
}

// newProcessor builds the per-icon pipeline for opts, wrapped in the
// fragment cache.
func (r *Runner) newProcessor(opts Options) (*cachedProcessor, error) {
	var optimizer svg.Optimizer
	if opts.Optimize {
		if len(opts.Optimizer) == 0 {
			optimizer = svg.BasicOptimizer{}
		} else {
			cmd, err := svg.NewCommandOptimizer(opts.Optimizer)
			if err != nil {
				return nil, err
			}
			optimizer = cmd
		}
	}

	return &cachedProcessor{
		inner:   svg.Pipeline{Optimizer: optimizer},
		cache:   r.Cache,
		keyer:   r.Keyer,
		keyOpts: opts.FragmentKeyOpts(),
		refresh: opts.Refresh,
		logger:  opts.Logger,
	}, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// cachedProcessor serves compiled fragments from the cache and stores fresh
// ones. It is shared by all batch goroutines of one run.
type cachedProcessor struct {
	inner   sprite.Processor
	cache   cache.Cache
	keyer   cache.Keyer
	keyOpts cache.FragmentKeyOpts
	refresh bool
	logger  *log.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// Process implements sprite.Processor.
func (p *cachedProcessor) Process(ctx context.Context, raw, symbolID string) (svg.Fragment, error) {
	hooks := observability.Cache()
	key := p.keyer.FragmentKey(cache.Hash([]byte(raw)), symbolID, p.keyOpts)

	if !p.refresh {
		data, hit, err := p.cache.Get(ctx, key)
		if err != nil {
			p.logger.Debug("cache read failed", "symbol", symbolID, "err", err)
		}
		if err == nil && hit {
			var frag svg.Fragment
			if err := json.Unmarshal(data, &frag); err == nil {
				p.hits.Add(1)
				hooks.OnCacheHit(ctx, cacheKeyType)
				return frag, nil
			}
			// If deserialization fails, fall through to recompile
		}
	}
	p.misses.Add(1)
	hooks.OnCacheMiss(ctx, cacheKeyType)

	frag, err := p.inner.Process(ctx, raw, symbolID)
	if err != nil {
		return svg.Fragment{}, err
	}

	if data, err := json.Marshal(frag); err == nil {
		if err := p.cache.Set(ctx, key, data, cache.TTLFragment); err != nil {
			p.logger.Debug("cache write failed", "symbol", symbolID, "err", err)
		} else {
			hooks.OnCacheSet(ctx, cacheKeyType, len(data))
		}
	}
	return frag, nil
}
