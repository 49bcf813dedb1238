// Package pipeline provides the sprite compilation pipeline for svgsprite.
//
// This package ties the per-icon compiler (pkg/svg), the bundle assembler
// (pkg/sprite) and the fragment cache (pkg/cache) together behind one
// configuration struct, so the build, watch and serve commands share the
// same behavior.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Input:  "assets/svg",
//	    Output: "assets/sprite/gen",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	nav := result.Content["nav"]
package pipeline

import (
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/svgsprite/pkg/cache"
	"github.com/matzehuels/svgsprite/pkg/errors"
	"github.com/matzehuels/svgsprite/pkg/sprite"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Library Use
// =============================================================================

const (
	// DefaultInput is the icon tree root.
	DefaultInput = "assets/svg"

	// DefaultOutput is where bundle documents are written.
	DefaultOutput = "assets/sprite/gen"

	// DefaultSprite is the bundle for icons directly under the input root.
	DefaultSprite = sprite.DefaultBundle

	// DefaultElementClass is the class put on generated <svg> references.
	DefaultElementClass = "svg-icon"

	// DefaultBatchSize is how many icons of one bundle compile at a time.
	DefaultBatchSize = sprite.DefaultBatchSize
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one compilation run.
type Options struct {
	Input         string `json:"input"`
	Output        string `json:"output"`
	DefaultSprite string `json:"defaultSprite"`
	ElementClass  string `json:"elementClass"`

	// Optimize runs an optimizer over each icon before it is compiled.
	Optimize bool `json:"optimize"`

	// Optimizer is the argv of an external optimizer reading markup on
	// stdin and writing it to stdout. Empty selects the built-in one.
	Optimizer []string `json:"optimizer,omitempty"`

	BatchSize int `json:"batchSize,omitempty"`

	// Module, when set, is the path of an ES module exporting the bundles.
	Module string `json:"module,omitempty"`

	// Refresh skips fragment cache reads; fresh results are still stored.
	Refresh bool `json:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// ModuleOptions is the options object exported by the generated module.
type ModuleOptions struct {
	Input         string `json:"input"`
	Output        string `json:"output"`
	DefaultSprite string `json:"defaultSprite"`
	ElementClass  string `json:"elementClass"`
	Optimize      bool   `json:"optimize"`
}

// SetDefaults fills every unset field with its default.
func (o *Options) SetDefaults() {
	if o.Input == "" {
		o.Input = DefaultInput
	}
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	if o.DefaultSprite == "" {
		o.DefaultSprite = DefaultSprite
	}
	if o.ElementClass == "" {
		o.ElementClass = DefaultElementClass
	}
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks option values. Call SetDefaults first.
func (o *Options) Validate() error {
	if err := errors.ValidateBundleName(o.DefaultSprite); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "default sprite")
	}
	if strings.ContainsFunc(o.ElementClass, unicode.IsSpace) {
		return errors.New(errors.ErrCodeInvalidConfig, "element class %q must be a single class name", o.ElementClass)
	}
	if o.BatchSize < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "batch size must be positive, got %d", o.BatchSize)
	}
	if o.Optimize && len(o.Optimizer) > 0 && o.Optimizer[0] == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "optimizer command is empty")
	}
	if within(o.Output, o.Input) {
		return errors.New(errors.ErrCodeInvalidConfig,
			"output %s must not be inside input %s: bundles would be compiled as icons", o.Output, o.Input)
	}
	return nil
}

// ValidateAndSetDefaults applies defaults and validates.
func (o *Options) ValidateAndSetDefaults() error {
	o.SetDefaults()
	return o.Validate()
}

// ModuleOptions returns the options exported by the generated module.
func (o *Options) ModuleOptions() ModuleOptions {
	return ModuleOptions{
		Input:         o.Input,
		Output:        o.Output,
		DefaultSprite: o.DefaultSprite,
		ElementClass:  o.ElementClass,
		Optimize:      o.Optimize,
	}
}

// FragmentKeyOpts returns cache key options for compiled fragments.
func (o *Options) FragmentKeyOpts() cache.FragmentKeyOpts {
	opts := cache.FragmentKeyOpts{Optimize: o.Optimize}
	if o.Optimize {
		opts.Optimizer = o.Optimizer
	}
	return opts
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in logs and server responses.
	RunID string `json:"run_id"`

	// Bundles maps bundle name to its path and member symbol ids.
	Bundles map[string]sprite.BundleInfo `json:"bundles"`

	// Content maps bundle name to the bundle document.
	Content map[string]string `json:"-"`

	// Failures lists icons and bundles left out of the output.
	Failures []sprite.Failure `json:"failures,omitempty"`

	// ModulePath is the written ES module, if Options.Module was set.
	ModulePath string `json:"module,omitempty"`

	// Stats contains timing and size information.
	Stats Stats `json:"stats"`

	// CacheInfo tracks fragment cache usage.
	CacheInfo CacheInfo `json:"cache"`
}

// Names returns the bundle names in sorted order.
func (r *Result) Names() []string {
	return sprite.Names(r.Bundles)
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Icons    int           `json:"icons"`
	Bundles  int           `json:"bundles"`
	Symbols  int           `json:"symbols"`
	Failures int           `json:"failures"`
	Duration time.Duration `json:"duration"`
}

// CacheInfo tracks fragment cache hits and misses.
type CacheInfo struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
}
