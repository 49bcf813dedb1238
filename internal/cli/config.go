package cli

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/svgsprite/pkg/errors"
	"github.com/matzehuels/svgsprite/pkg/pipeline"
)

// configNames are the project config files looked up in the working
// directory, in order.
var configNames = []string{"svgsprite.toml", "svgsprite.yaml", "svgsprite.yml"}

// fileConfig is the project config file.
type fileConfig struct {
	Input         string      `toml:"input" yaml:"input"`
	Output        string      `toml:"output" yaml:"output"`
	DefaultSprite string      `toml:"default_sprite" yaml:"default_sprite"`
	ElementClass  string      `toml:"element_class" yaml:"element_class"`
	Optimize      bool        `toml:"optimize" yaml:"optimize"`
	Optimizer     []string    `toml:"optimizer" yaml:"optimizer"`
	BatchSize     int         `toml:"batch_size" yaml:"batch_size"`
	Module        string      `toml:"module" yaml:"module"`
	Cache         cacheConfig `toml:"cache" yaml:"cache"`
}

// cacheConfig selects the fragment cache backend.
type cacheConfig struct {
	// RedisURL, when set, shares fragments through Redis
	// (redis://host:6379/0).
	RedisURL string `toml:"redis_url" yaml:"redis_url"`

	// Scope prefixes cache keys so projects sharing a cache stay apart.
	Scope string `toml:"scope" yaml:"scope"`
}

// options converts the file into pipeline options. Relative paths are
// resolved against base, the directory holding the config file.
func (f *fileConfig) options(base string) pipeline.Options {
	return pipeline.Options{
		Input:         resolvePath(base, f.Input),
		Output:        resolvePath(base, f.Output),
		DefaultSprite: f.DefaultSprite,
		ElementClass:  f.ElementClass,
		Optimize:      f.Optimize,
		Optimizer:     f.Optimizer,
		BatchSize:     f.BatchSize,
		Module:        resolvePath(base, f.Module),
	}
}

func resolvePath(base, path string) string {
	if path == "" || base == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// loadConfig reads the config file at path, or the first of configNames
// in the working directory when path is empty. It returns the file used,
// "" when none was found.
func loadConfig(path string) (*fileConfig, string, error) {
	if path == "" {
		for _, name := range configNames {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
		if path == "" {
			return &fileConfig{}, "", nil
		}
	}

	cfg := &fileConfig{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, "", errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
			}
			return nil, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return nil, "", errors.New(errors.ErrCodeInvalidConfig, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, "", errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
			}
			return nil, "", errors.Wrap(errors.ErrCodeIO, err, "config %s", path)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return nil, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
		}
	default:
		return nil, "", errors.New(errors.ErrCodeUnsupported, "config %s: unsupported format %q (use .toml, .yaml or .yml)", path, ext)
	}
	return cfg, path, nil
}

// =============================================================================
// Compile Flags - shared by build, watch, serve and inspect
// =============================================================================

// compileFlags holds the flags every compiling command accepts.
type compileFlags struct {
	config    string
	noCache   bool
	optimizer string
	opts      pipeline.Options
}

func (f *compileFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.config, "config", "c", "", "config file (default: svgsprite.toml or svgsprite.yaml in the working directory)")
	fl.StringVarP(&f.opts.Input, "input", "i", pipeline.DefaultInput, "icon tree root")
	fl.StringVarP(&f.opts.Output, "output", "o", pipeline.DefaultOutput, "directory for bundle documents")
	fl.StringVar(&f.opts.DefaultSprite, "default-sprite", pipeline.DefaultSprite, "bundle for icons directly under the input root")
	fl.StringVar(&f.opts.ElementClass, "class", pipeline.DefaultElementClass, "class for generated <svg> references")
	fl.BoolVar(&f.opts.Optimize, "optimize", false, "optimize icons before compiling")
	fl.StringVar(&f.optimizer, "optimizer", "", `external optimizer command reading stdin, e.g. "svgo -i - -o -" (implies --optimize)`)
	fl.IntVar(&f.opts.BatchSize, "batch-size", pipeline.DefaultBatchSize, "icons compiled concurrently per bundle")
	fl.StringVarP(&f.opts.Module, "module", "m", "", "also write an ES module exporting every bundle")
	fl.BoolVar(&f.opts.Refresh, "refresh", false, "ignore cached fragments")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// resolve merges the config file and the flags the user set.
func (f *compileFlags) resolve(cmd *cobra.Command, logger *log.Logger) (pipeline.Options, cacheConfig, error) {
	cfg, path, err := loadConfig(f.config)
	if err != nil {
		return pipeline.Options{}, cacheConfig{}, err
	}
	opts := cfg.options(filepath.Dir(path))
	opts.Logger = logger

	fl := cmd.Flags()
	override := func(name string, apply func()) {
		if fl.Changed(name) {
			apply()
		}
	}
	override("input", func() { opts.Input = f.opts.Input })
	override("output", func() { opts.Output = f.opts.Output })
	override("default-sprite", func() { opts.DefaultSprite = f.opts.DefaultSprite })
	override("class", func() { opts.ElementClass = f.opts.ElementClass })
	override("optimize", func() { opts.Optimize = f.opts.Optimize })
	override("batch-size", func() { opts.BatchSize = f.opts.BatchSize })
	override("module", func() { opts.Module = f.opts.Module })
	override("optimizer", func() {
		opts.Optimizer = strings.Fields(f.optimizer)
		opts.Optimize = true
	})
	opts.Refresh = f.opts.Refresh

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return pipeline.Options{}, cacheConfig{}, err
	}
	return opts, cfg.Cache, nil
}
