package sprite

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/svgsprite/pkg/errors"
	"github.com/matzehuels/svgsprite/pkg/observability"
	"github.com/matzehuels/svgsprite/pkg/svg"
)

const (
	// DefaultBundle is the bundle for icons directly under the input root.
	DefaultBundle = "icons"

	// DefaultBatchSize caps how many icons of one bundle are processed at
	// the same time.
	DefaultBatchSize = 10
)

// Processor compiles one icon's raw markup into a fragment.
// svg.Pipeline is the standard implementation.
type Processor interface {
	Process(ctx context.Context, raw, symbolID string) (svg.Fragment, error)
}

// Assembler compiles an icon tree into bundle documents.
//
// Bundles are assembled concurrently, one goroutine per bundle. Within a
// bundle, icons are processed in batches of BatchSize; a batch is joined
// before the next one starts. Fragments are collected by index, so member
// order is discovery order no matter which goroutine finishes first.
//
// An Assembler holds no state between runs and may be reused, but two
// concurrent runs writing the same Output race on the bundle files.
type Assembler struct {
	// Input is the icon tree root. A missing root compiles to an empty result.
	Input string

	// Output is the directory bundles are written to. When empty, bundles
	// are only returned in the Result.
	Output string

	// DefaultBundle names the bundle for top-level icons.
	// Defaults to DefaultBundle.
	DefaultBundle string

	// BatchSize defaults to DefaultBatchSize.
	BatchSize int

	// Processor defaults to svg.Pipeline{}.
	Processor Processor

	// Logger receives per-icon and per-bundle diagnostics. Nil discards them.
	Logger *log.Logger
}

// Assemble discovers, groups, compiles and writes every bundle.
//
// Failures are contained: an icon that cannot be read or compiled is left
// out of its bundle, a bundle that cannot be written is left out of the
// result, and both are reported in Result.Failures. The only error returned
// is ctx's, when it is cancelled between batches.
func (a *Assembler) Assemble(ctx context.Context) (*Result, error) {
	hooks := observability.Compile()
	hooks.OnCompileStart(ctx, a.Input)
	start := time.Now()

	result, err := a.assemble(ctx)

	if err != nil {
		hooks.OnCompileComplete(ctx, a.Input, 0, 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnCompileComplete(ctx, a.Input, len(result.Bundles), result.Icons, len(result.Failures), time.Since(start), nil)
	return result, nil
}

func (a *Assembler) assemble(ctx context.Context) (*Result, error) {
	logger := a.logger()
	result := newResult()

	icons, err := Discover(a.Input, a.defaultBundle())
	if err != nil {
		logger.Warn("cannot enumerate icons", "input", a.Input, "err", err)
		result.Failures = append(result.Failures, Failure{Stage: StageDiscover, Err: err})
		return result, nil
	}
	result.Icons = len(icons)
	if len(icons) == 0 {
		logger.Debug("no icons found", "input", a.Input)
		return result, nil
	}

	icons, duplicates := dedupe(icons)
	for _, f := range duplicates {
		logger.Warn("skipping icon", "icon", f.Icon, "err", f.Err)
	}
	result.Failures = append(result.Failures, duplicates...)

	groups := Group(icons)
	names := Names(groups)
	logger.Debug("grouped icons", "icons", len(icons), "bundles", len(names))

	outcomes := make([]bundleOutcome, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			out, err := a.assembleBundle(gctx, name, groups[name])
			outcomes[i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, name := range names {
		out := outcomes[i]
		result.Failures = append(result.Failures, out.failures...)
		if !out.ok {
			continue
		}
		result.Bundles[name] = out.info
		result.Content[name] = out.content
	}
	return result, nil
}

// bundleOutcome is what one bundle goroutine hands back to Assemble.
type bundleOutcome struct {
	info     BundleInfo
	content  string
	ok       bool
	failures []Failure
}

// iconOutcome is the result of one icon in a batch; failure is set when the
// icon was left out.
type iconOutcome struct {
	frag    svg.Fragment
	failure *Failure
}

func (a *Assembler) assembleBundle(ctx context.Context, name string, members []Icon) (bundleOutcome, error) {
	logger := a.logger()
	var out bundleOutcome

	frags := make([]svg.Fragment, 0, len(members))
	icons := make([]Icon, 0, len(members))
	size := a.batchSize()
	for start := 0; start < len(members); start += size {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		batch := members[start:min(start+size, len(members))]
		results := make([]iconOutcome, len(batch))

		var wg sync.WaitGroup
		wg.Add(len(batch))
		for i, icon := range batch {
			go func() {
				defer wg.Done()
				results[i] = a.processIcon(ctx, icon)
			}()
		}
		wg.Wait()

		for i, r := range results {
			if r.failure != nil {
				out.failures = append(out.failures, *r.failure)
				continue
			}
			frags = append(frags, r.frag)
			icons = append(icons, batch[i])
		}
		logger.Debug("processed batch", "bundle", name, "from", start, "size", len(batch))
	}

	frags, clashes := claimIDs(frags, icons)
	for _, f := range clashes {
		logger.Warn("skipping icon", "icon", f.Icon, "stage", f.Stage, "err", f.Err)
	}
	out.failures = append(out.failures, clashes...)

	if len(frags) == 0 {
		logger.Warn("bundle has no usable icons", "bundle", name, "icons", len(members))
		return out, nil
	}

	symbols := make([]string, len(frags))
	for i, f := range frags {
		symbols[i] = f.ID
	}
	content := RenderBundle(frags)
	info := BundleInfo{Symbols: symbols}

	if a.Output != "" {
		path, err := WriteBundle(a.Output, name, content)
		observability.Compile().OnBundleWritten(ctx, name, len(symbols), len(content), err)
		if err != nil {
			logger.Error("write bundle failed", "bundle", name, "err", err)
			out.failures = append(out.failures, Failure{Bundle: name, Stage: StageWrite, Err: err})
			return out, nil
		}
		info.Path = path
		logger.Debug("wrote bundle", "bundle", name, "path", path, "symbols", len(symbols))
	}

	out.info = info
	out.content = content
	out.ok = true
	return out, nil
}

// claimIDs keeps the ids of one bundle document unique. Symbol ids and the
// namespaced internal ids of every fragment share the document, so an icon's
// internal id can still land on a sibling's symbol id (arrow.svg declaring
// "left" becomes "arrow-left", which is also the id of arrow-left.svg).
// Fragments claim their ids in member order; a fragment that needs an id
// already claimed is rejected with DUPLICATE_SYMBOL.
func claimIDs(frags []svg.Fragment, icons []Icon) ([]svg.Fragment, []Failure) {
	claimed := make(map[string]string, len(frags))
	kept := make([]svg.Fragment, 0, len(frags))
	var failures []Failure

	for i, f := range frags {
		ids := append([]string{svg.EscapeAttr(f.ID)}, svg.DeclaredIDs(f.Body)...)
		clash := ""
		for _, id := range ids {
			if _, ok := claimed[id]; ok {
				clash = id
				break
			}
		}
		if clash != "" {
			failures = append(failures, Failure{
				Icon:   icons[i].RelPath,
				Bundle: icons[i].Bundle,
				Stage:  StageProcess,
				Err: errors.New(errors.ErrCodeDuplicateSymbol,
					"id %q is already used by %s", clash, claimed[clash]),
			})
			continue
		}
		for _, id := range ids {
			claimed[id] = icons[i].RelPath
		}
		kept = append(kept, f)
	}
	return kept, failures
}

func (a *Assembler) processIcon(ctx context.Context, icon Icon) iconOutcome {
	start := time.Now()
	frag, stage, err := a.compileIcon(ctx, icon)
	observability.Compile().OnIconProcessed(ctx, icon.SymbolID, time.Since(start), err)

	if err != nil {
		a.logger().Warn("skipping icon", "icon", icon.RelPath, "stage", stage, "err", err)
		return iconOutcome{failure: &Failure{
			Icon:   icon.RelPath,
			Bundle: icon.Bundle,
			Stage:  stage,
			Err:    err,
		}}
	}
	return iconOutcome{frag: frag}
}

func (a *Assembler) compileIcon(ctx context.Context, icon Icon) (svg.Fragment, string, error) {
	if err := errors.ValidateSymbolID(icon.SymbolID); err != nil {
		return svg.Fragment{}, StageProcess, err
	}

	raw, err := os.ReadFile(icon.Path)
	if err != nil {
		code := errors.ErrCodeIO
		if os.IsNotExist(err) {
			code = errors.ErrCodeFileNotFound
		}
		return svg.Fragment{}, StageRead, errors.Wrap(code, err, "read %s", icon.RelPath)
	}

	frag, err := a.processor().Process(ctx, string(raw), icon.SymbolID)
	if err != nil {
		return svg.Fragment{}, StageProcess, err
	}
	return frag, "", nil
}

func (a *Assembler) logger() *log.Logger {
	if a.Logger == nil {
		return log.New(io.Discard)
	}
	return a.Logger
}

func (a *Assembler) processor() Processor {
	if a.Processor == nil {
		return svg.Pipeline{}
	}
	return a.Processor
}

func (a *Assembler) defaultBundle() string {
	if a.DefaultBundle == "" {
		return DefaultBundle
	}
	return a.DefaultBundle
}

func (a *Assembler) batchSize() int {
	if a.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return a.BatchSize
}
