package sprite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/svgsprite/pkg/errors"
	"github.com/matzehuels/svgsprite/pkg/observability"
	"github.com/matzehuels/svgsprite/pkg/svg"
)

const (
	arrowSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><path d="M1 1"/></svg>`
	homeSVG  = `<svg xmlns="http://www.w3.org/2000/svg" width="16" height="16"><path d="M2 2"/></svg>`
)

func TestAssembleEndToEnd(t *testing.T) {
	input := t.TempDir()
	output := filepath.Join(t.TempDir(), "gen")
	writeTree(t, input, map[string]string{
		"arrow.svg":    arrowSVG,
		"nav/home.svg": homeSVG,
	})

	a := &Assembler{Input: input, Output: output, DefaultBundle: "icons"}
	result, err := a.Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	wantBundles := map[string]BundleInfo{
		"icons": {Path: filepath.Join(output, "icons.svg"), Symbols: []string{"arrow"}},
		"nav":   {Path: filepath.Join(output, "nav.svg"), Symbols: []string{"nav-home"}},
	}
	if diff := cmp.Diff(wantBundles, result.Bundles); diff != "" {
		t.Errorf("Bundles mismatch (-want +got):\n%s", diff)
	}

	wantContent := map[string]string{
		"icons": "<svg xmlns=\"http://www.w3.org/2000/svg\" style=\"display: none;\">\n" +
			`<symbol id="arrow" viewBox="0 0 24 24"><path d="M1 1"/></symbol>` +
			"\n</svg>",
		"nav": "<svg xmlns=\"http://www.w3.org/2000/svg\" style=\"display: none;\">\n" +
			`<symbol id="nav-home" viewBox="0 0 16 16"><path d="M2 2"/></symbol>` +
			"\n</svg>",
	}
	if diff := cmp.Diff(wantContent, result.Content); diff != "" {
		t.Errorf("Content mismatch (-want +got):\n%s", diff)
	}

	for name, info := range result.Bundles {
		data, err := os.ReadFile(info.Path)
		if err != nil {
			t.Fatalf("bundle %s not written: %v", name, err)
		}
		if string(data) != result.Content[name] {
			t.Errorf("bundle %s on disk differs from result content", name)
		}
	}

	if result.Icons != 2 || len(result.Failures) != 0 {
		t.Errorf("Icons = %d, Failures = %v", result.Icons, result.Failures)
	}
}

func TestAssembleIdempotent(t *testing.T) {
	input := t.TempDir()
	output := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 25; i++ {
		files[fmt.Sprintf("set%d/icon%02d.svg", i%3, i)] = fmt.Sprintf(
			`<svg viewBox="0 0 %d %d"><defs><linearGradient id="g"/></defs><rect fill="url(#g)" id="r"/></svg>`, i+1, i+1)
	}
	writeTree(t, input, files)

	a := &Assembler{Input: input, Output: output, BatchSize: 4}
	first, err := a.Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	written := make(map[string][]byte)
	for name, info := range first.Bundles {
		written[name], _ = os.ReadFile(info.Path)
	}

	for run := 0; run < 3; run++ {
		again, err := a.Assemble(context.Background())
		if err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}
		if diff := cmp.Diff(first.Content, again.Content); diff != "" {
			t.Fatalf("run %d content differs (-first +again):\n%s", run, diff)
		}
		for name, info := range again.Bundles {
			data, _ := os.ReadFile(info.Path)
			if string(data) != string(written[name]) {
				t.Errorf("run %d: bundle %s not byte-identical on disk", run, name)
			}
		}
	}
}

func TestAssembleMemberOrder(t *testing.T) {
	input := t.TempDir()
	files := map[string]string{}
	var want []string
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		files[name+".svg"] = `<svg><path/></svg>`
		want = append(want, name)
	}
	writeTree(t, input, files)

	a := &Assembler{Input: input, BatchSize: 2, Processor: slowProcessor{}}
	result, err := a.Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if diff := cmp.Diff(want, result.Bundles["icons"].Symbols); diff != "" {
		t.Errorf("member order mismatch (-want +got):\n%s", diff)
	}
	if result.Bundles["icons"].Path != "" {
		t.Errorf("Path = %q, want empty without Output", result.Bundles["icons"].Path)
	}
}

// slowProcessor finishes earlier icons last to shake out ordering bugs.
type slowProcessor struct{}

func (slowProcessor) Process(ctx context.Context, raw, symbolID string) (svg.Fragment, error) {
	time.Sleep(time.Duration('h'-symbolID[0]) * time.Millisecond)
	return svg.Pipeline{}.Process(ctx, raw, symbolID)
}

func TestAssembleFailuresAreContained(t *testing.T) {
	input := t.TempDir()
	output := t.TempDir()
	writeTree(t, input, map[string]string{
		"good.svg":         arrowSVG,
		"empty.svg":        "   ",
		"noroot.svg":       "<g/>",
		"broken/empty.svg": "",
		"with space.svg":   arrowSVG,
	})

	a := &Assembler{Input: input, Output: output}
	result, err := a.Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if diff := cmp.Diff([]string{"icons"}, result.Names()); diff != "" {
		t.Errorf("bundles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"good"}, result.Bundles["icons"].Symbols); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(output, "broken.svg")); !os.IsNotExist(err) {
		t.Error("bundle without usable icons should not be written")
	}

	type failure struct {
		Icon  string
		Stage string
		Code  errors.Code
	}
	var got []failure
	for _, f := range result.Failures {
		got = append(got, failure{f.Icon, f.Stage, errors.GetCode(f.Err)})
	}
	want := []failure{
		{"broken/empty.svg", StageProcess, errors.ErrCodeEmptyContent},
		{"empty.svg", StageProcess, errors.ErrCodeEmptyContent},
		{"noroot.svg", StageProcess, errors.ErrCodeInvalidInput},
		{"with space.svg", StageProcess, errors.ErrCodeInvalidInput},
	}
	if diff := cmp.Diff(want, got, cmpopts.SortSlices(func(a, b failure) bool { return a.Icon < b.Icon })); diff != "" {
		t.Errorf("failures mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleMissingInput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "gen")
	a := &Assembler{Input: filepath.Join(t.TempDir(), "missing"), Output: output}

	result, err := a.Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if len(result.Bundles) != 0 || len(result.Content) != 0 || len(result.Failures) != 0 {
		t.Errorf("Assemble() = %+v, want empty result", result)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("output directory should not be created for an empty run")
	}
}

func TestAssembleInputIsFile(t *testing.T) {
	input := filepath.Join(t.TempDir(), "icons.svg")
	if err := os.WriteFile(input, []byte(arrowSVG), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := (&Assembler{Input: input}).Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if len(result.Bundles) != 0 {
		t.Errorf("Bundles = %v, want none", result.Bundles)
	}
	if len(result.Failures) != 1 || result.Failures[0].Stage != StageDiscover {
		t.Errorf("Failures = %v, want one discover failure", result.Failures)
	}
}

func TestAssembleWriteFailure(t *testing.T) {
	input := t.TempDir()
	writeTree(t, input, map[string]string{
		"arrow.svg":    arrowSVG,
		"nav/home.svg": homeSVG,
	})
	output := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(output, nil, 0644); err != nil {
		t.Fatal(err)
	}

	result, err := (&Assembler{Input: input, Output: output}).Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if len(result.Bundles) != 0 || len(result.Content) != 0 {
		t.Errorf("bundles that failed to write should be omitted: %v", result.Names())
	}
	if len(result.Failures) != 2 {
		t.Fatalf("Failures = %v, want 2", result.Failures)
	}
	for _, f := range result.Failures {
		if f.Stage != StageWrite || !errors.Is(f.Err, errors.ErrCodeIO) {
			t.Errorf("failure = %v, want IO_ERROR at write stage", f)
		}
	}
}

func TestAssembleUniqueIdentifiers(t *testing.T) {
	gradient := `<svg viewBox="0 0 24 24"><defs><linearGradient id="grad1"/></defs><rect fill="url(#grad1)"/></svg>`
	input := t.TempDir()
	writeTree(t, input, map[string]string{
		"logo.svg":     gradient,
		"badge.svg":    gradient,
		"nav/home.svg": gradient,
	})

	result, err := (&Assembler{Input: input}).Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	seen := make(map[string]string)
	for name, content := range result.Content {
		for _, m := range strings.Split(content, `id="`)[1:] {
			id := m[:strings.IndexByte(m, '"')]
			if prev, ok := seen[id]; ok {
				t.Errorf("id %q declared in %s and %s", id, prev, name)
			}
			seen[id] = name
		}
	}
	for _, id := range []string{"logo-grad1", "badge-grad1", "nav-home-grad1"} {
		if _, ok := seen[id]; !ok {
			t.Errorf("missing namespaced id %q", id)
		}
	}
}

func TestAssembleDuplicateSymbols(t *testing.T) {
	input := t.TempDir()
	writeTree(t, input, map[string]string{
		"a-b/c.svg": arrowSVG,
		"a/b-c.svg": arrowSVG,
	})

	result, err := (&Assembler{Input: input}).Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if diff := cmp.Diff([]string{"a-b"}, result.Names()); diff != "" {
		t.Errorf("bundles mismatch (-want +got):\n%s", diff)
	}
	if len(result.Failures) != 1 || !errors.Is(result.Failures[0].Err, errors.ErrCodeDuplicateSymbol) {
		t.Errorf("Failures = %v, want one DUPLICATE_SYMBOL", result.Failures)
	}
}

func TestAssembleInternalIDClashesWithSymbol(t *testing.T) {
	input := t.TempDir()
	writeTree(t, input, map[string]string{
		"arrow.svg":      `<svg viewBox="0 0 24 24"><linearGradient id="left"/><path fill="url(#left)"/></svg>`,
		"arrow-left.svg": arrowSVG,
	})

	result, err := (&Assembler{Input: input}).Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	content := result.Content["icons"]
	if n := strings.Count(content, `id="arrow-left"`); n != 1 {
		t.Errorf("id arrow-left declared %d times in:\n%s", n, content)
	}
	if diff := cmp.Diff([]string{"arrow-left"}, result.Bundles["icons"].Symbols); diff != "" {
		t.Errorf("symbols mismatch (-want +got):\n%s", diff)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("Failures = %v, want one", result.Failures)
	}
	f := result.Failures[0]
	if f.Icon != "arrow.svg" || f.Bundle != "icons" || !errors.Is(f.Err, errors.ErrCodeDuplicateSymbol) {
		t.Errorf("Failure = %+v, want DUPLICATE_SYMBOL for arrow.svg", f)
	}
}

func TestClaimIDs(t *testing.T) {
	frags := []svg.Fragment{
		{ID: "arrow", Body: `<linearGradient id="arrow-left"/><path fill="url(#arrow-left)"/>`},
		{ID: "arrow-left", Body: `<path/>`},
		{ID: "dot", Body: `<circle id="dot-c"/><use href="#dot-c"/><g id="dot-c"/>`},
		{ID: "dot-c", Body: `<path/>`},
	}
	icons := []Icon{
		{RelPath: "arrow.svg", Bundle: "icons"},
		{RelPath: "arrow-left.svg", Bundle: "icons"},
		{RelPath: "dot.svg", Bundle: "icons"},
		{RelPath: "dot-c.svg", Bundle: "icons"},
	}

	kept, failures := claimIDs(frags, icons)

	var got []string
	for _, f := range kept {
		got = append(got, f.ID)
	}
	if diff := cmp.Diff([]string{"arrow", "dot"}, got); diff != "" {
		t.Errorf("kept mismatch (-want +got):\n%s", diff)
	}

	var rejected []string
	for _, f := range failures {
		if !errors.Is(f.Err, errors.ErrCodeDuplicateSymbol) {
			t.Errorf("failure %v, want DUPLICATE_SYMBOL", f)
		}
		rejected = append(rejected, f.Icon)
	}
	if diff := cmp.Diff([]string{"arrow-left.svg", "dot-c.svg"}, rejected); diff != "" {
		t.Errorf("rejected mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleCancelled(t *testing.T) {
	input := t.TempDir()
	writeTree(t, input, map[string]string{"arrow.svg": arrowSVG})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := (&Assembler{Input: input}).Assemble(ctx); err != context.Canceled {
		t.Errorf("Assemble() error = %v, want context.Canceled", err)
	}
}

type countingHooks struct {
	observability.NoopCompileHooks
	icons   atomic.Int64
	bundles atomic.Int64
	mu      sync.Mutex
	done    []int
}

func (h *countingHooks) OnIconProcessed(context.Context, string, time.Duration, error) {
	h.icons.Add(1)
}

func (h *countingHooks) OnBundleWritten(context.Context, string, int, int, error) {
	h.bundles.Add(1)
}

func (h *countingHooks) OnCompileComplete(_ context.Context, _ string, bundles, icons, failures int, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done = []int{bundles, icons, failures}
}

func TestAssembleHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCompileHooks(hooks)
	defer observability.Reset()

	input := t.TempDir()
	writeTree(t, input, map[string]string{
		"arrow.svg":    arrowSVG,
		"nav/home.svg": homeSVG,
		"nav/bad.svg":  "",
	})

	if _, err := (&Assembler{Input: input, Output: t.TempDir()}).Assemble(context.Background()); err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if got := hooks.icons.Load(); got != 3 {
		t.Errorf("OnIconProcessed calls = %d, want 3", got)
	}
	if got := hooks.bundles.Load(); got != 2 {
		t.Errorf("OnBundleWritten calls = %d, want 2", got)
	}
	if diff := cmp.Diff([]int{2, 3, 1}, hooks.done); diff != "" {
		t.Errorf("OnCompileComplete mismatch (-want +got):\n%s", diff)
	}
}
