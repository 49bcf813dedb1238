package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/svgsprite/pkg/cache"
	"github.com/matzehuels/svgsprite/pkg/sprite"
)

// captureOutput sends status lines to a buffer for the rest of the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	out = &buf
	t.Cleanup(func() { out = defaultOut })
	return &buf
}

func writeIcons(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	buf := captureOutput(t)

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetOut(buf)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"build", "watch", "serve", "inspect", "cache", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	in, outDir := filepath.Join(dir, "svg"), filepath.Join(dir, "gen")
	writeIcons(t, in, map[string]string{
		"logo.svg":     `<svg viewBox="0 0 24 24"><path d="M1 1"/></svg>`,
		"nav/home.svg": `<svg viewBox="0 0 24 24"><path d="M2 2"/></svg>`,
	})

	got, err := execute(t, "build", "-i", in, "-o", outDir)
	if err != nil {
		t.Fatalf("build error = %v", err)
	}
	for _, want := range []string{"Compiled 2 bundles", sprite.BundlePath(outDir, "icons"), sprite.BundlePath(outDir, "nav")} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	data, err := os.ReadFile(sprite.BundlePath(outDir, "nav"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `<symbol id="nav-home" viewBox="0 0 24 24"><path d="M2 2"/></symbol>`) {
		t.Errorf("nav bundle = %s", data)
	}
}

func TestBuildCommandModuleFromConfig(t *testing.T) {
	dir := t.TempDir()
	writeIcons(t, filepath.Join(dir, "icons"), map[string]string{
		"check.svg": `<svg width="16" height="16"><path d="M0 0"/></svg>`,
	})
	config := filepath.Join(dir, "svgsprite.toml")
	writeIcons(t, dir, map[string]string{
		"svgsprite.toml": "input = \"icons\"\noutput = \"gen\"\nmodule = \"gen/sprites.mjs\"\n",
	})

	if _, err := execute(t, "build", "--config", config, "--no-cache"); err != nil {
		t.Fatalf("build error = %v", err)
	}

	module, err := os.ReadFile(filepath.Join(dir, "gen", "sprites.mjs"))
	if err != nil {
		t.Fatalf("module not written: %v", err)
	}
	if !strings.Contains(string(module), `"icons": `) {
		t.Errorf("module = %s", module)
	}
	if _, err := os.Stat(filepath.Join(dir, "gen", "sprites.d.ts")); err != nil {
		t.Errorf("type declarations not written: %v", err)
	}
}

func TestBuildCommandStrict(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "svg")
	writeIcons(t, in, map[string]string{
		"ok.svg":    `<svg viewBox="0 0 1 1"><g/></svg>`,
		"empty.svg": "",
	})

	got, err := execute(t, "build", "-i", in, "-o", filepath.Join(dir, "gen"))
	if err != nil {
		t.Fatalf("build without --strict error = %v", err)
	}
	if !strings.Contains(got, "empty.svg") {
		t.Errorf("failure not reported:\n%s", got)
	}

	if _, err := execute(t, "build", "-i", in, "-o", filepath.Join(dir, "gen"), "--strict"); err == nil {
		t.Error("build --strict succeeded with a failing icon")
	}
}

func TestBuildCommandInvalidOptions(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, "build", "-i", dir, "-o", filepath.Join(dir, "gen")); err == nil {
		t.Error("build accepted output inside input")
	}
}

func TestInspectCommandBundle(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "svg")
	writeIcons(t, in, map[string]string{
		"nav/home.svg": `<svg viewBox="0 0 24 24"><path/></svg>`,
		"nav/back.svg": `<svg viewBox="0 0 24 24"><path/></svg>`,
	})

	got, err := execute(t, "inspect", "-i", in, "-o", filepath.Join(dir, "gen"), "--bundle", "nav", "--class", "ico")
	if err != nil {
		t.Fatalf("inspect error = %v", err)
	}
	for _, want := range []string{"nav-back", "nav-home", `<svg class="ico"><use href="#nav-home"/></svg>`} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	if _, err := execute(t, "inspect", "-i", in, "-o", filepath.Join(dir, "gen"), "--bundle", "ui"); err == nil {
		t.Error("inspect accepted an unknown bundle")
	}
}

func TestCacheCommands(t *testing.T) {
	cacheHome := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	buf := captureOutput(t)

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "path"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if got, want := strings.TrimSpace(buf.String()), filepath.Join(cacheHome, appName); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}

	buf.Reset()
	root.SetArgs([]string{"cache", "clear"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Cache is empty") {
		t.Errorf("cache clear on missing dir = %q", buf.String())
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			var buf bytes.Buffer
			root := New(io.Discard, LogInfo).RootCommand()
			root.SetOut(&buf)
			root.SetArgs([]string{"completion", shell})
			if err := root.Execute(); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(buf.String(), appName) {
				t.Errorf("%s completion does not mention %s", shell, appName)
			}
		})
	}
}

func TestNewCacheSelection(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c := New(io.Discard, LogInfo)
	ctx := context.Background()

	runner, err := c.newRunner(ctx, true, cacheConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := runner.Cache.(interface{ Dir() string }); ok {
		t.Error("--no-cache selected the file cache")
	}

	runner, err = c.newRunner(ctx, false, cacheConfig{RedisURL: "not-a-url", Scope: "web"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := runner.Cache.(interface{ Dir() string }); !ok {
		t.Errorf("unreachable redis did not fall back to the file cache: %T", runner.Cache)
	}
	scoped := runner.Keyer.FragmentKey("h", "id", cache.FragmentKeyOpts{})
	plain := cache.NewDefaultKeyer().FragmentKey("h", "id", cache.FragmentKeyOpts{})
	if scoped == plain {
		t.Error("scope did not change cache keys")
	}
}

func TestBuildExampleProject(t *testing.T) {
	outDir := t.TempDir()
	if _, err := execute(t, "build", "-i", filepath.Join("..", "..", "examples", "icons", "svg"), "-o", outDir, "--optimize", "--no-cache"); err != nil {
		t.Fatalf("build error = %v", err)
	}

	want := map[string][]string{
		"icons":        {`<symbol id="logo" viewBox="0 0 32 32">`, `id="logo-grad1"`, `fill="url(#logo-grad1)"`},
		"nav":          {`<symbol id="nav-back"`, `<symbol id="nav-home"`, `stroke="currentColor"`},
		"brand-social": {`<symbol id="brand-social-mastodon"`, `clip-path="url(#brand-social-mastodon-clip)"`},
	}
	for bundle, fragments := range want {
		data, err := os.ReadFile(sprite.BundlePath(outDir, bundle))
		if err != nil {
			t.Errorf("bundle %s: %v", bundle, err)
			continue
		}
		for _, f := range fragments {
			if !strings.Contains(string(data), f) {
				t.Errorf("bundle %s missing %s:\n%s", bundle, f, data)
			}
		}
		if strings.Contains(string(data), "<style") {
			t.Errorf("bundle %s kept a style block:\n%s", bundle, data)
		}
	}
}
