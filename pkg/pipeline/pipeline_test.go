package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/matzehuels/svgsprite/pkg/errors"
)

func TestSetDefaults(t *testing.T) {
	var opts Options
	opts.SetDefaults()

	if opts.Input != DefaultInput {
		t.Errorf("Input = %q, want %q", opts.Input, DefaultInput)
	}
	if opts.Output != DefaultOutput {
		t.Errorf("Output = %q, want %q", opts.Output, DefaultOutput)
	}
	if opts.DefaultSprite != "icons" {
		t.Errorf("DefaultSprite = %q, want icons", opts.DefaultSprite)
	}
	if opts.ElementClass != "svg-icon" {
		t.Errorf("ElementClass = %q, want svg-icon", opts.ElementClass)
	}
	if opts.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want 10", opts.BatchSize)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
	if opts.Optimize {
		t.Error("Optimize should default to false")
	}
}

func TestSetDefaultsKeepsValues(t *testing.T) {
	opts := Options{Input: "in", Output: "out", DefaultSprite: "ui", ElementClass: "icon", BatchSize: 3}
	opts.SetDefaults()

	if opts.Input != "in" || opts.Output != "out" || opts.DefaultSprite != "ui" || opts.ElementClass != "icon" || opts.BatchSize != 3 {
		t.Errorf("SetDefaults overwrote explicit values: %+v", opts)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", Options{}, false},
		{"nested default sprite", Options{DefaultSprite: "a/b"}, true},
		{"traversal default sprite", Options{DefaultSprite: ".."}, true},
		{"class with space", Options{ElementClass: "svg icon"}, true},
		{"negative batch", Options{BatchSize: -1}, true},
		{"empty optimizer command", Options{Optimize: true, Optimizer: []string{""}}, true},
		{"optimizer ignored when disabled", Options{Optimizer: []string{""}}, false},
		{"output inside input", Options{Input: "assets", Output: filepath.Join("assets", "gen")}, true},
		{"output equals input", Options{Input: "assets", Output: "assets"}, true},
		{"sibling output", Options{Input: filepath.Join("assets", "svg"), Output: filepath.Join("assets", "svg-gen")}, false},
		{"input inside output", Options{Input: filepath.Join("out", "svg"), Output: "out"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAndSetDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("error code = %s, want INVALID_CONFIG", errors.GetCode(err))
			}
		})
	}
}

func TestFragmentKeyOpts(t *testing.T) {
	off := Options{Optimizer: []string{"svgo"}}
	if got := off.FragmentKeyOpts(); got.Optimize || got.Optimizer != nil {
		t.Errorf("optimizer should not affect keys when disabled: %+v", got)
	}

	on := Options{Optimize: true, Optimizer: []string{"svgo"}}
	if got := on.FragmentKeyOpts(); !got.Optimize || len(got.Optimizer) != 1 {
		t.Errorf("FragmentKeyOpts() = %+v", got)
	}
}

func TestModuleOptions(t *testing.T) {
	opts := Options{Optimize: true}
	opts.SetDefaults()

	got := opts.ModuleOptions()
	want := ModuleOptions{
		Input:         DefaultInput,
		Output:        DefaultOutput,
		DefaultSprite: "icons",
		ElementClass:  "svg-icon",
		Optimize:      true,
	}
	if got != want {
		t.Errorf("ModuleOptions() = %+v, want %+v", got, want)
	}
}
