package sprite

import (
	"fmt"
)

// Stage names where a Failure happened.
const (
	StageDiscover = "discover"
	StageRead     = "read"
	StageProcess  = "process"
	StageWrite    = "write"
)

// BundleInfo describes one written bundle.
type BundleInfo struct {
	// Path is the bundle document's file path, or "" when the assembler
	// has no output directory.
	Path string `json:"path"`

	// Symbols are the member symbol ids in document order.
	Symbols []string `json:"symbols"`
}

// Failure records an icon or bundle that was left out of the output.
type Failure struct {
	// Icon is the icon's relative path, empty for bundle-level failures.
	Icon string `json:"icon,omitempty"`

	// Bundle is the affected bundle.
	Bundle string `json:"bundle,omitempty"`

	// Stage is one of the Stage* constants.
	Stage string `json:"stage"`

	Err error `json:"-"`
}

// Error implements error.
func (f Failure) Error() string {
	if f.Icon != "" {
		return fmt.Sprintf("%s %s: %v", f.Stage, f.Icon, f.Err)
	}
	return fmt.Sprintf("%s bundle %s: %v", f.Stage, f.Bundle, f.Err)
}

// Unwrap returns the underlying error.
func (f Failure) Unwrap() error { return f.Err }

// Result is the outcome of one compilation run.
type Result struct {
	// Bundles maps bundle name to its path and members.
	Bundles map[string]BundleInfo `json:"bundles"`

	// Content maps bundle name to the bundle document text.
	Content map[string]string `json:"-"`

	// Failures lists every icon and bundle left out, in discovery order
	// per stage.
	Failures []Failure `json:"failures,omitempty"`

	// Icons is the number of icon files discovered.
	Icons int `json:"icons"`
}

func newResult() *Result {
	return &Result{
		Bundles: make(map[string]BundleInfo),
		Content: make(map[string]string),
	}
}

// Names returns the bundle names in sorted order.
func (r *Result) Names() []string {
	return Names(r.Bundles)
}

// Symbols returns the number of symbols across all bundles.
func (r *Result) Symbols() int {
	n := 0
	for _, b := range r.Bundles {
		n += len(b.Symbols)
	}
	return n
}
