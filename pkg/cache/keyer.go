package cache

// FragmentFormat is bumped whenever compilation output changes for identical
// input, which invalidates previously cached fragments.
const FragmentFormat = 1

// Keyer builds cache keys. Swapping the Keyer (see [ScopedKeyer]) lets
// several projects share one cache backend without seeing each other's
// entries.
type Keyer interface {
	// FragmentKey returns the key of one compiled icon.
	FragmentKey(contentHash, symbolID string, opts FragmentKeyOpts) string
}

// FragmentKeyOpts are the compile settings that change a fragment.
type FragmentKeyOpts struct {
	Optimize  bool     `json:"optimize"`
	Optimizer []string `json:"optimizer,omitempty"`
}

// DefaultKeyer produces unscoped keys of the form "fragment:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// FragmentKey implements Keyer. The symbol id is part of the key because
// internal ids are prefixed with it.
func (DefaultKeyer) FragmentKey(contentHash, symbolID string, opts FragmentKeyOpts) string {
	return hashKey("fragment", FragmentFormat, contentHash, symbolID, opts)
}
