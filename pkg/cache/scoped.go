package cache

// ScopedKeyer wraps a Keyer with a prefix so several projects can share one
// backend, typically a Redis instance used by CI.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "web-app:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// FragmentKey generates a prefixed fragment key.
func (k *ScopedKeyer) FragmentKey(contentHash, symbolID string, opts FragmentKeyOpts) string {
	return k.prefix + k.inner.FragmentKey(contentHash, symbolID, opts)
}
