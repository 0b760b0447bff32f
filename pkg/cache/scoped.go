package cache

// ScopedKeyer wraps a Keyer with a prefix, giving callers that share one
// cache directory separate key namespaces (e.g. per-worktree layouts for a
// repository with multiple checkouts).
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "wt:main:")
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

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(inputsHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(inputsHash, opts)
}
