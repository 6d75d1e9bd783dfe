package cache

// ScopedKeyer wraps a Keyer with a prefix so that several tools or versions
// can share one cache backend without seeing each other's entries. The
// pipeline scopes keys by build version, which invalidates entries written
// by other releases.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "v1.2.0:")
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
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}

// TextKey generates a prefixed key for text caching.
func (k *ScopedKeyer) TextKey(docHash string, opts TextKeyOpts) string {
	return k.prefix + k.inner.TextKey(docHash, opts)
}
