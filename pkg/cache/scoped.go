package cache

// ScopedKeyer wraps a Keyer with a prefix, giving each map or tenant its own
// namespace in a shared backend.
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "map:roadmap:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// A nil inner keyer means the default.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(outlineHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(outlineHash, opts)
}

// ExportKey generates a prefixed export key.
func (k *ScopedKeyer) ExportKey(docHash string, opts ExportKeyOpts) string {
	return k.prefix + k.inner.ExportKey(docHash, opts)
}
