package cache

// ScopedKeyer prefixes every key of an inner Keyer. It keeps deptree's
// entries apart from other users of a shared backend such as Redis:
//
//	k := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "deptree:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer returns a keyer that prepends prefix. A nil inner keyer
// means [NewDefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ExpandKey implements Keyer.
func (k *ScopedKeyer) ExpandKey(graphHash string, opts ExpandKeyOpts) string {
	return k.prefix + k.inner.ExpandKey(graphHash, opts)
}

// DOTKey implements Keyer.
func (k *ScopedKeyer) DOTKey(graphHash string, opts DOTKeyOpts) string {
	return k.prefix + k.inner.DOTKey(graphHash, opts)
}
