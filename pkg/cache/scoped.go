package cache

// Keyer builds cache keys for the payloads the fetch and render layers
// store. Centralizing key construction keeps the namespaces consistent
// between the CLI and the serve deployment.
type Keyer interface {
	// HTTPKey keys a raw provider response by endpoint namespace and query.
	HTTPKey(namespace, key string) string

	// SnapshotKey keys a built topology snapshot by source and build options.
	SnapshotKey(source string, opts SnapshotKeyOpts) string

	// RenderKey keys a rendered artifact by snapshot hash and format.
	RenderKey(snapshotHash, format string) string
}

// SnapshotKeyOpts are the build options that change snapshot content.
// Two fetches with identical opts from the same source are interchangeable.
type SnapshotKeyOpts struct {
	NodeWindow         string `json:"node_window"`
	LinkWindow         string `json:"link_window"`
	BidirectionalOnly  bool   `json:"bidirectional_only"`
	IncludeBridge      bool   `json:"include_bridge"`
	ForceBidirectional bool   `json:"force_bidirectional"`
	ExcludeMultiHop    bool   `json:"exclude_multi_hop"`
	ZeroSignal         string `json:"zero_signal"`
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// HTTPKey generates a key for a raw provider response.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return hashKey("http:"+namespace, key)
}

// SnapshotKey generates a key for a built snapshot.
func (k *DefaultKeyer) SnapshotKey(source string, opts SnapshotKeyOpts) string {
	return hashKey("snapshot", source, opts)
}

// RenderKey generates a key for a rendered artifact.
func (k *DefaultKeyer) RenderKey(snapshotHash, format string) string {
	return hashKey("render", snapshotHash, format)
}

// ScopedKeyer wraps a Keyer with a prefix so multiple mesh networks can
// share one cache backend without key collisions.
//
// Example usage:
//
//	// Per-network keys when one Redis serves several meshes
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "mesh:alpenfunk:")
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
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// HTTPKey generates a prefixed key for a raw provider response.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// SnapshotKey generates a prefixed key for a built snapshot.
func (k *ScopedKeyer) SnapshotKey(source string, opts SnapshotKeyOpts) string {
	return k.prefix + k.inner.SnapshotKey(source, opts)
}

// RenderKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) RenderKey(snapshotHash, format string) string {
	return k.prefix + k.inner.RenderKey(snapshotHash, format)
}
