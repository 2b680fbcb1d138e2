// Package provider fetches raw topology entities from a mesh backend.
//
// The only implementation speaks the Stridetastic HTTP API: three
// authenticated JSON endpoints for nodes, directed edges, and attached
// interfaces. Responses are cached as raw bytes so a backend outage inside
// the TTL window degrades to stale data instead of an empty graph.
package provider

import (
	"context"

	"github.com/meshview/meshview/pkg/mesh/model"
)

// Provider supplies one fetch cycle's raw entities.
type Provider interface {
	// Fetch retrieves the current raw topology. A failed fetch returns an
	// error carrying a FETCH_* code; callers keep their previous state.
	Fetch(ctx context.Context) (model.Input, error)

	// Source identifies the backend for cache keys and logs.
	Source() string
}
