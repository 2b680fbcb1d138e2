// Package pkg provides the core libraries for meshview topology visualization.
//
// # Overview
//
// Meshview turns raw radio mesh observations (nodes, directed signal
// reports, interface metadata) into a styled, navigable topology graph. The
// pkg directory is organized into four main areas:
//
//  1. [mesh] - Domain logic (topology model, path search, reconciliation, styling)
//  2. [provider], [cache], [archive] - Infrastructure (backend access, caching, history)
//  3. [engine], [api] - Orchestration (refresh cycle, HTTP surface)
//  4. [render] - Graphviz output (DOT, SVG, PNG)
//
// # Architecture
//
// The typical data flow through meshview:
//
//	Stridetastic API (nodes, edges, interfaces)
//	         ↓
//	    [provider] package (fetch + cache)
//	         ↓
//	    [mesh/model] package (filter, classify, expand multi-hop)
//	         ↓
//	    [mesh/reconcile] package (identity-preserving buffer)
//	         ↓
//	    [mesh/style] package (selection-aware colors, widths, labels)
//	         ↓
//	    [render] / [api] output
//
// # Quick Start
//
// Fetch the topology once and render it to SVG:
//
//	import (
//	    "context"
//	    "github.com/meshview/meshview/pkg/engine"
//	    "github.com/meshview/meshview/pkg/provider"
//	    "github.com/meshview/meshview/pkg/render"
//	)
//
//	// 1. Create a provider for the backend
//	prov, _ := provider.NewClient(provider.ClientConfig{
//	    BaseURL: "https://mesh.example.org/api",
//	    Window:  "24h",
//	})
//
//	// 2. Run one refresh cycle
//	eng, _ := engine.New(engine.Options{Provider: prov, MaxHops: 5})
//	eng.Refresh(context.Background())
//
//	// 3. Render to SVG
//	dot := render.ToDOT(eng.Buffer(), eng.Style(), render.Options{})
//	svg, _ := render.SVG(dot)
//
// # Main Packages
//
// ## Domain Logic
//
// [mesh] - Topology records (nodes, links, virtual edges) and selection
// state. Node kinds distinguish physical radios from synthetic bridge and
// routing nodes; link classes distinguish direct, multi-hop, and bridge
// links.
//
// [mesh/model] - Snapshot construction from raw provider input: activity
// windows, bidirectional filtering, MQTT bridge routing, and expansion of
// multi-hop links into hidden intermediates.
//
// [mesh/reconcile] - Double-buffered reconciliation that preserves record
// identity across refresh cycles, so consumers can track entities by
// pointer and version.
//
// [mesh/path] - Bounded DFS path search between two nodes and layered BFS
// reachability from one node. Transparent infrastructure nodes do not count
// against the hop budget.
//
// [mesh/style] - Deterministic visual styling driven by the selection mode:
// activity-based colors when nothing is selected, neighborhood highlighting
// for one node, path highlighting for two.
//
// ## Infrastructure
//
// [provider] - Stridetastic API client with retry, response caching, and
// wire-format mapping.
//
// [cache] - Response and snapshot caching. FileCache for CLI (filesystem),
// RedisCache for servers, NullCache for testing.
//
// [archive] - Snapshot history. MongoStore for durable records,
// MemoryStore for testing.
//
// ## Orchestration
//
// [engine] - The refresh cycle: fetch, build, reconcile, restyle, archive.
// Serializes selection changes against refreshes and drops overlapping
// refresh requests.
//
// [api] - HTTP handlers (chi router) exposing graph, styles, paths, and
// refresh under /api.
//
// ## Output
//
// [render] - DOT generation from the styled buffer and SVG/PNG rasterization
// through graphviz.
//
// ## Supporting
//
// [config] - TOML configuration with environment overrides.
//
// [errors] - Coded errors with user-facing messages.
//
// [httputil] - Retry with backoff and JSON GET helpers.
//
// [observability] - Optional hooks for engine, cache, and HTTP
// instrumentation.
package pkg
