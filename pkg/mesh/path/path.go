// Package path implements hop-bounded directed reachability and path
// enumeration over a mesh link set.
//
// Traversal follows directed links strictly from source to target; the
// reverse direction is never substituted. Transparent nodes (the MQTT
// bridge and interface placeholders) are pass-through infrastructure and
// consume no hop budget, so MaxHops counts the non-transparent intermediate
// relays on a path. MaxHops = 0 therefore restricts results to immediate
// one-edge reachability, possibly through transparent nodes.
//
// All functions are pure and re-entrant: they share no state beyond their
// explicit inputs and are safe to recompute on every selection change.
package path

import (
	"slices"

	"github.com/meshview/meshview/pkg/mesh"
)

// TransparentSet is the set of node IDs that consume no hop budget.
type TransparentSet map[string]bool

// Transparents collects the transparent node IDs from a node slice.
func Transparents(nodes []*mesh.NodeRecord) TransparentSet {
	set := make(TransparentSet)
	for _, n := range nodes {
		if n.Transparent() {
			set[n.ID] = true
		}
	}
	return set
}

// adjacency builds the outgoing index for a link slice.
func adjacency(links []*mesh.LinkRecord) map[string][]string {
	out := make(map[string][]string)
	for _, l := range links {
		out[l.From] = append(out[l.From], l.To)
	}
	return out
}

// relayCost is the hop budget a node consumes when traversed as an
// intermediate. Transparent infrastructure is free.
func relayCost(id string, transparent TransparentSet) int {
	if transparent[id] {
		return 0
	}
	return 1
}

// FindPaths enumerates every simple directed path from source to target
// using at most maxHops non-transparent intermediate relays.
//
// Selecting the same node as source and target yields an empty result, as
// does an unreachable target - no path existing is a normal outcome, not an
// error. Paths are returned shortest first, ties ordered lexicographically
// by their node sequence.
func FindPaths(source, target string, links []*mesh.LinkRecord, maxHops int, transparent TransparentSet) []mesh.Path {
	if source == "" || target == "" || source == target {
		return nil
	}

	adj := adjacency(links)
	var found []mesh.Path

	// Depth-first enumeration of simple paths. The budget decrements when a
	// node is used as an intermediate relay; node/edge counts are in the low
	// thousands, so exhaustive enumeration is well within a refresh cycle.
	visited := map[string]bool{source: true}
	walk := []string{source}

	var dfs func(at string, budget int)
	dfs = func(at string, budget int) {
		for _, next := range adj[at] {
			if visited[next] {
				continue
			}
			if next == target {
				found = append(found, slices.Clone(append(walk, next)))
				continue
			}
			cost := relayCost(next, transparent)
			if cost > budget {
				continue
			}
			visited[next] = true
			walk = append(walk, next)
			dfs(next, budget-cost)
			walk = walk[:len(walk)-1]
			visited[next] = false
		}
	}
	dfs(source, maxHops)

	slices.SortFunc(found, func(a, b mesh.Path) int {
		if d := len(a) - len(b); d != 0 {
			return d
		}
		return slices.Compare(a, b)
	})
	return found
}

// Reachable is the result of a reachability query: the set of node IDs
// reachable from the source and the directed link keys traversed to reach
// them. The source itself is not included.
type Reachable struct {
	Nodes map[string]bool
	Links map[mesh.LinkKey]bool
}

// Contains reports whether the node ID was reached.
func (r Reachable) Contains(id string) bool { return r.Nodes[id] }

// HasLink reports whether the directed link was traversed.
func (r Reachable) HasLink(k mesh.LinkKey) bool { return r.Links[k] }

// ReachableFrom computes the nodes and links reachable from source along
// directed links using at most maxHops non-transparent intermediate relays.
//
// The expansion is a layered breadth-first search: each layer costs O(V+E)
// and at most maxHops+1 layers are expanded (transparent nodes re-expand
// within their layer since they are free to cross).
func ReachableFrom(source string, links []*mesh.LinkRecord, maxHops int, transparent TransparentSet) Reachable {
	result := Reachable{
		Nodes: make(map[string]bool),
		Links: make(map[mesh.LinkKey]bool),
	}
	if source == "" {
		return result
	}

	adj := adjacency(links)

	// best[n] is the minimum relay budget spent to stand at n. A node is
	// re-expanded only when reached more cheaply, which bounds the BFS.
	best := map[string]int{source: 0}
	frontier := []string{source}

	for len(frontier) > 0 {
		var next []string
		for _, at := range frontier {
			spent := best[at]
			// Standing at a non-transparent node other than the source
			// costs one relay to continue onward.
			onward := spent
			if at != source {
				onward += relayCost(at, transparent)
			}
			if onward > maxHops {
				continue
			}
			for _, to := range adj[at] {
				result.Nodes[to] = true
				result.Links[mesh.LinkKey{From: at, To: to}] = true
				if prev, seen := best[to]; !seen || onward < prev {
					best[to] = onward
					next = append(next, to)
				}
			}
		}
		frontier = next
	}

	delete(result.Nodes, source)
	return result
}
