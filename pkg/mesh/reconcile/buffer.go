// Package reconcile maintains the persistent topology buffer across refresh
// cycles.
//
// Each fetch cycle produces a fresh [mesh.Snapshot]; the reconciler diffs it
// against the buffer and mutates the buffer in place. Entities present in
// both are updated field by field only where a structural difference exists,
// preserving their object identity; entities only in the snapshot are
// appended as new objects; entities only in the buffer are removed.
//
// Identity preservation is what keeps the visualization "live": a rendering
// collaborator keyed on entity identity (for example to retain a simulated
// position across refreshes) would otherwise lose continuity every cycle.
// Each record also carries a Version counter, bumped only on real change, so
// consumers can detect updates without comparing every field or relying on
// pointer equality.
//
// Apply must never run against an incomplete source: when a fetch fails the
// cycle is skipped and the buffer stays untouched.
package reconcile

import (
	"slices"

	"github.com/meshview/meshview/pkg/mesh"
)

// Buffer is the persistent, identity-preserving topology store.
//
// The zero value is not usable - use New. Buffer is not safe for concurrent
// use; the refresh engine guarantees a single reconciliation runs at a time.
type Buffer struct {
	nodes []*mesh.NodeRecord
	links []*mesh.LinkRecord

	byID  map[string]*mesh.NodeRecord
	byKey map[mesh.LinkKey]*mesh.LinkRecord

	virtual mesh.VirtualEdgeSet

	// generation counts completed Apply calls.
	generation uint64
}

// New creates an empty buffer.
func New() *Buffer {
	return &Buffer{
		byID:    make(map[string]*mesh.NodeRecord),
		byKey:   make(map[mesh.LinkKey]*mesh.LinkRecord),
		virtual: make(mesh.VirtualEdgeSet),
	}
}

// Nodes returns the buffered nodes. The slice is owned by the buffer; the
// pointers are stable across refreshes for unchanged entities.
func (b *Buffer) Nodes() []*mesh.NodeRecord { return b.nodes }

// Links returns the buffered links. Same ownership rules as Nodes.
func (b *Buffer) Links() []*mesh.LinkRecord { return b.links }

// Node returns the buffered node with the given ID, or nil.
func (b *Buffer) Node(id string) *mesh.NodeRecord { return b.byID[id] }

// Link returns the buffered link with the given ordered key, or nil.
func (b *Buffer) Link(k mesh.LinkKey) *mesh.LinkRecord { return b.byKey[k] }

// Virtual returns the current virtual edge set.
func (b *Buffer) Virtual() mesh.VirtualEdgeSet { return b.virtual }

// NodeCount returns the number of buffered nodes.
func (b *Buffer) NodeCount() int { return len(b.nodes) }

// LinkCount returns the number of buffered links.
func (b *Buffer) LinkCount() int { return len(b.links) }

// Generation returns the number of snapshots applied so far.
func (b *Buffer) Generation() uint64 { return b.generation }

// BothDirections reports whether the buffer holds links in both directions
// for the pair. Used by the style engine for curvature offsets.
func (b *Buffer) BothDirections(k mesh.LinkKey) bool {
	return b.byKey[k] != nil && b.byKey[k.Reverse()] != nil
}

// Stats summarizes what one Apply call changed.
type Stats struct {
	NodesAdded   int
	NodesUpdated int
	NodesRemoved int
	LinksAdded   int
	LinksUpdated int
	LinksRemoved int
}

// Unchanged reports whether the snapshot was structurally identical to the
// buffer contents.
func (s Stats) Unchanged() bool { return s == Stats{} }

// Apply reconciles the buffer against the snapshot, mutating it in place,
// and reports what changed. The operation is all-or-nothing relative to a
// single snapshot; callers must not invoke it when the fetch failed.
//
// Applying the same snapshot twice is idempotent: the second call changes
// nothing and preserves every object created by the first.
func (b *Buffer) Apply(snap mesh.Snapshot) Stats {
	var stats Stats

	seenNodes := make(map[string]bool, len(snap.Nodes))
	for i := range snap.Nodes {
		n := &snap.Nodes[i]
		seenNodes[n.ID] = true

		if cur, ok := b.byID[n.ID]; ok {
			if updateNode(cur, n) {
				stats.NodesUpdated++
			}
			continue
		}
		created := *n
		created.Version = 1
		rec := &created
		b.nodes = append(b.nodes, rec)
		b.byID[rec.ID] = rec
		stats.NodesAdded++
	}

	b.nodes = slices.DeleteFunc(b.nodes, func(n *mesh.NodeRecord) bool {
		if seenNodes[n.ID] {
			return false
		}
		delete(b.byID, n.ID)
		stats.NodesRemoved++
		return true
	})

	seenLinks := make(map[mesh.LinkKey]bool, len(snap.Links))
	for i := range snap.Links {
		l := &snap.Links[i]
		key := l.Key()
		seenLinks[key] = true

		if cur, ok := b.byKey[key]; ok {
			if updateLink(cur, l) {
				stats.LinksUpdated++
			}
			continue
		}
		created := *l
		created.Version = 1
		rec := &created
		b.links = append(b.links, rec)
		b.byKey[key] = rec
		stats.LinksAdded++
	}

	b.links = slices.DeleteFunc(b.links, func(l *mesh.LinkRecord) bool {
		if seenLinks[l.Key()] {
			return false
		}
		delete(b.byKey, l.Key())
		stats.LinksRemoved++
		return true
	})

	b.virtual = snap.Virtual.Clone()
	b.generation++
	return stats
}

// updateNode assigns changed fields from next onto cur and reports whether
// anything differed. Version is bumped exactly once per changed record.
func updateNode(cur, next *mesh.NodeRecord) bool {
	changed := false

	if cur.Number != next.Number {
		cur.Number = next.Number
		changed = true
	}
	if cur.ShortName != next.ShortName {
		cur.ShortName = next.ShortName
		changed = true
	}
	if cur.LongName != next.LongName {
		cur.LongName = next.LongName
		changed = true
	}
	if cur.Role != next.Role {
		cur.Role = next.Role
		changed = true
	}
	if !samePosition(cur.Position, next.Position) {
		cur.Position = next.Position
		changed = true
	}
	if !cur.FirstSeen.Equal(next.FirstSeen) {
		cur.FirstSeen = next.FirstSeen
		changed = true
	}
	if !cur.LastSeen.Equal(next.LastSeen) {
		cur.LastSeen = next.LastSeen
		changed = true
	}
	if cur.Kind != next.Kind {
		cur.Kind = next.Kind
		changed = true
	}
	if cur.Virtual != next.Virtual {
		cur.Virtual = next.Virtual
		changed = true
	}

	if changed {
		cur.Version++
	}
	return changed
}

func samePosition(a, b *mesh.GeoPos) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// updateLink assigns changed fields from next onto cur and reports whether
// anything differed.
func updateLink(cur, next *mesh.LinkRecord) bool {
	changed := false

	if cur.RSSI != next.RSSI {
		cur.RSSI = next.RSSI
		changed = true
	}
	if cur.SNR != next.SNR {
		cur.SNR = next.SNR
		changed = true
	}
	if cur.Hops != next.Hops {
		cur.Hops = next.Hops
		changed = true
	}
	if !cur.LastSeen.Equal(next.LastSeen) {
		cur.LastSeen = next.LastSeen
		changed = true
	}
	if cur.Class != next.Class {
		cur.Class = next.Class
		changed = true
	}
	if cur.NoSignalData != next.NoSignalData {
		cur.NoSignalData = next.NoSignalData
		changed = true
	}
	if cur.OriginalHops != next.OriginalHops {
		cur.OriginalHops = next.OriginalHops
		changed = true
	}
	if cur.IsLastHop != next.IsLastHop {
		cur.IsLastHop = next.IsLastHop
		changed = true
	}

	if changed {
		cur.Version++
	}
	return changed
}
