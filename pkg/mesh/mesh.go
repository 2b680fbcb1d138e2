// Package mesh defines the core graph entities for mesh-network topology:
// nodes, directed links, selection state, and paths.
//
// A node is any addressable entity in the network - a physical radio, a
// virtual identity, or a synthetic bridge/interface placeholder inserted by
// the graph model. A link is a directed observation that one node received a
// transmission from another, together with its signal-quality metrics.
//
// Links are identified by their ordered (From, To) pair: at most one
// LinkRecord exists per ordered pair at any time, and the most recent
// observation wins. The reverse direction is an independent link and is never
// substituted for the forward one.
package mesh

import (
	"fmt"
	"time"
)

// NodeKind distinguishes physical radios from synthetic nodes inserted by
// the graph model.
type NodeKind int

const (
	// KindPhysical is a node observed on the air (or a virtual identity
	// registered with the provider - see NodeRecord.Virtual).
	KindPhysical NodeKind = iota
	// KindMqttBridge is the single synthetic node representing the MQTT
	// broker uplink. Every link touching it is a bridge link.
	KindMqttBridge
	// KindInterfaceBridge is a synthetic placeholder for a locally attached
	// interface (serial/TCP). Built only from nodes that reported a
	// self-directed edge within the active link window.
	KindInterfaceBridge
	// KindRouteHidden is a synthetic intermediate inserted to route the
	// visual path of a multi-hop link. Hidden nodes carry no identity beyond
	// rendering and are excluded from node listings.
	KindRouteHidden
)

// String returns the kind name used in labels and serialized output.
func (k NodeKind) String() string {
	switch k {
	case KindMqttBridge:
		return "mqtt-bridge"
	case KindInterfaceBridge:
		return "interface"
	case KindRouteHidden:
		return "hidden"
	default:
		return "physical"
	}
}

// Transparent reports whether the node passes traffic without counting as a
// mesh relay hop. Bridge and interface nodes are infrastructure, not relays.
func (k NodeKind) Transparent() bool {
	return k == KindMqttBridge || k == KindInterfaceBridge
}

// LinkClass is the tagged classification of a directed link.
type LinkClass int

const (
	// ClassDirect is a plain observed radio link.
	ClassDirect LinkClass = iota
	// ClassMultiHopSegment is one segment of a multi-hop link routed through
	// hidden intermediates. Segments carry OriginalHops and IsLastHop.
	ClassMultiHopSegment
	// ClassDirectMultiHop marks the reported hops>0 link between the true
	// endpoints when multi-hop expansion is enabled. It overlays the segment
	// chain and keeps the ordered-pair key unique.
	ClassDirectMultiHop
	// ClassBridge is a link touching the MQTT bridge or an interface
	// placeholder. Bridge links are excluded from bidirectional curvature
	// and distance heuristics.
	ClassBridge
	// ClassVirtual is an assumed reverse link synthesized from its observed
	// forward direction, not independently measured.
	ClassVirtual
)

// String returns the class name used in labels and serialized output.
func (c LinkClass) String() string {
	switch c {
	case ClassMultiHopSegment:
		return "multi-hop"
	case ClassDirectMultiHop:
		return "direct-multi-hop"
	case ClassBridge:
		return "bridge"
	case ClassVirtual:
		return "assumed"
	default:
		return "direct"
	}
}

// NodeRecord is a node in the topology buffer.
//
// Version is bumped by the reconciler whenever a field changes between
// snapshots, so consumers keyed on entity identity (for example a layout
// engine retaining simulated positions) can detect real changes without
// comparing every field.
type NodeRecord struct {
	ID        string   // Stable identity (e.g. "!a1b2c3d4")
	Number    uint32   // Numeric network address
	ShortName string   // Four-character display name
	LongName  string   // Full display name
	Role      string   // Device role reported by the node (CLIENT, ROUTER, ...)
	Position  *GeoPos  // Last reported position, nil if never seen
	FirstSeen time.Time
	LastSeen  time.Time
	Kind      NodeKind
	Virtual   bool // Virtual identity registered with the provider

	Version uint64 // Bumped on every reconciled field change
}

// GeoPos is a geographic position report.
type GeoPos struct {
	Latitude  float64
	Longitude float64
	Altitude  int32
}

// DisplayName returns the long name if set, then the short name, then the ID.
func (n *NodeRecord) DisplayName() string {
	if n.LongName != "" {
		return n.LongName
	}
	if n.ShortName != "" {
		return n.ShortName
	}
	return n.ID
}

// Transparent reports whether the node consumes no hop budget in path
// queries.
func (n *NodeRecord) Transparent() bool { return n.Kind.Transparent() }

// LinkKey is the ordered (source, target) pair identifying a directed link.
type LinkKey struct {
	From string
	To   string
}

// Reverse returns the key for the opposite direction.
func (k LinkKey) Reverse() LinkKey { return LinkKey{From: k.To, To: k.From} }

// String formats the key as "from→to" for logs and map output.
func (k LinkKey) String() string { return fmt.Sprintf("%s→%s", k.From, k.To) }

// LinkRecord is a directed link in the topology buffer.
type LinkRecord struct {
	From     string // Source node ID (transmitter)
	To       string // Target node ID (receiver)
	RSSI     int32  // Received signal strength, dBm (0 when unknown)
	SNR      float64
	Hops     int // Relays between the endpoints as reported
	LastSeen time.Time
	Class    LinkClass

	// NoSignalData flags the hops=0, RSSI=0, SNR=0 data-quality edge case:
	// the provider could not distinguish "no data" from a true zero-strength
	// reading. The record is kept and rendered as "no data" unless the
	// zero-signal policy suppresses it.
	NoSignalData bool

	// Multi-hop segment fields, meaningful only for ClassMultiHopSegment.
	OriginalHops int  // Hop count of the link this segment was expanded from
	IsLastHop    bool // True for the segment that reaches the true target

	Version uint64 // Bumped on every reconciled field change
}

// Key returns the ordered-pair identity of the link.
func (l *LinkRecord) Key() LinkKey { return LinkKey{From: l.From, To: l.To} }

// HasSignal reports whether the signal metrics carry a real measurement.
func (l *LinkRecord) HasSignal() bool {
	return !l.NoSignalData && (l.RSSI != 0 || l.SNR != 0)
}

// VirtualEdgeSet is the set of ordered pairs marking links that were
// synthesized rather than observed. Membership implies the link record is
// flagged ClassVirtual; the set exists so consumers can test virtualness by
// key without holding the record.
type VirtualEdgeSet map[LinkKey]struct{}

// Add registers a key in the set.
func (s VirtualEdgeSet) Add(k LinkKey) { s[k] = struct{}{} }

// Contains reports whether the key is in the set.
func (s VirtualEdgeSet) Contains(k LinkKey) bool {
	_, ok := s[k]
	return ok
}

// Clone returns a copy of the set. Returns an empty set for nil.
func (s VirtualEdgeSet) Clone() VirtualEdgeSet {
	out := make(VirtualEdgeSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Snapshot is one fetch cycle's computed node/link set, produced by the
// graph model and consumed by the reconciler. A snapshot is immutable once
// built; the reconciler copies values into the persistent buffer rather
// than adopting the snapshot's records.
type Snapshot struct {
	Nodes   []NodeRecord
	Links   []LinkRecord
	Virtual VirtualEdgeSet
	Taken   time.Time
}

// Path is an ordered sequence of node IDs. Every consecutive pair (a, b)
// corresponds to an existing directed link a→b in the set the path was
// computed over.
type Path []string

// Links returns the keys of the directed links the path traverses.
func (p Path) Links() []LinkKey {
	if len(p) < 2 {
		return nil
	}
	keys := make([]LinkKey, 0, len(p)-1)
	for i := 0; i+1 < len(p); i++ {
		keys = append(keys, LinkKey{From: p[i], To: p[i+1]})
	}
	return keys
}

// SelectionState holds the zero, one, or two selected node IDs. Order
// matters in two-node mode: First is the path source, Second the target.
type SelectionState struct {
	First  string
	Second string
}

// Mode is the selection cardinality: NONE, ONE, or TWO.
type Mode int

const (
	ModeNone Mode = iota
	ModeOne
	ModeTwo
)

// Mode returns the selection cardinality.
func (s SelectionState) Mode() Mode {
	switch {
	case s.First != "" && s.Second != "":
		return ModeTwo
	case s.First != "":
		return ModeOne
	default:
		return ModeNone
	}
}

// Selected reports whether id is one of the selected nodes.
func (s SelectionState) Selected(id string) bool {
	return id != "" && (id == s.First || id == s.Second)
}

// Toggle returns the selection state after clicking id: an unselected node
// becomes First (or Second if First is taken), a selected node is removed
// and the remaining selection promoted to First.
func (s SelectionState) Toggle(id string) SelectionState {
	switch id {
	case "":
		return s
	case s.First:
		return SelectionState{First: s.Second}
	case s.Second:
		return SelectionState{First: s.First}
	}
	if s.First == "" {
		return SelectionState{First: id}
	}
	return SelectionState{First: s.First, Second: id}
}
