// Package model builds the directed topology snapshot from raw provider
// entities.
//
// The build is a pure function of its inputs: raw nodes, raw directed edges,
// interface metadata, and filter options. It classifies nodes and links with
// tagged kinds, synthesizes assumed reverse edges when requested, expands
// multi-hop links through hidden routing intermediates, and represents the
// MQTT uplink as a single synthetic bridge node.
//
// The resulting [mesh.Snapshot] is handed to the reconciler; the model never
// mutates shared state. If the raw snapshot is unavailable the model is not
// invoked and the previously reconciled buffer stays authoritative.
package model

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/meshview/meshview/pkg/mesh"
)

// BridgeNodeID is the identity of the synthetic MQTT bridge node.
const BridgeNodeID = "~mqtt"

// EdgeType tags the transport a raw edge was observed on.
type EdgeType string

const (
	// EdgeRadio is a link heard directly over the air.
	EdgeRadio EdgeType = "rf"
	// EdgeMQTT is a link relayed through the MQTT broker uplink.
	EdgeMQTT EdgeType = "mqtt"
)

// ZeroSignalPolicy decides what happens to a link reporting hops=0 with both
// signal metrics exactly zero. The provider cannot distinguish "no data"
// from a true zero-strength reading, so the choice is explicit configuration
// rather than a silent default.
type ZeroSignalPolicy string

const (
	// ZeroSignalKeep keeps the link, flagged NoSignalData, and renders it
	// as "no data". This is the default.
	ZeroSignalKeep ZeroSignalPolicy = "keep"
	// ZeroSignalSuppress drops the link from the snapshot.
	ZeroSignalSuppress ZeroSignalPolicy = "suppress"
)

// NodeInfo is a raw node observation from the data provider.
type NodeInfo struct {
	ID        string
	Number    uint32
	ShortName string
	LongName  string
	Role      string
	Position  *mesh.GeoPos
	FirstSeen time.Time
	LastSeen  time.Time
	Virtual   bool
}

// EdgeInfo is a raw directed edge observation from the data provider.
// A self-directed edge (From == To) is not a topology link: it is the only
// observable signal that the node is attached to a local interface.
type EdgeInfo struct {
	From     string
	To       string
	RSSI     int32
	SNR      float64
	Hops     int
	LastSeen time.Time
	Type     EdgeType
}

// InterfaceInfo is interface metadata from the data provider.
type InterfaceInfo struct {
	ID                string
	Name              string
	DisplayName       string
	Status            string
	SerialBoundNodeID string
}

// Input bundles one fetch cycle's raw entities.
type Input struct {
	Nodes      []NodeInfo
	Edges      []EdgeInfo
	Interfaces []InterfaceInfo

	// Now anchors the activity windows. The zero value means time.Now().
	Now time.Time
}

// Options are the filter settings controlling the build.
type Options struct {
	// BidirectionalOnly keeps only links whose reverse direction was also
	// observed. Bridge links are infrastructure and are exempt.
	BidirectionalOnly bool

	// IncludeBridge adds the synthetic MQTT bridge node and routes
	// MQTT-relayed edges through it. When false, MQTT edges are dropped.
	IncludeBridge bool

	// ForceBidirectional synthesizes an assumed reverse link for every
	// observed pair missing one, reusing the forward metrics as an
	// approximation. Physical radio links are not guaranteed symmetric;
	// this is a heuristic, not a measurement. Takes precedence over
	// BidirectionalOnly since it guarantees bidirectionality.
	ForceBidirectional bool

	// ExcludeMultiHop disables the expansion of hops>0 links into hidden
	// routing intermediates; the link stays a plain direct record.
	ExcludeMultiHop bool

	// NodeWindow and LinkWindow drop nodes/links whose LastSeen falls
	// outside the window ending at Input.Now. Zero means unbounded.
	NodeWindow time.Duration
	LinkWindow time.Duration

	// ZeroSignal resolves the hops=0 / all-zero-metrics ambiguity.
	// Empty defaults to ZeroSignalKeep.
	ZeroSignal ZeroSignalPolicy
}

// Build computes the topology snapshot for one fetch cycle.
//
// The output is deterministic: nodes are sorted by ID and links by ordered
// key, so identical inputs produce byte-identical snapshots.
func Build(in Input, opts Options) mesh.Snapshot {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	if opts.ZeroSignal == "" {
		opts.ZeroSignal = ZeroSignalKeep
	}

	b := &builder{
		now:     now,
		opts:    opts,
		nodes:   make(map[string]mesh.NodeRecord),
		links:   make(map[mesh.LinkKey]mesh.LinkRecord),
		virtual: make(mesh.VirtualEdgeSet),
	}

	b.addNodes(in.Nodes)
	selfEdge := b.addEdges(in.Edges)
	b.addInterfaces(in.Interfaces, selfEdge)
	b.filterDanglingLinks()
	if opts.BidirectionalOnly && !opts.ForceBidirectional {
		b.dropUnidirectional()
	}
	if opts.ForceBidirectional {
		b.synthesizeReverses()
	}
	if !opts.ExcludeMultiHop {
		b.expandMultiHop()
	}

	return b.snapshot()
}

type builder struct {
	now     time.Time
	opts    Options
	nodes   map[string]mesh.NodeRecord
	links   map[mesh.LinkKey]mesh.LinkRecord
	virtual mesh.VirtualEdgeSet
}

func (b *builder) inNodeWindow(t time.Time) bool {
	return b.opts.NodeWindow == 0 || !t.Before(b.now.Add(-b.opts.NodeWindow))
}

func (b *builder) inLinkWindow(t time.Time) bool {
	return b.opts.LinkWindow == 0 || !t.Before(b.now.Add(-b.opts.LinkWindow))
}

func (b *builder) addNodes(raw []NodeInfo) {
	for _, n := range raw {
		if n.ID == "" || !b.inNodeWindow(n.LastSeen) {
			continue
		}
		b.nodes[n.ID] = mesh.NodeRecord{
			ID:        n.ID,
			Number:    n.Number,
			ShortName: n.ShortName,
			LongName:  n.LongName,
			Role:      n.Role,
			Position:  n.Position,
			FirstSeen: n.FirstSeen,
			LastSeen:  n.LastSeen,
			Kind:      mesh.KindPhysical,
			Virtual:   n.Virtual,
		}
	}
}

// addEdges turns raw edges into link records, deduplicating by ordered pair
// (most recent observation wins). It returns the set of node IDs that
// reported an in-window self-directed edge.
func (b *builder) addEdges(raw []EdgeInfo) map[string]bool {
	selfEdge := make(map[string]bool)

	for _, e := range raw {
		if e.From == "" || e.To == "" || !b.inLinkWindow(e.LastSeen) {
			continue
		}
		if e.From == e.To {
			selfEdge[e.From] = true
			continue
		}
		if e.Type == EdgeMQTT {
			b.addBridgeEdge(e)
			continue
		}

		link := mesh.LinkRecord{
			From:     e.From,
			To:       e.To,
			RSSI:     e.RSSI,
			SNR:      e.SNR,
			Hops:     e.Hops,
			LastSeen: e.LastSeen,
			Class:    mesh.ClassDirect,
		}
		if e.Hops == 0 && e.RSSI == 0 && e.SNR == 0 {
			if b.opts.ZeroSignal == ZeroSignalSuppress {
				continue
			}
			link.NoSignalData = true
		}
		b.keepNewest(link)
	}

	return selfEdge
}

// addBridgeEdge routes an MQTT-relayed edge through the synthetic bridge
// node: A→B over MQTT becomes A→bridge and bridge→B.
func (b *builder) addBridgeEdge(e EdgeInfo) {
	if !b.opts.IncludeBridge {
		return
	}
	b.ensureBridgeNode(e.LastSeen)

	up := mesh.LinkRecord{
		From:     e.From,
		To:       BridgeNodeID,
		RSSI:     e.RSSI,
		SNR:      e.SNR,
		LastSeen: e.LastSeen,
		Class:    mesh.ClassBridge,
	}
	down := mesh.LinkRecord{
		From:     BridgeNodeID,
		To:       e.To,
		LastSeen: e.LastSeen,
		Class:    mesh.ClassBridge,
	}
	b.keepNewest(up)
	b.keepNewest(down)
}

func (b *builder) ensureBridgeNode(seen time.Time) {
	rec, ok := b.nodes[BridgeNodeID]
	if !ok {
		rec = mesh.NodeRecord{
			ID:        BridgeNodeID,
			LongName:  "MQTT Bridge",
			ShortName: "MQTT",
			FirstSeen: seen,
			LastSeen:  seen,
			Kind:      mesh.KindMqttBridge,
		}
	}
	if seen.After(rec.LastSeen) {
		rec.LastSeen = seen
	}
	if rec.FirstSeen.IsZero() || seen.Before(rec.FirstSeen) {
		rec.FirstSeen = seen
	}
	b.nodes[BridgeNodeID] = rec
}

// keepNewest stores the link unless a more recent observation for the same
// ordered pair is already present.
func (b *builder) keepNewest(link mesh.LinkRecord) {
	key := link.Key()
	if prev, ok := b.links[key]; ok && prev.LastSeen.After(link.LastSeen) {
		return
	}
	b.links[key] = link
}

// addInterfaces builds interface placeholder nodes. A placeholder appears
// only when a node reported a self-directed edge within the link window and
// an interface is serial-bound to that node; the self-edge is the only
// observable signal of interface attachment in the provider feed.
func (b *builder) addInterfaces(ifaces []InterfaceInfo, selfEdge map[string]bool) {
	for _, iface := range ifaces {
		nodeID := iface.SerialBoundNodeID
		if nodeID == "" || !selfEdge[nodeID] {
			continue
		}
		if _, ok := b.nodes[nodeID]; !ok {
			continue
		}

		phID := interfaceNodeID(iface.ID)
		name := iface.DisplayName
		if name == "" {
			name = iface.Name
		}
		node := b.nodes[nodeID]
		b.nodes[phID] = mesh.NodeRecord{
			ID:        phID,
			LongName:  name,
			FirstSeen: node.FirstSeen,
			LastSeen:  node.LastSeen,
			Kind:      mesh.KindInterfaceBridge,
		}

		// Attachment is modeled both ways so path queries pass through.
		b.keepNewest(mesh.LinkRecord{
			From: nodeID, To: phID, LastSeen: node.LastSeen, Class: mesh.ClassBridge,
		})
		b.keepNewest(mesh.LinkRecord{
			From: phID, To: nodeID, LastSeen: node.LastSeen, Class: mesh.ClassBridge,
		})
	}
}

func interfaceNodeID(id string) string { return "~iface:" + id }

// filterDanglingLinks removes links whose endpoints did not survive the
// node activity window.
func (b *builder) filterDanglingLinks() {
	for key := range b.links {
		if _, ok := b.nodes[key.From]; !ok {
			delete(b.links, key)
			continue
		}
		if _, ok := b.nodes[key.To]; !ok {
			delete(b.links, key)
		}
	}
}

// dropUnidirectional removes non-bridge links whose reverse direction was
// not observed.
func (b *builder) dropUnidirectional() {
	for key, link := range b.links {
		if link.Class == mesh.ClassBridge {
			continue
		}
		if rev, ok := b.links[key.Reverse()]; !ok || rev.Class == mesh.ClassBridge {
			delete(b.links, key)
		}
	}
}

// synthesizeReverses emits an assumed reverse link for every observed
// direct pair missing one, registering its key in the virtual edge set.
func (b *builder) synthesizeReverses() {
	keys := make([]mesh.LinkKey, 0, len(b.links))
	for key := range b.links {
		keys = append(keys, key)
	}

	for _, key := range keys {
		fwd := b.links[key]
		if fwd.Class != mesh.ClassDirect {
			continue
		}
		rev := key.Reverse()
		if _, ok := b.links[rev]; ok {
			continue
		}
		b.links[rev] = mesh.LinkRecord{
			From:         rev.From,
			To:           rev.To,
			RSSI:         fwd.RSSI, // Approximation: radio links are not symmetric
			SNR:          fwd.SNR,
			Hops:         fwd.Hops,
			LastSeen:     fwd.LastSeen,
			Class:        mesh.ClassVirtual,
			NoSignalData: fwd.NoSignalData,
		}
		b.virtual.Add(rev)
	}
}

// expandMultiHop reclassifies each hops>0 link as a direct-multi-hop overlay
// between its true endpoints and routes the visual path through hidden
// intermediates connected by segment links. The overlay reuses the reported
// link's ordered-pair key, so key uniqueness is preserved.
func (b *builder) expandMultiHop() {
	keys := make([]mesh.LinkKey, 0, len(b.links))
	for key := range b.links {
		keys = append(keys, key)
	}

	for _, key := range keys {
		link := b.links[key]
		// Assumed (virtual) links are never expanded: they must stay
		// flagged virtual, and their route was never observed anyway.
		if link.Hops <= 0 || link.Class != mesh.ClassDirect {
			continue
		}

		link.Class = mesh.ClassDirectMultiHop
		b.links[key] = link

		prev := key.From
		for i := 1; i <= link.Hops; i++ {
			hid := hiddenNodeID(key, i)
			b.nodes[hid] = mesh.NodeRecord{
				ID:       hid,
				LastSeen: link.LastSeen,
				Kind:     mesh.KindRouteHidden,
			}

			seg := mesh.LinkRecord{
				From:         prev,
				To:           hid,
				LastSeen:     link.LastSeen,
				Class:        mesh.ClassMultiHopSegment,
				OriginalHops: link.Hops,
			}
			b.links[seg.Key()] = seg
			prev = hid
		}

		last := mesh.LinkRecord{
			From:         prev,
			To:           key.To,
			RSSI:         link.RSSI, // The measured receive happens on the final hop
			SNR:          link.SNR,
			LastSeen:     link.LastSeen,
			Class:        mesh.ClassMultiHopSegment,
			OriginalHops: link.Hops,
			IsLastHop:    true,
		}
		b.links[last.Key()] = last
	}
}

func hiddenNodeID(key mesh.LinkKey, i int) string {
	return fmt.Sprintf("~mh:%s>%s:%d", key.From, key.To, i)
}

func (b *builder) snapshot() mesh.Snapshot {
	snap := mesh.Snapshot{
		Nodes:   make([]mesh.NodeRecord, 0, len(b.nodes)),
		Links:   make([]mesh.LinkRecord, 0, len(b.links)),
		Virtual: b.virtual,
		Taken:   b.now,
	}
	for _, n := range b.nodes {
		snap.Nodes = append(snap.Nodes, n)
	}
	for _, l := range b.links {
		snap.Links = append(snap.Links, l)
	}

	slices.SortFunc(snap.Nodes, func(a, b mesh.NodeRecord) int {
		return strings.Compare(a.ID, b.ID)
	})
	slices.SortFunc(snap.Links, func(a, b mesh.LinkRecord) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		return strings.Compare(a.To, b.To)
	})
	return snap
}
