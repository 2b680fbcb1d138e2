// Package style derives per-node and per-link visual attributes from the
// topology buffer, the current selection, and path-query results.
//
// The derivation is deterministic and keyed on the selection mode:
//
//   - NONE: every entity keeps its intrinsic activity/role-derived color;
//     the MQTT bridge gets one fixed distinguishing color.
//   - ONE: the selected node gets a fixed highlight color; entities in its
//     reachable set keep boosted intrinsic styling; everything else -
//     including the bridge, with no exception - dims to a fixed constant.
//   - TWO: the first and second selections get distinct highlight colors;
//     entities on at least one valid directed path between them keep
//     boosted styling; everything else dims uniformly.
//
// Orthogonal to the mode: pairs observed in both directions get a curvature
// offset so opposing links don't overlap, assumed links get a long dash and
// an "[ASSUMED]" label prefix, multi-hop overlays and segments a shorter
// dash, and bridge links a fixed short-dot pattern.
//
// An Engine is a pure snapshot of these decisions: it holds no mutable
// state and is safe to rebuild on every selection change.
package style

import (
	"fmt"
	"strings"
	"time"

	"github.com/meshview/meshview/pkg/mesh"
	"github.com/meshview/meshview/pkg/mesh/path"
	"github.com/meshview/meshview/pkg/mesh/reconcile"
)

// Fixed colors. Highlights and the dim constant are deliberately constant
// across refreshes so selection changes never depend on graph content.
const (
	ColorSelected    = "#e8590c" // ONE-mode selection and TWO-mode first node
	ColorSelectedAlt = "#6741d9" // TWO-mode second node
	ColorBridge      = "#0c8599" // MQTT bridge in NONE mode
	ColorDim         = "#495057" // Low-emphasis constant for everything off-path
	ColorHidden      = "#343a40" // Hidden multi-hop routing intermediates

	colorActive  = "#2f9e44" // Heard within the last hour
	colorRecent  = "#f08c00" // Heard within the last day
	colorStale   = "#868e96" // Older than a day
	colorRouter  = "#1971c2" // Router-role override while active
	colorVirtual = "#9c36b5" // Virtual identity nodes
)

// Dash patterns (SVG stroke-dasharray syntax). Empty means solid.
const (
	DashSolid    = ""
	DashAssumed  = "14,8" // Long dash: synthesized, not measured
	DashMultiHop = "6,4"  // Shorter dash: overlay and segment links
	DashBridge   = "2,3"  // Short dots: broker/interface infrastructure
)

// Link widths.
const (
	widthBase   = 1.5
	widthBoost  = 3.0
	widthDimmed = 0.75
)

// AssumedPrefix is prepended to the label of every virtual link.
const AssumedPrefix = "[ASSUMED]"

// curveOffset separates opposing links of a bidirectional pair.
const curveOffset = 0.25

// Engine derives visual attributes for the buffer's current contents under
// one fixed selection. Build a new Engine whenever the selection or the
// buffer generation changes.
type Engine struct {
	buffer *reconcile.Buffer
	sel    mesh.SelectionState
	now    time.Time

	reach       path.Reachable // ONE mode
	paths       []mesh.Path    // TWO mode
	onPathNode  map[string]bool
	onPathLink  map[mesh.LinkKey]bool
	transparent path.TransparentSet
}

// New builds the style engine for the buffer and selection, running the
// required path queries. maxHops bounds the TWO-mode path search and the
// ONE-mode reachability expansion.
func New(buffer *reconcile.Buffer, sel mesh.SelectionState, maxHops int, now time.Time) *Engine {
	e := &Engine{
		buffer:      buffer,
		sel:         sel,
		now:         now,
		onPathNode:  make(map[string]bool),
		onPathLink:  make(map[mesh.LinkKey]bool),
		transparent: path.Transparents(buffer.Nodes()),
	}

	switch sel.Mode() {
	case mesh.ModeOne:
		e.reach = path.ReachableFrom(sel.First, buffer.Links(), maxHops, e.transparent)
	case mesh.ModeTwo:
		e.paths = path.FindPaths(sel.First, sel.Second, buffer.Links(), maxHops, e.transparent)
		for _, p := range e.paths {
			for _, id := range p {
				e.onPathNode[id] = true
			}
			for _, k := range p.Links() {
				e.onPathLink[k] = true
			}
		}
	}
	return e
}

// Paths returns the TWO-mode path set, nil in other modes.
func (e *Engine) Paths() []mesh.Path { return e.paths }

// Reachable returns the ONE-mode reachability result, zero in other modes.
func (e *Engine) Reachable() path.Reachable { return e.reach }

// NodeColor returns the render color for the node.
func (e *Engine) NodeColor(id string) string {
	n := e.buffer.Node(id)
	if n == nil {
		return ColorDim
	}

	switch e.sel.Mode() {
	case mesh.ModeOne:
		if id == e.sel.First {
			return ColorSelected
		}
		if e.reach.Contains(id) {
			return e.intrinsicNodeColor(n)
		}
		return ColorDim
	case mesh.ModeTwo:
		if id == e.sel.First {
			return ColorSelected
		}
		if id == e.sel.Second {
			return ColorSelectedAlt
		}
		if e.onPathNode[id] {
			return e.intrinsicNodeColor(n)
		}
		return ColorDim
	}

	if n.Kind == mesh.KindMqttBridge {
		return ColorBridge
	}
	return e.intrinsicNodeColor(n)
}

// intrinsicNodeColor is the activity/role-derived color used outside
// highlight and dim decisions.
func (e *Engine) intrinsicNodeColor(n *mesh.NodeRecord) string {
	switch n.Kind {
	case mesh.KindRouteHidden:
		return ColorHidden
	case mesh.KindMqttBridge, mesh.KindInterfaceBridge:
		return ColorBridge
	}
	if n.Virtual {
		return colorVirtual
	}

	age := e.now.Sub(n.LastSeen)
	switch {
	case age <= time.Hour:
		if strings.HasPrefix(n.Role, "ROUTER") {
			return colorRouter
		}
		return colorActive
	case age <= 24*time.Hour:
		return colorRecent
	default:
		return colorStale
	}
}

// linkEmphasis classifies a link as highlighted, neutral, or dimmed under
// the current mode.
type linkEmphasis int

const (
	emphasisNeutral linkEmphasis = iota
	emphasisBoost
	emphasisDim
)

func (e *Engine) emphasis(k mesh.LinkKey) linkEmphasis {
	switch e.sel.Mode() {
	case mesh.ModeOne:
		if e.reach.HasLink(k) {
			return emphasisBoost
		}
		return emphasisDim
	case mesh.ModeTwo:
		if e.onPathLink[k] {
			return emphasisBoost
		}
		return emphasisDim
	}
	return emphasisNeutral
}

// LinkColor returns the render color for the directed link.
func (e *Engine) LinkColor(k mesh.LinkKey) string {
	l := e.buffer.Link(k)
	if l == nil {
		return ColorDim
	}

	switch e.emphasis(k) {
	case emphasisDim:
		return ColorDim
	case emphasisBoost:
		return e.intrinsicLinkColor(l)
	}

	if l.Class == mesh.ClassBridge {
		return ColorBridge
	}
	return e.intrinsicLinkColor(l)
}

func (e *Engine) intrinsicLinkColor(l *mesh.LinkRecord) string {
	switch l.Class {
	case mesh.ClassBridge:
		return ColorBridge
	case mesh.ClassVirtual:
		return colorVirtual
	case mesh.ClassMultiHopSegment, mesh.ClassDirectMultiHop:
		return colorRecent
	}
	if l.NoSignalData {
		return colorStale
	}
	return colorActive
}

// LinkWidth returns the stroke width for the directed link.
func (e *Engine) LinkWidth(k mesh.LinkKey) float64 {
	switch e.emphasis(k) {
	case emphasisBoost:
		return widthBoost
	case emphasisDim:
		return widthDimmed
	}
	return widthBase
}

// LinkDash returns the dash pattern for the directed link. The pattern is
// classification-driven and identical in every selection mode.
func (e *Engine) LinkDash(k mesh.LinkKey) string {
	l := e.buffer.Link(k)
	if l == nil {
		return DashSolid
	}
	switch l.Class {
	case mesh.ClassVirtual:
		return DashAssumed
	case mesh.ClassMultiHopSegment, mesh.ClassDirectMultiHop:
		return DashMultiHop
	case mesh.ClassBridge:
		return DashBridge
	}
	return DashSolid
}

// LinkCurve returns the curvature offset for the directed link. Pairs
// observed in both directions are offset so the opposing strokes don't
// overlap; bridge links are infrastructure and stay straight.
func (e *Engine) LinkCurve(k mesh.LinkKey) float64 {
	l := e.buffer.Link(k)
	if l == nil || l.Class == mesh.ClassBridge {
		return 0
	}
	if e.buffer.BothDirections(k) {
		return curveOffset
	}
	return 0
}

// LinkLabel returns the label text for the directed link. The label encodes
// the classification (bridge / logical / multi-hop / direct), the signal
// metrics when known, the hop count, and the assumed qualifier for virtual
// links.
func (e *Engine) LinkLabel(k mesh.LinkKey) string {
	l := e.buffer.Link(k)
	if l == nil {
		return ""
	}

	var parts []string
	if l.Class == mesh.ClassVirtual {
		parts = append(parts, AssumedPrefix)
	}
	parts = append(parts, e.classification(l))

	if l.NoSignalData {
		parts = append(parts, "no data")
	} else if l.HasSignal() {
		parts = append(parts, fmt.Sprintf("%ddBm", l.RSSI), fmt.Sprintf("%.1fdB", l.SNR))
	}

	if hops := labelHops(l); hops > 0 {
		parts = append(parts, fmt.Sprintf("%d hops", hops))
	}

	return strings.Join(parts, " ")
}

// classification maps the link to its label word. Links between virtual
// identities are "logical" rather than physical radio links.
func (e *Engine) classification(l *mesh.LinkRecord) string {
	switch l.Class {
	case mesh.ClassBridge:
		return "bridge"
	case mesh.ClassMultiHopSegment, mesh.ClassDirectMultiHop:
		return "multi-hop"
	}
	if e.endpointVirtual(l.From) || e.endpointVirtual(l.To) {
		return "logical"
	}
	return "direct"
}

func (e *Engine) endpointVirtual(id string) bool {
	n := e.buffer.Node(id)
	return n != nil && n.Virtual
}

func labelHops(l *mesh.LinkRecord) int {
	if l.Class == mesh.ClassMultiHopSegment || l.Class == mesh.ClassDirectMultiHop {
		if l.OriginalHops > 0 {
			return l.OriginalHops
		}
	}
	return l.Hops
}
