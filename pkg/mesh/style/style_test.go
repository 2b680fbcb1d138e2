package style

import (
	"strings"
	"testing"
	"time"

	"github.com/meshview/meshview/pkg/mesh"
	"github.com/meshview/meshview/pkg/mesh/reconcile"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

// testBuffer loads a small topology: A→B→C with both directions for A/B,
// an MQTT bridge hanging off C, and a virtual reverse link C→B is absent.
func testBuffer(t *testing.T) *reconcile.Buffer {
	t.Helper()
	snap := mesh.Snapshot{
		Nodes: []mesh.NodeRecord{
			{ID: "A", LastSeen: testNow.Add(-10 * time.Minute)},
			{ID: "B", LastSeen: testNow.Add(-10 * time.Minute)},
			{ID: "C", LastSeen: testNow.Add(-10 * time.Minute)},
			{ID: "~mqtt", Kind: mesh.KindMqttBridge, LastSeen: testNow},
		},
		Links: []mesh.LinkRecord{
			{From: "A", To: "B", RSSI: -70, SNR: 8, LastSeen: testNow},
			{From: "B", To: "A", RSSI: -74, SNR: 6, LastSeen: testNow},
			{From: "B", To: "C", RSSI: -90, SNR: 2, LastSeen: testNow},
			{From: "C", To: "~mqtt", LastSeen: testNow, Class: mesh.ClassBridge},
			{From: "~mqtt", To: "A", LastSeen: testNow, Class: mesh.ClassBridge},
		},
		Virtual: make(mesh.VirtualEdgeSet),
		Taken:   testNow,
	}
	b := reconcile.New()
	b.Apply(snap)
	return b
}

func TestModeNone_IntrinsicColors(t *testing.T) {
	e := New(testBuffer(t), mesh.SelectionState{}, 3, testNow)

	if got := e.NodeColor("A"); got != colorActive {
		t.Errorf("NodeColor(A) = %s, want intrinsic active color %s", got, colorActive)
	}
	if got := e.NodeColor("~mqtt"); got != ColorBridge {
		t.Errorf("NodeColor(~mqtt) = %s, want fixed bridge color %s", got, ColorBridge)
	}
}

func TestModeNone_ActivityFade(t *testing.T) {
	snap := mesh.Snapshot{
		Nodes: []mesh.NodeRecord{
			{ID: "fresh", LastSeen: testNow.Add(-5 * time.Minute)},
			{ID: "today", LastSeen: testNow.Add(-5 * time.Hour)},
			{ID: "old", LastSeen: testNow.Add(-3 * 24 * time.Hour)},
			{ID: "router", Role: "ROUTER", LastSeen: testNow.Add(-5 * time.Minute)},
			{ID: "virt", Virtual: true, LastSeen: testNow},
		},
		Virtual: make(mesh.VirtualEdgeSet),
	}
	b := reconcile.New()
	b.Apply(snap)
	e := New(b, mesh.SelectionState{}, 3, testNow)

	tests := []struct {
		id   string
		want string
	}{
		{"fresh", colorActive},
		{"today", colorRecent},
		{"old", colorStale},
		{"router", colorRouter},
		{"virt", colorVirtual},
	}
	for _, tt := range tests {
		if got := e.NodeColor(tt.id); got != tt.want {
			t.Errorf("NodeColor(%s) = %s, want %s", tt.id, got, tt.want)
		}
	}
}

func TestModeOne_HighlightAndDim(t *testing.T) {
	b := testBuffer(t)
	e := New(b, mesh.SelectionState{First: "B"}, 3, testNow)

	if got := e.NodeColor("B"); got != ColorSelected {
		t.Errorf("selected NodeColor = %s, want %s", got, ColorSelected)
	}
	// C is directly reachable from B - intrinsic styling retained.
	if got := e.NodeColor("C"); got == ColorDim {
		t.Error("reachable node must not dim")
	}
	// The bridge is reachable from B via C, so it keeps styling here; but a
	// node with no inbound route from B dims, with no bridge exception.
	eA := New(b, mesh.SelectionState{First: "C"}, 0, testNow)
	if got := eA.NodeColor("B"); got != ColorDim {
		t.Errorf("unreachable node = %s, want dim %s", got, ColorDim)
	}

	// Link emphasis follows traversal. At a zero hop budget only B's own
	// outgoing links are crossed; A→B stays outside the expansion.
	e0 := New(b, mesh.SelectionState{First: "B"}, 0, testNow)
	if w := e0.LinkWidth(mesh.LinkKey{From: "B", To: "C"}); w != widthBoost {
		t.Errorf("traversed link width = %v, want boost %v", w, widthBoost)
	}
	if w := e0.LinkWidth(mesh.LinkKey{From: "A", To: "B"}); w != widthDimmed {
		t.Errorf("off-reach link width = %v, want dimmed %v", w, widthDimmed)
	}
}

func TestModeOne_BridgeDimsWithoutException(t *testing.T) {
	snap := mesh.Snapshot{
		Nodes: []mesh.NodeRecord{
			{ID: "A", LastSeen: testNow},
			{ID: "B", LastSeen: testNow},
			{ID: "~mqtt", Kind: mesh.KindMqttBridge, LastSeen: testNow},
		},
		Links: []mesh.LinkRecord{
			{From: "A", To: "B", RSSI: -70, LastSeen: testNow},
		},
		Virtual: make(mesh.VirtualEdgeSet),
	}
	b := reconcile.New()
	b.Apply(snap)
	e := New(b, mesh.SelectionState{First: "A"}, 3, testNow)

	if got := e.NodeColor("~mqtt"); got != ColorDim {
		t.Errorf("unreachable bridge = %s, want dim %s (no bridge exception in ONE mode)", got, ColorDim)
	}
}

func TestModeTwo_PathHighlight(t *testing.T) {
	// A→B, B→C, no C→B; plus an off-path node D.
	snap := mesh.Snapshot{
		Nodes: []mesh.NodeRecord{
			{ID: "A", LastSeen: testNow},
			{ID: "B", LastSeen: testNow},
			{ID: "C", LastSeen: testNow},
			{ID: "D", LastSeen: testNow},
		},
		Links: []mesh.LinkRecord{
			{From: "A", To: "B", RSSI: -70, LastSeen: testNow},
			{From: "B", To: "C", RSSI: -80, LastSeen: testNow},
			{From: "A", To: "D", RSSI: -60, LastSeen: testNow},
		},
		Virtual: make(mesh.VirtualEdgeSet),
	}
	b := reconcile.New()
	b.Apply(snap)
	e := New(b, mesh.SelectionState{First: "A", Second: "C"}, 2, testNow)

	paths := e.Paths()
	if len(paths) != 1 || len(paths[0]) != 3 {
		t.Fatalf("paths = %v, want exactly [A B C]", paths)
	}

	if got := e.NodeColor("A"); got != ColorSelected {
		t.Errorf("first selection = %s, want %s", got, ColorSelected)
	}
	if got := e.NodeColor("C"); got != ColorSelectedAlt {
		t.Errorf("second selection = %s, want %s", got, ColorSelectedAlt)
	}
	if got := e.NodeColor("B"); got == ColorDim {
		t.Error("on-path node must keep intrinsic styling")
	}
	// Off-path: always the fixed dim constant, never the intrinsic color.
	if got := e.NodeColor("D"); got != ColorDim {
		t.Errorf("off-path node = %s, want the fixed dim constant %s", got, ColorDim)
	}

	if w := e.LinkWidth(mesh.LinkKey{From: "B", To: "C"}); w != widthBoost {
		t.Errorf("on-path link width = %v, want %v", w, widthBoost)
	}
	if w := e.LinkWidth(mesh.LinkKey{From: "A", To: "D"}); w != widthDimmed {
		t.Errorf("off-path link width = %v, want %v", w, widthDimmed)
	}
}

func TestModeTwo_SourceTargetOrderRespected(t *testing.T) {
	b := testBuffer(t)
	// B→C exists but C→B does not: selecting C then B finds no path.
	e := New(b, mesh.SelectionState{First: "C", Second: "B"}, 3, testNow)

	// C can reach B only through the bridge chain C→~mqtt→A→B.
	for _, p := range e.Paths() {
		for i := 0; i+1 < len(p); i++ {
			if p[i] == "C" && p[i+1] == "B" {
				t.Errorf("path %v uses nonexistent link C→B", p)
			}
		}
	}
}

func TestLinkDash_Classification(t *testing.T) {
	snap := mesh.Snapshot{
		Nodes: []mesh.NodeRecord{
			{ID: "A", LastSeen: testNow}, {ID: "B", LastSeen: testNow},
			{ID: "C", LastSeen: testNow}, {ID: "~mqtt", Kind: mesh.KindMqttBridge, LastSeen: testNow},
		},
		Links: []mesh.LinkRecord{
			{From: "A", To: "B", RSSI: -70, LastSeen: testNow},
			{From: "B", To: "A", RSSI: -70, LastSeen: testNow, Class: mesh.ClassVirtual},
			{From: "B", To: "C", Hops: 2, LastSeen: testNow, Class: mesh.ClassDirectMultiHop},
			{From: "C", To: "~mqtt", LastSeen: testNow, Class: mesh.ClassBridge},
		},
		Virtual: make(mesh.VirtualEdgeSet),
	}
	snap.Virtual.Add(mesh.LinkKey{From: "B", To: "A"})
	b := reconcile.New()
	b.Apply(snap)
	e := New(b, mesh.SelectionState{}, 3, testNow)

	tests := []struct {
		from, to string
		want     string
	}{
		{"A", "B", DashSolid},
		{"B", "A", DashAssumed},
		{"B", "C", DashMultiHop},
		{"C", "~mqtt", DashBridge},
	}
	for _, tt := range tests {
		k := mesh.LinkKey{From: tt.from, To: tt.to}
		if got := e.LinkDash(k); got != tt.want {
			t.Errorf("LinkDash(%v) = %q, want %q", k, got, tt.want)
		}
	}

	// Dash patterns are mode-independent: the bridge dot survives selection.
	e2 := New(b, mesh.SelectionState{First: "A"}, 3, testNow)
	if got := e2.LinkDash(mesh.LinkKey{From: "C", To: "~mqtt"}); got != DashBridge {
		t.Errorf("bridge dash in ONE mode = %q, want %q", got, DashBridge)
	}
}

func TestLinkCurve_BidirectionalPairsOnly(t *testing.T) {
	b := testBuffer(t)
	e := New(b, mesh.SelectionState{}, 3, testNow)

	if got := e.LinkCurve(mesh.LinkKey{From: "A", To: "B"}); got == 0 {
		t.Error("bidirectional pair must get a curvature offset")
	}
	if got := e.LinkCurve(mesh.LinkKey{From: "B", To: "C"}); got != 0 {
		t.Errorf("one-way link curve = %v, want 0", got)
	}
	// Bridge links never curve even when both directions exist.
	snap := mesh.Snapshot{
		Nodes: []mesh.NodeRecord{
			{ID: "A", LastSeen: testNow},
			{ID: "~mqtt", Kind: mesh.KindMqttBridge, LastSeen: testNow},
		},
		Links: []mesh.LinkRecord{
			{From: "A", To: "~mqtt", LastSeen: testNow, Class: mesh.ClassBridge},
			{From: "~mqtt", To: "A", LastSeen: testNow, Class: mesh.ClassBridge},
		},
		Virtual: make(mesh.VirtualEdgeSet),
	}
	bb := reconcile.New()
	bb.Apply(snap)
	eb := New(bb, mesh.SelectionState{}, 3, testNow)
	if got := eb.LinkCurve(mesh.LinkKey{From: "A", To: "~mqtt"}); got != 0 {
		t.Errorf("bridge link curve = %v, want 0", got)
	}
}

func TestLinkLabel(t *testing.T) {
	snap := mesh.Snapshot{
		Nodes: []mesh.NodeRecord{
			{ID: "A", LastSeen: testNow}, {ID: "B", LastSeen: testNow},
			{ID: "C", LastSeen: testNow}, {ID: "V", Virtual: true, LastSeen: testNow},
			{ID: "~mqtt", Kind: mesh.KindMqttBridge, LastSeen: testNow},
		},
		Links: []mesh.LinkRecord{
			{From: "A", To: "B", RSSI: -88, SNR: 4.5, LastSeen: testNow},
			{From: "B", To: "A", RSSI: -88, SNR: 4.5, LastSeen: testNow, Class: mesh.ClassVirtual},
			{From: "B", To: "C", Hops: 3, LastSeen: testNow, Class: mesh.ClassDirectMultiHop},
			{From: "A", To: "C", LastSeen: testNow, NoSignalData: true},
			{From: "A", To: "V", RSSI: -40, SNR: 10, LastSeen: testNow},
			{From: "C", To: "~mqtt", LastSeen: testNow, Class: mesh.ClassBridge},
		},
		Virtual: make(mesh.VirtualEdgeSet),
	}
	snap.Virtual.Add(mesh.LinkKey{From: "B", To: "A"})
	b := reconcile.New()
	b.Apply(snap)
	e := New(b, mesh.SelectionState{}, 3, testNow)

	tests := []struct {
		name     string
		from, to string
		want     string
	}{
		{"Direct", "A", "B", "direct -88dBm 4.5dB"},
		{"Assumed", "B", "A", "[ASSUMED] direct -88dBm 4.5dB"},
		{"MultiHop", "B", "C", "multi-hop 3 hops"},
		{"NoData", "A", "C", "direct no data"},
		{"Logical", "A", "V", "logical -40dBm 10.0dB"},
		{"Bridge", "C", "~mqtt", "bridge"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := mesh.LinkKey{From: tt.from, To: tt.to}
			if got := e.LinkLabel(k); got != tt.want {
				t.Errorf("LinkLabel(%v) = %q, want %q", k, got, tt.want)
			}
		})
	}
}

func TestLinkLabel_AssumedPrefixAlwaysFirst(t *testing.T) {
	snap := mesh.Snapshot{
		Nodes: []mesh.NodeRecord{{ID: "A", LastSeen: testNow}, {ID: "B", LastSeen: testNow}},
		Links: []mesh.LinkRecord{
			{From: "B", To: "A", RSSI: -60, SNR: 2, LastSeen: testNow, Class: mesh.ClassVirtual},
		},
		Virtual: make(mesh.VirtualEdgeSet),
	}
	snap.Virtual.Add(mesh.LinkKey{From: "B", To: "A"})
	b := reconcile.New()
	b.Apply(snap)

	for _, sel := range []mesh.SelectionState{{}, {First: "B"}, {First: "B", Second: "A"}} {
		e := New(b, sel, 3, testNow)
		label := e.LinkLabel(mesh.LinkKey{From: "B", To: "A"})
		if !strings.HasPrefix(label, AssumedPrefix) {
			t.Errorf("mode %v: label %q lacks the %s prefix", sel.Mode(), label, AssumedPrefix)
		}
	}
}

func TestUnknownEntitiesFallBackToDim(t *testing.T) {
	e := New(testBuffer(t), mesh.SelectionState{}, 3, testNow)

	if got := e.NodeColor("missing"); got != ColorDim {
		t.Errorf("NodeColor(missing) = %s, want %s", got, ColorDim)
	}
	if got := e.LinkColor(mesh.LinkKey{From: "x", To: "y"}); got != ColorDim {
		t.Errorf("LinkColor(missing) = %s, want %s", got, ColorDim)
	}
	if got := e.LinkLabel(mesh.LinkKey{From: "x", To: "y"}); got != "" {
		t.Errorf("LinkLabel(missing) = %q, want empty", got)
	}
}
