package mesh

import (
	"testing"
)

func TestNodeKind_Transparent(t *testing.T) {
	tests := []struct {
		kind NodeKind
		want bool
	}{
		{KindPhysical, false},
		{KindMqttBridge, true},
		{KindInterfaceBridge, true},
		{KindRouteHidden, false},
	}

	for _, tt := range tests {
		if got := tt.kind.Transparent(); got != tt.want {
			t.Errorf("%v.Transparent() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestLinkKey_Reverse(t *testing.T) {
	k := LinkKey{From: "a", To: "b"}
	r := k.Reverse()

	if r.From != "b" || r.To != "a" {
		t.Errorf("Reverse() = %v, want b→a", r)
	}
	if r.Reverse() != k {
		t.Error("double Reverse() should round-trip")
	}
}

func TestPath_Links(t *testing.T) {
	tests := []struct {
		name string
		path Path
		want []LinkKey
	}{
		{"Empty", Path{}, nil},
		{"Single", Path{"a"}, nil},
		{"Pair", Path{"a", "b"}, []LinkKey{{From: "a", To: "b"}}},
		{"Chain", Path{"a", "b", "c"}, []LinkKey{{From: "a", To: "b"}, {From: "b", To: "c"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.path.Links()
			if len(got) != len(tt.want) {
				t.Fatalf("Links() returned %d keys, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Links()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSelectionState_Mode(t *testing.T) {
	tests := []struct {
		name string
		sel  SelectionState
		want Mode
	}{
		{"None", SelectionState{}, ModeNone},
		{"One", SelectionState{First: "a"}, ModeOne},
		{"Two", SelectionState{First: "a", Second: "b"}, ModeTwo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sel.Mode(); got != tt.want {
				t.Errorf("Mode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectionState_Toggle(t *testing.T) {
	var s SelectionState

	s = s.Toggle("a")
	if s.First != "a" || s.Second != "" {
		t.Fatalf("after first toggle: %+v", s)
	}

	s = s.Toggle("b")
	if s.First != "a" || s.Second != "b" {
		t.Fatalf("after second toggle: %+v", s)
	}

	// Deselecting the first promotes the second.
	s = s.Toggle("a")
	if s.First != "b" || s.Second != "" {
		t.Fatalf("after deselecting first: %+v", s)
	}

	s = s.Toggle("b")
	if s.Mode() != ModeNone {
		t.Fatalf("after deselecting all: %+v", s)
	}
}

func TestSelectionState_ToggleEmptyID(t *testing.T) {
	s := SelectionState{First: "a"}
	if got := s.Toggle(""); got != s {
		t.Errorf("Toggle(\"\") = %+v, want unchanged", got)
	}
}

func TestNodeRecord_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		node NodeRecord
		want string
	}{
		{"LongName", NodeRecord{ID: "!1", ShortName: "AB12", LongName: "Base Camp"}, "Base Camp"},
		{"ShortName", NodeRecord{ID: "!1", ShortName: "AB12"}, "AB12"},
		{"IDOnly", NodeRecord{ID: "!1"}, "!1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLinkRecord_HasSignal(t *testing.T) {
	tests := []struct {
		name string
		link LinkRecord
		want bool
	}{
		{"RSSI", LinkRecord{RSSI: -80}, true},
		{"SNR", LinkRecord{SNR: 5.5}, true},
		{"ZeroNoData", LinkRecord{NoSignalData: true}, false},
		{"ZeroValues", LinkRecord{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.link.HasSignal(); got != tt.want {
				t.Errorf("HasSignal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVirtualEdgeSet(t *testing.T) {
	s := make(VirtualEdgeSet)
	k := LinkKey{From: "b", To: "a"}

	if s.Contains(k) {
		t.Error("empty set should not contain key")
	}
	s.Add(k)
	if !s.Contains(k) {
		t.Error("set should contain added key")
	}
	if s.Contains(k.Reverse()) {
		t.Error("set must distinguish directions")
	}

	c := s.Clone()
	c.Add(k.Reverse())
	if s.Contains(k.Reverse()) {
		t.Error("Clone() must not share storage")
	}
}
