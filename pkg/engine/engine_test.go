package engine

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/meshview/meshview/pkg/archive"
	"github.com/meshview/meshview/pkg/errors"
	"github.com/meshview/meshview/pkg/mesh"
	"github.com/meshview/meshview/pkg/mesh/model"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

// fakeProvider serves a fixed input, optionally failing or blocking.
type fakeProvider struct {
	input   model.Input
	err     error
	block   chan struct{} // when set, Fetch waits until closed
	fetches int
}

func (p *fakeProvider) Fetch(ctx context.Context) (model.Input, error) {
	p.fetches++
	if p.block != nil {
		<-p.block
	}
	if p.err != nil {
		return model.Input{}, p.err
	}
	return p.input, nil
}

func (p *fakeProvider) Source() string { return "fake://mesh" }

func testInput() model.Input {
	return model.Input{
		Nodes: []model.NodeInfo{
			{ID: "A", LastSeen: testNow},
			{ID: "B", LastSeen: testNow},
		},
		Edges: []model.EdgeInfo{
			{From: "A", To: "B", RSSI: -70, SNR: 5, LastSeen: testNow, Type: model.EdgeRadio},
		},
		Now: testNow,
	}
}

func TestRefresh_PopulatesBuffer(t *testing.T) {
	p := &fakeProvider{input: testInput()}
	e, err := New(Options{Provider: p, MaxHops: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := e.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if res.CycleID == "" {
		t.Error("cycle ID missing")
	}
	if res.Nodes != 2 || res.Links != 1 {
		t.Errorf("cycle saw %d nodes / %d links, want 2 / 1", res.Nodes, res.Links)
	}
	if res.Stats.NodesAdded != 2 || res.Stats.LinksAdded != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if e.Buffer().NodeCount() != 2 {
		t.Errorf("buffer holds %d nodes", e.Buffer().NodeCount())
	}
	if res.Generation != 1 {
		t.Errorf("generation = %d, want 1", res.Generation)
	}
	if e.Last().CycleID != res.CycleID {
		t.Error("Last() should report the completed cycle")
	}
}

func TestRefresh_FailedFetchLeavesBufferUntouched(t *testing.T) {
	p := &fakeProvider{input: testInput()}
	e, _ := New(Options{Provider: p})

	if _, err := e.Refresh(context.Background()); err != nil {
		t.Fatalf("seed refresh: %v", err)
	}
	gen := e.Buffer().Generation()

	p.err = errors.New(errors.ErrCodeFetchFailed, "backend down")
	_, err := e.Refresh(context.Background())
	if !errors.Is(err, errors.ErrCodeFetchFailed) {
		t.Fatalf("got %v, want FETCH_FAILED", err)
	}
	if e.Buffer().Generation() != gen {
		t.Error("failed fetch must not touch the buffer")
	}
	if e.Buffer().NodeCount() != 2 {
		t.Errorf("buffer lost nodes on failed fetch: %d", e.Buffer().NodeCount())
	}
}

func TestRefresh_InFlightGuard(t *testing.T) {
	p := &fakeProvider{input: testInput(), block: make(chan struct{})}
	e, _ := New(Options{Provider: p})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := e.Refresh(context.Background()); err != nil {
			t.Errorf("blocked refresh error: %v", err)
		}
	}()

	// Wait for the first refresh to enter the provider.
	for i := 0; p.fetches == 0 && i < 100; i++ {
		time.Sleep(time.Millisecond)
	}

	if _, err := e.Refresh(context.Background()); !stderrors.Is(err, ErrRefreshInFlight) {
		t.Errorf("got %v, want ErrRefreshInFlight", err)
	}

	close(p.block)
	<-done

	// Guard releases after the cycle.
	p.block = nil
	if _, err := e.Refresh(context.Background()); err != nil {
		t.Errorf("post-cycle refresh error: %v", err)
	}
}

func TestToggle_SelectionLifecycle(t *testing.T) {
	p := &fakeProvider{input: testInput()}
	e, _ := New(Options{Provider: p, MaxHops: 3})
	if _, err := e.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := e.Toggle("A"); err != nil {
		t.Fatalf("Toggle(A): %v", err)
	}
	if got := e.Selection().Mode(); got != mesh.ModeOne {
		t.Errorf("mode = %v, want ONE", got)
	}
	if err := e.Toggle("B"); err != nil {
		t.Fatalf("Toggle(B): %v", err)
	}
	if got := e.Selection().Mode(); got != mesh.ModeTwo {
		t.Errorf("mode = %v, want TWO", got)
	}
	if paths := e.Style().Paths(); len(paths) != 1 {
		t.Errorf("style engine found %d paths, want 1", len(paths))
	}

	e.ClearSelection()
	if got := e.Selection().Mode(); got != mesh.ModeNone {
		t.Errorf("mode after clear = %v, want NONE", got)
	}
}

func TestToggle_UnknownNode(t *testing.T) {
	p := &fakeProvider{input: testInput()}
	e, _ := New(Options{Provider: p})
	if _, err := e.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	err := e.Toggle("ghost")
	if !errors.Is(err, errors.ErrCodeInvalidSelection) {
		t.Fatalf("got %v, want INVALID_SELECTION", err)
	}
	if e.Selection().Mode() != mesh.ModeNone {
		t.Error("failed toggle must not change the selection")
	}
}

func TestSelection_SurvivesRefresh(t *testing.T) {
	p := &fakeProvider{input: testInput()}
	e, _ := New(Options{Provider: p, MaxHops: 3})
	if _, err := e.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := e.Toggle("A"); err != nil {
		t.Fatal(err)
	}

	if _, err := e.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sel := e.Selection(); sel.First != "A" {
		t.Errorf("selection lost across refresh: %+v", sel)
	}
}

func TestRefresh_ArchivesCycle(t *testing.T) {
	store := archive.NewMemoryStore()
	p := &fakeProvider{input: testInput()}
	e, _ := New(Options{Provider: p, Archive: store})

	res, err := e.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.ArchiveID == "" {
		t.Fatal("cycle was not archived")
	}

	rec, err := store.Get(context.Background(), res.ArchiveID)
	if err != nil {
		t.Fatalf("archived record missing: %v", err)
	}
	if rec.Source != "fake://mesh" || rec.NodeCount != 2 {
		t.Errorf("record = %+v", rec)
	}
}

func TestNew_RequiresProvider(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("got %v, want INVALID_CONFIG", err)
	}
}
