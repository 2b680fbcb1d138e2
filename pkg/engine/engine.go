// Package engine orchestrates the refresh cycle: fetch raw entities from
// the provider, build the topology snapshot, reconcile it into the live
// buffer, and restyle.
//
// At most one cycle runs at a time. A refresh requested while one is in
// flight is dropped, not queued; the caller observes [ErrRefreshInFlight]
// and the running cycle's result stands. A failed fetch leaves the buffer
// untouched, so consumers keep rendering the previous topology.
//
// The engine also owns the interactive state: the 0/1/2-node selection and
// the style engine derived from it. Selection changes recompute styling
// without touching the buffer.
package engine

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/meshview/meshview/pkg/archive"
	"github.com/meshview/meshview/pkg/errors"
	"github.com/meshview/meshview/pkg/mesh"
	"github.com/meshview/meshview/pkg/mesh/model"
	"github.com/meshview/meshview/pkg/mesh/reconcile"
	"github.com/meshview/meshview/pkg/mesh/style"
	"github.com/meshview/meshview/pkg/observability"
	"github.com/meshview/meshview/pkg/provider"
)

// ErrRefreshInFlight is returned when a refresh is requested while another
// cycle is still running.
var ErrRefreshInFlight = stderrors.New("refresh already in flight")

// Options configure the engine.
type Options struct {
	// Provider supplies raw topology entities. Required.
	Provider provider.Provider

	// Build are the snapshot build settings.
	Build model.Options

	// MaxHops bounds path searches and reachability expansion.
	MaxHops int

	// Interval is the automatic refresh period for [Engine.Run].
	// Zero disables the timer; refreshes are manual only.
	Interval time.Duration

	// Archive, when set, receives a record per successful cycle. Archive
	// failures are logged and do not fail the cycle.
	Archive archive.Store

	// Logger defaults to a discard logger.
	Logger *log.Logger
}

// CycleResult summarizes one completed refresh cycle.
type CycleResult struct {
	// CycleID correlates logs, hooks, and archive records.
	CycleID string

	Stats      reconcile.Stats
	Generation uint64
	Nodes      int
	Links      int
	Duration   time.Duration

	// ArchiveID is the stored record's ID, empty when archiving is off.
	ArchiveID string
}

// Engine drives fetch, build, reconcile, and styling.
type Engine struct {
	opts Options

	mu     sync.Mutex
	buffer *reconcile.Buffer
	sel    mesh.SelectionState
	style  *style.Engine
	last   CycleResult

	// inFlight drops overlapping refresh requests instead of queueing.
	inFlight bool
}

// New creates an engine. The buffer starts empty; call Refresh or Run to
// populate it.
func New(opts Options) (*Engine, error) {
	if opts.Provider == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "engine requires a provider")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	e := &Engine{
		opts:   opts,
		buffer: reconcile.New(),
	}
	e.restyleLocked()
	return e, nil
}

// Refresh runs one fetch, build, reconcile cycle. It returns
// [ErrRefreshInFlight] when another cycle is running, and the fetch error
// (buffer untouched) when the provider fails.
func (e *Engine) Refresh(ctx context.Context) (CycleResult, error) {
	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return CycleResult{}, ErrRefreshInFlight
	}
	e.inFlight = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.inFlight = false
		e.mu.Unlock()
	}()

	cycleID := uuid.NewString()
	logger := e.opts.Logger.With("cycle", cycleID)
	source := e.opts.Provider.Source()
	start := time.Now()

	observability.Engine().OnFetchStart(ctx, cycleID, source)
	in, err := e.opts.Provider.Fetch(ctx)
	observability.Engine().OnFetchComplete(ctx, cycleID, source, time.Since(start), err)
	if err != nil {
		logger.Warn("fetch failed, keeping previous topology", "err", err)
		return CycleResult{}, err
	}

	buildStart := time.Now()
	snap := model.Build(in, e.opts.Build)
	observability.Engine().OnBuildComplete(ctx, cycleID, len(snap.Nodes), len(snap.Links), time.Since(buildStart))

	e.mu.Lock()
	stats := e.buffer.Apply(snap)
	gen := e.buffer.Generation()
	e.restyleLocked()
	e.mu.Unlock()

	changed := stats.NodesAdded + stats.NodesUpdated + stats.NodesRemoved +
		stats.LinksAdded + stats.LinksUpdated + stats.LinksRemoved
	observability.Engine().OnReconcileComplete(ctx, cycleID, gen, changed)

	result := CycleResult{
		CycleID:    cycleID,
		Stats:      stats,
		Generation: gen,
		Nodes:      len(snap.Nodes),
		Links:      len(snap.Links),
		Duration:   time.Since(start),
	}

	if e.opts.Archive != nil {
		id, err := e.opts.Archive.Save(ctx, archive.Record{
			Source:   source,
			Taken:    snap.Taken,
			Snapshot: snap,
		})
		if err != nil {
			logger.Warn("archive save failed", "err", err)
		} else {
			result.ArchiveID = id
		}
	}

	logger.Debug("cycle complete",
		"nodes", result.Nodes,
		"links", result.Links,
		"generation", gen,
		"changed", changed,
		"duration", result.Duration)

	e.mu.Lock()
	e.last = result
	e.mu.Unlock()

	return result, nil
}

// Run refreshes immediately and then on every interval tick until the
// context is cancelled. Fetch failures are logged and the loop continues.
func (e *Engine) Run(ctx context.Context) error {
	if _, err := e.Refresh(ctx); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if e.opts.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(e.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := e.Refresh(ctx); err != nil && !stderrors.Is(err, ErrRefreshInFlight) {
				e.opts.Logger.Warn("periodic refresh failed", "err", err)
			}
		}
	}
}

// Toggle applies a selection click on the node and recomputes styling.
// Unknown node IDs return INVALID_SELECTION and leave the selection as is.
func (e *Engine) Toggle(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.buffer.Node(id) == nil {
		return errors.New(errors.ErrCodeInvalidSelection, "unknown node: %s", id)
	}
	e.sel = e.sel.Toggle(id)
	e.restyleLocked()
	return nil
}

// ClearSelection resets to no selection and recomputes styling.
func (e *Engine) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel = mesh.SelectionState{}
	e.restyleLocked()
}

// Selection returns the current selection.
func (e *Engine) Selection() mesh.SelectionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel
}

// Style returns the style engine for the current buffer and selection.
// The returned value is immutable; a refresh or selection change produces
// a new one.
func (e *Engine) Style() *style.Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.style
}

// Buffer returns the live topology buffer. Callers must treat it as
// read-only; the engine mutates it on every successful cycle.
func (e *Engine) Buffer() *reconcile.Buffer {
	return e.buffer
}

// Last returns the most recent successful cycle result.
func (e *Engine) Last() CycleResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func (e *Engine) restyleLocked() {
	e.style = style.New(e.buffer, e.sel, e.opts.MaxHops, time.Now())
}
