// Package watch drives incremental recompilation from a stream of
// file-system change events. The coordinator is a three-state machine
// (Idle, Debouncing, Compiling): events open a debounce window and accumulate
// into a pending change-set; when the window goes quiet (or the max delay
// caps further postponement) the set is handed to the compiler. At most one
// compile runs at a time; events arriving mid-compile feed the next cycle.
package watch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/mdsite/internal/compiler"
	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/sitepath"
)

// State is the coordinator's current phase.
type State int32

const (
	StateIdle State = iota
	StateDebouncing
	StateCompiling
)

// CompileFunc receives the coalesced change-set of one debounce cycle. When
// full is set the change list is empty and the whole tree must recompile.
// Errors are logged and never terminate the watch loop.
type CompileFunc func(ctx context.Context, changes []compiler.Change, full bool) (*compiler.Report, error)

// Coordinator consumes events from a single source channel and invokes the
// compile function with debounced change-sets. It is safe to run as a single
// goroutine; all mutable state is confined to Run.
type Coordinator struct {
	cfg     *config.SiteConfig
	events  <-chan Event
	compile CompileFunc
	rec     metrics.Recorder

	quiet    time.Duration
	maxDelay time.Duration

	state     atomic.Int32
	readyOnce atomic.Bool
	ready     chan struct{}
	fullReq   chan struct{}
}

// NewCoordinator wires a coordinator to an event channel and a compile
// function. Debounce tunables come from cfg.
func NewCoordinator(cfg *config.SiteConfig, events <-chan Event, compile CompileFunc) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		events:   events,
		compile:  compile,
		rec:      metrics.NoopRecorder{},
		quiet:    cfg.DebounceWindow(),
		maxDelay: cfg.MaxDelay(),
		ready:    make(chan struct{}),
		fullReq:  make(chan struct{}, 1),
	}
}

// WithMetrics attaches a metrics recorder.
func (c *Coordinator) WithMetrics(r metrics.Recorder) *Coordinator {
	if r != nil {
		c.rec = r
	}
	return c
}

// State returns the coordinator's current phase.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Ready is closed once Run is consuming events. Intended for tests and
// deterministic startup sequencing.
func (c *Coordinator) Ready() <-chan struct{} {
	return c.ready
}

// RequestFull schedules a full recompile through the normal debounce cycle,
// so it serializes with event-driven compiles. Used by the periodic resync.
func (c *Coordinator) RequestFull() {
	select {
	case c.fullReq <- struct{}{}:
	default: // one already queued
	}
}

// Run consumes events until ctx is canceled or the event channel closes.
// An in-flight compile is allowed to finish before Run returns; there is no
// hard interruption mid-write.
func (c *Coordinator) Run(ctx context.Context) error {
	if c.readyOnce.CompareAndSwap(false, true) {
		close(c.ready)
	}

	newStoppedTimer := func() *time.Timer {
		t := time.NewTimer(time.Hour)
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
		return t
	}
	resetTimer := func(t *time.Timer, after time.Duration) {
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
		t.Reset(after)
	}

	quietTimer := newStoppedTimer()
	maxTimer := newStoppedTimer()

	var (
		quietC      <-chan time.Time
		maxC        <-chan time.Time
		compileDone chan struct{}
		pending     = make(map[string]compiler.Change)
		fullPending bool
	)

	startCompile := func() {
		quietC, maxC = nil, nil
		if len(pending) == 0 && !fullPending {
			c.state.Store(int32(StateIdle))
			return
		}
		full := fullPending
		fullPending = false
		var changes []compiler.Change
		if !full {
			changes = make([]compiler.Change, 0, len(pending))
			for _, ch := range pending {
				changes = append(changes, ch)
			}
		}
		pending = make(map[string]compiler.Change)

		c.state.Store(int32(StateCompiling))
		compileDone = make(chan struct{})
		go func() {
			defer close(compileDone)
			report, err := c.compile(ctx, changes, full)
			if err != nil {
				slog.Error("Compile failed, watch loop continues", logfields.Error(err))
				return
			}
			if len(report.Warnings) > 0 {
				slog.Warn("Compile finished with warnings", logfields.Warnings(len(report.Warnings)))
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			if compileDone != nil {
				<-compileDone
			}
			c.state.Store(int32(StateIdle))
			return nil

		case ev, ok := <-c.events:
			if !ok {
				if compileDone != nil {
					<-compileDone
				}
				c.state.Store(int32(StateIdle))
				return nil
			}
			ch, accepted := c.accept(ev)
			if !accepted {
				continue
			}
			c.rec.IncWatchEvents(1)
			first := len(pending) == 0
			pending[ch.Path] = ch

			if compileDone != nil {
				// Queued for the next cycle; timers arm after the current
				// compile returns.
				continue
			}
			c.state.Store(int32(StateDebouncing))
			resetTimer(quietTimer, c.quiet)
			quietC = quietTimer.C
			if first {
				resetTimer(maxTimer, c.maxDelay)
				maxC = maxTimer.C
			}

		case <-c.fullReq:
			fullPending = true
			if compileDone != nil {
				continue
			}
			c.state.Store(int32(StateDebouncing))
			resetTimer(quietTimer, c.quiet)
			quietC = quietTimer.C

		case <-quietC:
			startCompile()

		case <-maxC:
			slog.Debug("Debounce max delay reached, compiling pending set")
			startCompile()

		case <-compileDone:
			compileDone = nil
			if len(pending) > 0 || fullPending {
				c.state.Store(int32(StateDebouncing))
				resetTimer(quietTimer, c.quiet)
				quietC = quietTimer.C
				resetTimer(maxTimer, c.maxDelay)
				maxC = maxTimer.C
			} else {
				c.state.Store(int32(StateIdle))
			}
		}
	}
}

// accept validates an event and converts it into a pending change. Paths
// that escape the source tree are discarded at ingestion.
func (c *Coordinator) accept(ev Event) (compiler.Change, bool) {
	rel, err := sitepath.Normalize(ev.Path)
	if err != nil {
		slog.Debug("Discarding event outside source tree", logfields.Path(ev.Path))
		return compiler.Change{}, false
	}
	return compiler.Change{Path: rel, Removed: ev.Kind == Removed}, true
}
