package scope

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fieldservice/jobvisit/pkg/clock"
	"github.com/fieldservice/jobvisit/pkg/metrics"
)

const DefaultQuietPeriod = 800 * time.Millisecond

var (
	ErrSaveInFlight = errors.New("a scope save is already in flight")
	ErrPumpClosed   = errors.New("scope pump is closed")
)

// Patcher submits a scope patch and returns the authoritative list.
type Patcher interface {
	PatchScope(ctx context.Context, ref Ref, patch Patch) ([]Item, error)
}

type PatcherFunc func(ctx context.Context, ref Ref, patch Patch) ([]Item, error)

func (f PatcherFunc) PatchScope(ctx context.Context, ref Ref, patch Patch) ([]Item, error) {
	return f(ctx, ref, patch)
}

// Pump debounces draft edits into patch calls. Every edit cancels the
// pending task and schedules a new one QuietPeriod later. At most one
// patch call is in flight; a task firing during a call is re-armed once
// the call returns. A failed call is never retried by the pump.
type Pump struct {
	mu      sync.Mutex
	ref     Ref
	draft   *Draft
	patcher Patcher
	clock   clock.Clock
	quiet   time.Duration
	timeout time.Duration

	task     *clock.Timer
	gen      uint64
	inFlight bool
	rearm    bool
	closed   bool
	lastErr  error
	// held is set by a failed save and cleared by the next local edit or
	// a manual flush; remote snapshots alone never reschedule while held.
	held bool

	onError func(error)
	onSaved func([]Item)

	log *zap.SugaredLogger
}

type PumpOption func(p *Pump)

func WithClock(c clock.Clock) PumpOption {
	return func(p *Pump) {
		p.clock = c
	}
}

func WithQuietPeriod(d time.Duration) PumpOption {
	return func(p *Pump) {
		if d > 0 {
			p.quiet = d
		}
	}
}

// WithCallTimeout bounds a single patch call.
func WithCallTimeout(d time.Duration) PumpOption {
	return func(p *Pump) {
		p.timeout = d
	}
}

// WithOnError registers a callback invoked after a failed save.
func WithOnError(fn func(error)) PumpOption {
	return func(p *Pump) {
		p.onError = fn
	}
}

// WithOnSaved registers a callback invoked with the list returned by a
// successful save.
func WithOnSaved(fn func([]Item)) PumpOption {
	return func(p *Pump) {
		p.onSaved = fn
	}
}

func NewPump(ref Ref, draft *Draft, patcher Patcher, opts ...PumpOption) *Pump {
	p := &Pump{
		ref:     ref,
		draft:   draft,
		patcher: patcher,
		clock:   clock.Real(),
		quiet:   DefaultQuietPeriod,
		timeout: 30 * time.Second,
		log:     zap.S().Named("scope_pump").With("ref", ref.String()),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Edit runs fn against the draft under the pump lock and, when the draft
// is left dirty or saving, restarts the quiet timer.
func (p *Pump) Edit(fn func(d *Draft) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPumpClosed
	}
	if err := fn(p.draft); err != nil {
		return err
	}
	p.held = false
	if p.draft.State() != StateClean {
		p.scheduleLocked()
	}
	return nil
}

// Rebase runs fn, which folds a remote snapshot into the draft, and
// restarts the quiet timer only when fn changed the draft and the last
// save did not fail.
func (p *Pump) Rebase(fn func(d *Draft) bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	changed := fn(p.draft)
	if changed && !p.held && p.draft.State() != StateClean {
		p.scheduleLocked()
	}
	return changed
}

// View runs fn against the draft under the pump lock.
func (p *Pump) View(fn func(d *Draft)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.draft)
}

// Err returns the error of the last save, nil once a save succeeds.
func (p *Pump) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Pending reports whether a debounce task is scheduled.
func (p *Pump) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.task != nil
}

// Flush cancels the pending task and saves now. It is the manual retry
// after a failure.
func (p *Pump) Flush(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPumpClosed
	}
	if p.inFlight {
		p.mu.Unlock()
		return ErrSaveInFlight
	}
	p.stopLocked()
	p.held = false
	p.mu.Unlock()

	return p.save(ctx)
}

// Close cancels the pending task. An in-flight call completes but
// nothing is scheduled after it.
func (p *Pump) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.stopLocked()
}

func (p *Pump) scheduleLocked() {
	p.stopLocked()
	p.gen++
	gen := p.gen
	p.task = p.clock.AfterFunc(p.quiet, func() {
		p.fire(gen)
	})
}

func (p *Pump) stopLocked() {
	if p.task != nil {
		p.task.Stop()
		p.task = nil
	}
}

func (p *Pump) fire(gen uint64) {
	p.mu.Lock()
	if p.task == nil || p.gen != gen || p.closed {
		p.mu.Unlock()
		return
	}
	p.task = nil
	if p.inFlight {
		p.rearm = true
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	_ = p.save(ctx)
}

func (p *Pump) save(ctx context.Context) error {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return ErrSaveInFlight
	}
	patch, ok := p.draft.BeginSave()
	if !ok {
		p.mu.Unlock()
		metrics.IncreaseScopePatchMetric(metrics.ResultEmpty)
		return nil
	}
	p.inFlight = true
	p.mu.Unlock()

	p.log.Debugw("submitting scope patch", "add", len(patch.Add), "remove", len(patch.RemoveKeys), "update", len(patch.Update))
	items, err := p.patcher.PatchScope(ctx, p.ref, patch)

	p.mu.Lock()
	p.inFlight = false
	rearm := p.rearm
	p.rearm = false

	if err != nil {
		p.draft.FailSave()
		p.lastErr = err
		p.held = !rearm
		if rearm && p.task == nil && !p.closed {
			p.scheduleLocked()
		}
		onError := p.onError
		p.mu.Unlock()

		metrics.IncreaseScopePatchMetric(metrics.ResultFailure)
		p.log.Warnw("scope patch failed, draft kept", "error", err)
		if onError != nil {
			onError(err)
		}
		return err
	}

	p.draft.CompleteSave(items)
	p.lastErr = nil
	if (rearm || p.draft.State() == StateDirty) && p.task == nil && !p.closed {
		p.scheduleLocked()
	}
	saved := p.draft.Baseline()
	onSaved := p.onSaved
	p.mu.Unlock()

	metrics.IncreaseScopePatchMetric(metrics.ResultSuccess)
	if onSaved != nil {
		onSaved(saved)
	}
	return nil
}
