// internal/order/controller.go
//
// Orderform – order domain: form state controller.
//
// Context
//   A Controller owns the State of one mounted form page.  Input events
//   replace the snapshot through a single update entry point and never
//   re-validate; only Submit runs Validate and moves the page between its two
//   observable phases:
//
//      clean   ──fail──▶ invalid
//      invalid ──pass──▶ clean
//
//   The phase machine is a looplab/fsm instance.  A “fail” while already
//   invalid (or “pass” while clean) is a self-transition and is not an error.
//
//   Picture loads are the only asynchronous input.  Each load draws a
//   sequence number; a completion is applied only when its number is higher
//   than the last applied one, so the newest finished read wins and a slow,
//   older read that lands afterwards is dropped.
//
// Notes
//   •  Safe for concurrent use; overlapping HTTP requests for one session
//      serialise on mu.
//
//------------------------------------------------------------------------------

package order

import (
	"context"
	"errors"
	"sync"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Phase is the renderer-visible mode of the form.
type Phase string

const (
	PhaseClean   Phase = "clean"
	PhaseInvalid Phase = "invalid"
)

const (
	eventPass = "pass"
	eventFail = "fail"
)

// Controller holds the current State and the errors of the last submission.
type Controller struct {
	mu      sync.Mutex
	state   State
	errs    Errors
	phase   *fsm.FSM
	issued  uint64 // last picture sequence handed out
	applied uint64 // last picture sequence written into state
}

// NewController mounts a fresh form with zero values in the clean phase.
func NewController() *Controller {
	return &Controller{
		errs: Errors{},
		phase: fsm.NewFSM(
			string(PhaseClean),
			fsm.Events{
				{Name: eventFail, Src: []string{string(PhaseClean), string(PhaseInvalid)}, Dst: string(PhaseInvalid)},
				{Name: eventPass, Src: []string{string(PhaseClean), string(PhaseInvalid)}, Dst: string(PhaseClean)},
			},
			fsm.Callbacks{},
		),
	}
}

// -----------------------------------------------------------------------------
// Read accessors
// -----------------------------------------------------------------------------

// Snapshot returns the current State.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Errors returns a copy of the last submission's errors.
func (c *Controller) Errors() Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs.Clone()
}

// Phase returns clean or invalid.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Phase(c.phase.Current())
}

// -----------------------------------------------------------------------------
// Input events
// -----------------------------------------------------------------------------

// update is the single write path: it swaps in the snapshot fn returns.
func (c *Controller) update(fn func(State) (State, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := fn(c.state)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Replace applies fn to the current snapshot as one update.  Callers that
// change several fields at once use it so no other event interleaves.
func (c *Controller) Replace(fn func(State) (State, error)) error {
	return c.update(fn)
}

// UpdateField replaces one scalar field.
func (c *Controller) UpdateField(f Field, value string) error {
	return c.update(func(s State) (State, error) { return s.With(f, value) })
}

// UpdateBoolean sets a checkbox field.
func (c *Controller) UpdateBoolean(f Field, checked bool) error {
	return c.update(func(s State) (State, error) { return s.WithBool(f, checked) })
}

// TogglePresent adds or removes one present tag.
func (c *Controller) TogglePresent(tag string, checked bool) {
	_ = c.update(func(s State) (State, error) { return s.WithPresent(tag, checked), nil })
}

// SetNotification stores true for "yes" and false for anything else.
func (c *Controller) SetNotification(choice string) {
	_ = c.update(func(s State) (State, error) { return s.WithNotification(choice), nil })
}

// -----------------------------------------------------------------------------
// Picture sequencing
// -----------------------------------------------------------------------------

// BeginPicture reserves the next picture sequence number.
func (c *Controller) BeginPicture() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return c.issued
}

// CompletePicture applies dataURL when seq is newer than the last applied
// load.  It reports whether the state changed.
func (c *Controller) CompletePicture(seq uint64, dataURL string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq <= c.applied {
		zap.S().Debugw("stale picture load dropped", "seq", seq, "applied", c.applied)
		return false
	}
	c.applied = seq
	c.state = c.state.WithPicture(dataURL)
	return true
}

// -----------------------------------------------------------------------------
// Submit
// -----------------------------------------------------------------------------

// Submit validates the current snapshot.  Errors are stored and the phase
// becomes invalid when any field fails; otherwise errors are cleared and the
// phase becomes clean.  Nothing is persisted.
func (c *Controller) Submit(ctx context.Context) Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitLocked(ctx)
}

// SubmitWith applies fn and validates the result while holding the lock, so
// the validated snapshot is exactly the one fn produced.  When fn fails the
// state, errors and phase are left as they were.
func (c *Controller) SubmitWith(ctx context.Context, fn func(State) (State, error)) (Errors, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := fn(c.state)
	if err != nil {
		return nil, err
	}
	c.state = next
	return c.submitLocked(ctx), nil
}

func (c *Controller) submitLocked(ctx context.Context) Errors {
	errs := Validate(c.state)
	event := eventPass
	if !errs.Valid() {
		event = eventFail
	}
	if err := c.phase.Event(ctx, event); err != nil {
		var nt fsm.NoTransitionError
		if !errors.As(err, &nt) {
			zap.S().Errorw("form phase transition failed", "event", event, "err", err)
		}
	}
	c.errs = errs
	return errs.Clone()
}
